package constants

import "strings"

// AllowedExtensions holds the image extensions accepted for certificate scans.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
}

// MIME types keyed by normalized extension.
var imageMIME = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// XLSXContentType is the content type of rendered workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MIMEForExt returns the image MIME type for ext, defaulting to image/jpeg.
func MIMEForExt(ext string) string {
	if mt, ok := imageMIME[NormalizeExt(ext)]; ok {
		return mt
	}
	return "image/jpeg"
}
