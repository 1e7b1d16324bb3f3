// Package ingest collects certificate images from a directory or an upload.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/bizscan/constants"
	"github.com/joseph-ayodele/bizscan/internal/common"
)

// DefaultMaxFileBytes caps a single image.
const DefaultMaxFileBytes = 20 << 20

var (
	ErrUnsupportedExt = fmt.Errorf("%w: unsupported or missing extension", common.ErrInvalidInput)
	ErrEmptyFile      = fmt.Errorf("%w: file is empty", common.ErrInvalidInput)
	ErrTooLarge       = fmt.Errorf("%w: file is too large", common.ErrInvalidInput)
)

// File is an accepted image.
type File struct {
	Name string
	Path string
	MIME string
	Data []byte
}

// FileResult records a path that was matched but could not be read.
type FileResult struct {
	Path string
	Err  string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Read    uint32
	Failed  uint32
}

// FromUpload validates an uploaded file by name and size.
func FromUpload(name string, data []byte, maxBytes int64) (File, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if !AllowedExt(filepath.Ext(name)) {
		return File{}, fmt.Errorf("%s: %w", name, ErrUnsupportedExt)
	}
	if len(data) == 0 {
		return File{}, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return File{}, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}
	return File{Name: name, MIME: constants.MIMEForExt(filepath.Ext(name)), Data: data}, nil
}

// IsRejected reports whether err came from upload validation.
func IsRejected(err error) bool {
	return errors.Is(err, ErrUnsupportedExt) || errors.Is(err, ErrEmptyFile) || errors.Is(err, ErrTooLarge)
}
