// Package imaging shrinks certificate photos before they are sent to the vision model.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxWidth  = 1200
	DefaultMaxHeight = 1200
	DefaultQuality   = 80
)

// Options controls Compress. Zero values take the defaults.
type Options struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
	// Threshold is the byte size at or below which input is returned untouched.
	Threshold int
}

func (o Options) withDefaults() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o
}

// Result is the output of Compress.
type Result struct {
	Data       []byte
	MIME       string
	Compressed bool
}

// Compress downsizes data to fit MaxWidth x MaxHeight, keeping the aspect ratio,
// and re-encodes it as JPEG. Small or undecodable input is passed through with
// fallbackMIME so that the vision model still gets a chance to read it.
func Compress(data []byte, fallbackMIME string, opts Options) Result {
	opts = opts.withDefaults()
	passthrough := Result{Data: data, MIME: fallbackMIME}
	if len(data) <= opts.Threshold {
		return passthrough
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return passthrough
	}

	out, err := encode(resize(src, opts.MaxWidth, opts.MaxHeight), opts.Quality)
	if err != nil {
		return passthrough
	}
	return Result{Data: out, MIME: "image/jpeg", Compressed: true}
}

// FitWithin returns the largest size with the same aspect ratio as w x h that
// fits inside maxW x maxH. Sizes already inside the box are returned unchanged.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	if w*maxH > h*maxW {
		nh := h * maxW / w
		return maxW, max(nh, 1)
	}
	nw := w * maxH / h
	return max(nw, 1), maxH
}

func resize(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), maxW, maxH)
	if w == b.Dx() && h == b.Dy() {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}
