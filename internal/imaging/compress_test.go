package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), uint8(x ^ y), 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFitWithin(t *testing.T) {
	cases := []struct{ w, h, ww, wh int }{
		{800, 600, 800, 600},
		{2400, 1200, 1200, 600},
		{1200, 2400, 600, 1200},
		{3000, 3000, 1200, 1200},
		{5000, 2, 1200, 1},
	}
	for _, tc := range cases {
		w, h := FitWithin(tc.w, tc.h, 1200, 1200)
		assert.Equal(t, tc.ww, w, "%dx%d", tc.w, tc.h)
		assert.Equal(t, tc.wh, h, "%dx%d", tc.w, tc.h)
	}
}

func TestCompress_Downscales(t *testing.T) {
	data := pngBytes(t, 1600, 800)

	res := Compress(data, "image/png", Options{})

	require.True(t, res.Compressed)
	assert.Equal(t, "image/jpeg", res.MIME)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 1200, cfg.Width)
	assert.Equal(t, 600, cfg.Height)
}

func TestCompress_BelowThreshold(t *testing.T) {
	data := pngBytes(t, 10, 10)

	res := Compress(data, "image/png", Options{Threshold: len(data)})

	assert.False(t, res.Compressed)
	assert.Equal(t, data, res.Data)
	assert.Equal(t, "image/png", res.MIME)
}

func TestCompress_Undecodable(t *testing.T) {
	data := []byte("definitely not an image")

	res := Compress(data, "image/jpeg", Options{})

	assert.False(t, res.Compressed)
	assert.Equal(t, data, res.Data)
}
