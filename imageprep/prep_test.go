package imageprep

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

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0x80, 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareDisabled(t *testing.T) {
	data := encodePNG(t, 800, 600)

	out, res, err := Preparer{}.Prepare(data)
	require.NoError(t, err)
	assert.Equal(t, data, out)
	assert.False(t, res.Resized)
}

func TestPrepareKeepsSmallImages(t *testing.T) {
	data := encodePNG(t, 100, 50)

	out, res, err := Preparer{MaxDimension: 512}.Prepare(data)
	require.NoError(t, err)
	assert.Equal(t, data, out)
	assert.False(t, res.Resized)
	assert.Equal(t, 100, res.Width)
}

func TestPreparePassesThroughUndecodableBytes(t *testing.T) {
	data := []byte("ceci n'est pas une image")

	out, res, err := Preparer{MaxDimension: 512}.Prepare(data)
	require.NoError(t, err)
	assert.Equal(t, data, out)
	assert.False(t, res.Resized)
}

func TestPrepareDownscalesLargeImages(t *testing.T) {
	data := encodePNG(t, 1024, 256)

	out, res, err := Preparer{MaxDimension: 512, Quality: 90}.Prepare(data)
	require.NoError(t, err)
	assert.True(t, res.Resized)
	assert.Equal(t, 1, res.Orientation)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.Width)
	assert.Equal(t, 128, cfg.Height)
	assert.Equal(t, 1024, res.OriginalWidth)
}

func TestOrientationDefaultsToOne(t *testing.T) {
	assert.Equal(t, 1, Orientation(encodePNG(t, 4, 4)))
	assert.Equal(t, 1, Orientation(nil))
}

func TestOrientRotatesClockwise(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	red := color.RGBA{0xff, 0, 0, 0xff}
	blue := color.RGBA{0, 0, 0xff, 0xff}
	src.Set(0, 0, red)
	src.Set(1, 0, blue)

	dst := orient(src, 6)

	assert.Equal(t, image.Rect(0, 0, 1, 2), dst.Bounds())
	assert.Equal(t, red, dst.At(0, 0))
	assert.Equal(t, blue, dst.At(0, 1))
}

func TestOrientIdentity(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	assert.Same(t, src, orient(src, 1))
}
