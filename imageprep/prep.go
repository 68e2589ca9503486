// Package imageprep optionally shrinks images before they are sent for labeling.
package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
)

const defaultQuality = 85

// Preparer downscales images whose larger side exceeds MaxDimension. A zero
// MaxDimension turns it into a no-op.
type Preparer struct {
	MaxDimension int
	Quality      int
}

// Result describes what Prepare did.
type Result struct {
	Resized        bool
	Orientation    int
	Width, Height  int
	OriginalWidth  int
	OriginalHeight int
}

// Prepare returns the bytes to send. Images that fit, or that cannot be decoded, are
// returned untouched: judging the image is left to the vision service.
func (p Preparer) Prepare(data []byte) ([]byte, Result, error) {
	if p.MaxDimension <= 0 {
		return data, Result{}, nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || (format != "jpeg" && format != "png") {
		return data, Result{}, nil
	}
	res := Result{OriginalWidth: cfg.Width, OriginalHeight: cfg.Height, Width: cfg.Width, Height: cfg.Height}
	if cfg.Width <= p.MaxDimension && cfg.Height <= p.MaxDimension {
		return data, res, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, res, nil
	}
	res.Orientation = Orientation(data)
	img = orient(img, res.Orientation)

	b := img.Bounds()
	scale := float64(p.MaxDimension) / float64(max(b.Dx(), b.Dy()))
	w := max(1, min(p.MaxDimension, int(float64(b.Dx())*scale)))
	h := max(1, min(p.MaxDimension, int(float64(b.Dy())*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	quality := p.Quality
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, res, fmt.Errorf("failed to encode resized image: %w", err)
	}

	res.Resized = true
	res.Width, res.Height = w, h
	return buf.Bytes(), res, nil
}

// Orientation reads the EXIF orientation tag, defaulting to 1.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// orient applies an EXIF orientation so the image reads upright.
func orient(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	dw, dh := w, h
	if orientation >= 5 {
		dw, dh = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch orientation {
			case 2: // flip horizontal
				dx, dy = w-1-x, y
			case 3: // rotate 180
				dx, dy = w-1-x, h-1-y
			case 4: // flip vertical
				dx, dy = x, h-1-y
			case 5: // transpose
				dx, dy = y, x
			case 6: // rotate 90 clockwise
				dx, dy = h-1-y, x
			case 7: // transverse
				dx, dy = h-1-y, w-1-x
			case 8: // rotate 90 counter-clockwise
				dx, dy = y, w-1-x
			}
			dst.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
