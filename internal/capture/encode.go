package capture

import (
	"bytes"
	"image"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"
)

// ScaledSize returns (round(w*scale), round(h*scale)), never below 1x1.
// A scale of exactly 1 returns the input unchanged.
func ScaledSize(w, h int, scale float64) (int, int) {
	if scale == 1.0 {
		return w, h
	}
	sw := int(math.Round(float64(w) * scale))
	sh := int(math.Round(float64(h) * scale))
	return max(sw, 1), max(sh, 1)
}

// Resize resamples img by scale with a Catmull-Rom filter. It returns img
// itself when scale is 1 or the size would not change.
func Resize(img image.Image, scale float64) image.Image {
	b := img.Bounds()
	w, h := ScaledSize(b.Dx(), b.Dy(), scale)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// JPEGEncoder compresses images to JPEG.
type JPEGEncoder struct{}

// Encode compresses img at quality (1-100; out of range means 80).
func (JPEGEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	q := quality
	if q <= 0 || q > 100 {
		q = 80
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
