package detect

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/MrCodeEU/fisherface/pkg/config"
)

// Normalizer crops a face, converts it to grayscale, resizes it to
// Width×Height and optionally equalizes its histogram.
type Normalizer struct {
	Width    int
	Height   int
	Equalize bool
}

// NormalizerFromConfig returns the normalizer described by cfg.
func NormalizerFromConfig(cfg config.DetectionConfig) Normalizer {
	return Normalizer{Width: cfg.FaceWidth, Height: cfg.FaceHeight, Equalize: cfg.Equalize}
}

// Normalize returns the face inside box. The box is clipped to the image.
func (n Normalizer) Normalize(img image.Image, box image.Rectangle) (*image.Gray, error) {
	if n.Width <= 0 || n.Height <= 0 {
		return nil, fmt.Errorf("invalid face size %dx%d", n.Width, n.Height)
	}

	box = box.Intersect(img.Bounds())
	if box.Empty() {
		return nil, ErrNoFaceDetected
	}

	face := imaging.Crop(img, box)
	face = imaging.Grayscale(face)
	face = imaging.Resize(face, n.Width, n.Height, imaging.Lanczos)

	gray := image.NewGray(image.Rect(0, 0, n.Width, n.Height))
	for y := 0; y < n.Height; y++ {
		src := face.Pix[y*face.Stride:]
		dst := gray.Pix[y*gray.Stride:]
		for x := 0; x < n.Width; x++ {
			dst[x] = src[x*4]
		}
	}

	if n.Equalize {
		gray = EqualizeHist(gray)
	}
	return gray, nil
}

// EqualizeHist spreads the intensity histogram of img over the full 0-255
// range. An image with a single intensity is returned unchanged.
func EqualizeHist(img *image.Gray) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)

	var hist [256]int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			hist[row[x]]++
		}
	}

	var cdf [256]int
	sum, cdfMin := 0, 0
	for v, c := range hist {
		sum += c
		cdf[v] = sum
		if cdfMin == 0 && sum > 0 {
			cdfMin = sum
		}
	}

	var lut [256]uint8
	total := b.Dx() * b.Dy()
	if total == cdfMin {
		for v := range lut {
			lut[v] = uint8(v)
		}
	} else {
		scale := 255 / float64(total-cdfMin)
		for v := range lut {
			if cdf[v] > cdfMin {
				lut[v] = uint8(math.Round(float64(cdf[v]-cdfMin) * scale))
			}
		}
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, y):]
		dst := out.Pix[out.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			dst[x] = lut[src[x]]
		}
	}
	return out
}
