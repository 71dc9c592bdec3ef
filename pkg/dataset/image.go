package dataset

import (
	"image"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/MrCodeEU/fisherface/pkg/faceerr"
)

// Gray is a single-channel image stored as row-major float64 intensities.
type Gray struct {
	Width  int
	Height int
	Pix    []float64
}

// NewGray allocates a zeroed w×h image.
func NewGray(w, h int) *Gray {
	return &Gray{Width: w, Height: h, Pix: make([]float64, w*h)}
}

// At returns the intensity at column x, row y.
func (g *Gray) At(x, y int) float64 {
	return g.Pix[y*g.Width+x]
}

// Set stores the intensity at column x, row y.
func (g *Gray) Set(x, y int, v float64) {
	g.Pix[y*g.Width+x] = v
}

// Dims returns the image dimensions.
func (g *Gray) Dims() faceerr.Dims {
	return faceerr.Dims{Width: g.Width, Height: g.Height}
}

// SameSize reports whether g and o have equal dimensions.
func (g *Gray) SameSize(o *Gray) bool {
	return g.Width == o.Width && g.Height == o.Height
}

// Clone returns a deep copy of g.
func (g *Gray) Clone() *Gray {
	c := &Gray{Width: g.Width, Height: g.Height, Pix: make([]float64, len(g.Pix))}
	copy(c.Pix, g.Pix)
	return c
}

// ToImage converts g to an 8-bit image, clamping to [0, 255].
func (g *Gray) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			v := g.At(x, y)
			switch {
			case v < 0:
				v = 0
			case v > 255:
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: uint8(v + 0.5)})
		}
	}
	return img
}

// FromImage converts any image to Gray using luma conversion.
func FromImage(img image.Image) *Gray {
	b := img.Bounds()
	g := NewGray(b.Dx(), b.Dy())
	if gi, ok := img.(*image.Gray); ok {
		for y := 0; y < g.Height; y++ {
			off := gi.PixOffset(b.Min.X, b.Min.Y+y)
			row := gi.Pix[off : off+g.Width]
			for x, v := range row {
				g.Pix[y*g.Width+x] = float64(v)
			}
		}
		return g
	}
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			g.Pix[y*g.Width+x] = float64(c.Y)
		}
	}
	return g
}

// LoadGray decodes an image file and converts it to grayscale.
func LoadGray(path string) (*Gray, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, faceerr.Resource("dataset.LoadGray", "cannot read image", err).WithPath(path)
	}
	if gi, ok := img.(*image.Gray); ok {
		return FromImage(gi), nil
	}
	return FromImage(imaging.Grayscale(img)), nil
}

// LoadProbe decodes a probe image. Unlike LoadGray it refuses anything that
// is not already a single-channel image.
func LoadProbe(path string) (*Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, faceerr.Resource("dataset.LoadProbe", "cannot open probe", err).WithPath(path)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, faceerr.Resource("dataset.LoadProbe", "cannot decode probe", err).WithPath(path)
	}
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return FromImage(img), nil
	default:
		return nil, faceerr.InvalidArgument("dataset.LoadProbe",
			"probe must be a single-channel image, got multi-channel "+format).WithPath(path)
	}
}
