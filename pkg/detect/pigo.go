package detect

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
)

// Pigo detection defaults.
const (
	DefaultShiftFactor = 0.1
	DefaultScaleFactor = 1.1
	DefaultIoU         = 0.2
	DefaultMinScore    = 5.0

	// minCascadeSize keeps the scale loop growing: int(s*1.1) > s needs s >= 10.
	minCascadeSize = 20
)

// PigoLocator finds faces with a pigo cascade.
type PigoLocator struct {
	classifier *pigo.Pigo

	MinSize     int
	ShiftFactor float64
	ScaleFactor float64
	IoU         float64
	MinScore    float32
}

// LoadPigoLocator reads the cascade file at path.
func LoadPigoLocator(path string, minSize int) (*PigoLocator, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file: %w", err)
	}
	return NewPigoLocator(cascade, minSize)
}

// NewPigoLocator unpacks a binary cascade.
func NewPigoLocator(cascade []byte, minSize int) (l *PigoLocator, err error) {
	if len(cascade) < 16 {
		return nil, fmt.Errorf("cascade too short (%d bytes)", len(cascade))
	}
	defer func() {
		if r := recover(); r != nil {
			l, err = nil, fmt.Errorf("malformed cascade: %v", r)
		}
	}()

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the cascade file: %w", err)
	}
	return &PigoLocator{
		classifier:  classifier,
		MinSize:     minSize,
		ShiftFactor: DefaultShiftFactor,
		ScaleFactor: DefaultScaleFactor,
		IoU:         DefaultIoU,
		MinScore:    DefaultMinScore,
	}, nil
}

// Locate decodes data and runs the cascade over it.
func (l *PigoLocator) Locate(data []byte) (image.Image, []image.Rectangle, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	cols, rows := b.Dx(), b.Dy()
	params := pigo.CascadeParams{
		MinSize:     max(l.MinSize, minCascadeSize),
		MaxSize:     max(cols, rows),
		ShiftFactor: l.ShiftFactor,
		ScaleFactor: l.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(img),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := l.classifier.RunCascade(params, 0.0)
	dets = l.classifier.ClusterDetections(dets, l.IoU)

	var rects []image.Rectangle
	for _, d := range dets {
		if d.Q < l.MinScore {
			continue
		}
		half := d.Scale / 2
		rects = append(rects, image.Rect(d.Col-half, d.Row-half, d.Col+half, d.Row+half).Add(b.Min))
	}
	return img, rects, nil
}

// Close is a no-op; the cascade lives in memory.
func (l *PigoLocator) Close() error {
	return nil
}
