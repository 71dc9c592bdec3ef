package pca

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/MrCodeEU/fisherface/pkg/dataset"
	"github.com/MrCodeEU/fisherface/pkg/faceerr"
)

// Project returns the coefficients of img in the subspace.
func (s *Subspace) Project(img *dataset.Gray) ([]float64, error) {
	if img.Width != s.Width || img.Height != s.Height {
		return nil, faceerr.DimensionMismatch("pca.Project", "image size differs from the model",
			faceerr.Dims{Width: s.Width, Height: s.Height}, img.Dims())
	}

	diff := make([]float64, len(img.Pix))
	floats.SubTo(diff, img.Pix, s.Mean.Pix)

	coeffs := make([]float64, len(s.Vectors))
	for k, v := range s.Vectors {
		coeffs[k] = floats.Dot(diff, v.Pix)
	}
	return coeffs, nil
}

// ProjectAll projects every image and returns one row per image.
func (s *Subspace) ProjectAll(images []*dataset.Gray) (*mat.Dense, error) {
	if len(images) == 0 {
		return nil, faceerr.InvalidArgument("pca.ProjectAll", "no images to project")
	}
	out := mat.NewDense(len(images), len(s.Vectors), nil)
	for i, img := range images {
		coeffs, err := s.Project(img)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		out.SetRow(i, coeffs)
	}
	return out, nil
}

// Reconstruct maps coefficients back to pixel space.
func (s *Subspace) Reconstruct(coeffs []float64) (*dataset.Gray, error) {
	if len(coeffs) != len(s.Vectors) {
		return nil, faceerr.InvalidArgument("pca.Reconstruct",
			fmt.Sprintf("expected %d coefficients, got %d", len(s.Vectors), len(coeffs)))
	}
	img := s.Mean.Clone()
	for k, v := range s.Vectors {
		floats.AddScaled(img.Pix, coeffs[k], v.Pix)
	}
	return img, nil
}
