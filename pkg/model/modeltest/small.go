// Package modeltest provides a small hand-computed model for tests.
package modeltest

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/MrCodeEU/fisherface/pkg/dataset"
	"github.com/MrCodeEU/fisherface/pkg/model"
)

// Small returns a valid model over 2×1 images with three classes.
//
// The eigenfaces are the pixel axes and the mean image is (10, 20), so a
// probe with pixels (x, y) has PCA coefficients (x-10, y-20). The Fisher
// projection is the identity, placing the class centroids at (0,0), (3,4)
// and (6,0); the Euclidean threshold is therefore 18.
func Small() *model.Model {
	return &model.Model{
		ModelID:     "7d0c1f8e-0000-4000-8000-000000000001",
		CreatedAt:   time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		ImagePaths:  []string{"a/1.png", "a/2.png", "b/1.png", "c/1.png", "c/2.png"},
		ClassIDs:    []int{1, 1, 2, 3, 3},
		Classes:     []int{1, 2, 3},
		PersonNames: []string{"alice", "bob", "carol"},

		AverageImage: &dataset.Gray{Width: 2, Height: 1, Pix: []float64{10, 20}},
		EigenVectors: []*dataset.Gray{
			{Width: 2, Height: 1, Pix: []float64{1, 0}},
			{Width: 2, Height: 1, Pix: []float64{0, 1}},
		},
		EigenValues: []float64{0.75, 0.25},

		ProjectedFaces: mat.NewDense(5, 2, []float64{
			-1, 0,
			1, 0,
			3, 4,
			6, -1,
			6, 1,
		}),
		AverageProjected: []float64{3, 0.8},

		LDAVectors: mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
		LDAValues:  []float64{2, 1},
		ClassProjections: mat.NewDense(3, 2, []float64{
			0, 0,
			3, 4,
			6, 0,
		}),

		EuclideanThreshold:    18,
		PCAEuclideanThreshold: 25,
		MahalanobisThreshold:  56,
	}
}

// Probe returns the 2×1 image whose PCA coefficients are (a, b).
func Probe(a, b float64) *dataset.Gray {
	return &dataset.Gray{Width: 2, Height: 1, Pix: []float64{a + 10, b + 20}}
}
