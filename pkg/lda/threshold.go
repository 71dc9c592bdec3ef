package lda

import (
	"gonum.org/v1/gonum/mat"

	"github.com/MrCodeEU/fisherface/pkg/faceerr"
)

// SquaredDistance returns the squared Euclidean distance between a and b.
func SquaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// MahalanobisDistance returns sum((a_k-b_k)^2 / eigenvalues_k). Components
// with a non-positive eigenvalue are skipped.
func MahalanobisDistance(a, b, eigenvalues []float64) float64 {
	var sum float64
	for i := range a {
		if eigenvalues[i] <= 0 {
			continue
		}
		d := a[i] - b[i]
		sum += d * d / eigenvalues[i]
	}
	return sum
}

// EuclideanThreshold returns half the largest squared distance between any
// two rows of projections.
func EuclideanThreshold(projections mat.Matrix) float64 {
	return maxPairwise(projections, SquaredDistance) / 2
}

// PCAThresholds returns half the largest pairwise Euclidean and Mahalanobis
// distances over the rows of a PCA projected face matrix.
func PCAThresholds(projected mat.Matrix, eigenvalues []float64) (euclidean, mahalanobis float64, err error) {
	if _, c := projected.Dims(); c != len(eigenvalues) {
		return 0, 0, faceerr.InvalidArgument("lda.PCAThresholds", "eigenvalue count does not match projection width")
	}
	euclidean = maxPairwise(projected, SquaredDistance) / 2
	mahalanobis = maxPairwise(projected, func(a, b []float64) float64 {
		return MahalanobisDistance(a, b, eigenvalues)
	}) / 2
	return euclidean, mahalanobis, nil
}

func maxPairwise(m mat.Matrix, dist func(a, b []float64) float64) float64 {
	rows, _ := m.Dims()
	var best float64
	for i := 0; i < rows; i++ {
		a := mat.Row(nil, i, m)
		for j := i + 1; j < rows; j++ {
			if d := dist(a, mat.Row(nil, j, m)); d > best {
				best = d
			}
		}
	}
	return best
}
