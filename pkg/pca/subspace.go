// Package pca builds the principal component subspace of a set of training
// faces and projects images onto it.
//
// Build uses the snapshot method: the eigenvectors of the nImages×nImages
// Gram matrix of centered images are mapped back to pixel space, which avoids
// decomposing the pixels×pixels covariance matrix.
package pca

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/MrCodeEU/fisherface/pkg/dataset"
	"github.com/MrCodeEU/fisherface/pkg/faceerr"
	"github.com/MrCodeEU/fisherface/pkg/linalg"
	"github.com/MrCodeEU/fisherface/pkg/logging"
)

// zeroNorm is the relative size below which a back-projected eigenvector is
// treated as zero.
const zeroNorm = 1e-6

// Subspace is a trained PCA model.
type Subspace struct {
	Width  int
	Height int
	Mean   *dataset.Gray
	// Vectors are unit-length eigenfaces, strongest first.
	Vectors []*dataset.Gray
	// Values are the matching eigenvalues, normalized to sum to 1.
	Values []float64
}

// Len returns the number of components.
func (s *Subspace) Len() int {
	return len(s.Vectors)
}

// Build computes the mean image and the nEigenVals strongest eigenfaces of
// images. It needs at least two images and 1 <= nEigenVals <= len(images)-1.
func Build(backend linalg.Backend, images []*dataset.Gray, nEigenVals int) (*Subspace, error) {
	const op = "pca.Build"
	log := logging.Component("pca")

	n := len(images)
	if n < 2 {
		return nil, faceerr.InvalidArgument(op, fmt.Sprintf("need at least 2 images, got %d", n))
	}
	if nEigenVals < 1 || nEigenVals > n-1 {
		return nil, faceerr.InvalidArgument(op,
			fmt.Sprintf("eigenvalue count %d outside [1, %d]", nEigenVals, n-1))
	}

	w, h := images[0].Width, images[0].Height
	d := w * h
	if d == 0 || len(images[0].Pix) != d {
		return nil, faceerr.New(faceerr.KindAllocation, op,
			fmt.Sprintf("cannot allocate buffers for %dx%d images", w, h))
	}
	for i, img := range images[1:] {
		if !img.SameSize(images[0]) {
			return nil, faceerr.DimensionMismatch(op,
				fmt.Sprintf("image %d differs in size", i+1), images[0].Dims(), img.Dims())
		}
	}

	mean := dataset.NewGray(w, h)
	for _, img := range images {
		floats.Add(mean.Pix, img.Pix)
	}
	floats.Scale(1/float64(n), mean.Pix)

	centered := mat.NewDense(n, d, nil)
	row := make([]float64, d)
	for i, img := range images {
		floats.SubTo(row, img.Pix, mean.Pix)
		centered.SetRow(i, row)
	}

	gram, err := backend.MatMul(centered, centered.T())
	if err != nil {
		return nil, fmt.Errorf("%s: gram matrix: %w", op, err)
	}
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, (gram.At(i, j)+gram.At(j, i))/2)
		}
	}

	values, vectors, err := backend.EigenSym(sym)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	scale := math.Sqrt(math.Abs(values[0]))
	s := &Subspace{
		Width:   w,
		Height:  h,
		Mean:    mean,
		Vectors: make([]*dataset.Gray, nEigenVals),
		Values:  make([]float64, nEigenVals),
	}
	coeffs := make([]float64, n)
	for k := 0; k < nEigenVals; k++ {
		mat.Col(coeffs, k, vectors)
		face := dataset.NewGray(w, h)
		for i := 0; i < n; i++ {
			floats.AddScaled(face.Pix, coeffs[i], centered.RawRowView(i))
		}

		norm := floats.Norm(face.Pix, 2)
		if norm == 0 || norm <= zeroNorm*scale {
			// Rank below nEigenVals leaves the within-class scatter singular.
			return nil, faceerr.New(faceerr.KindSingularMatrix, op,
				fmt.Sprintf("eigenvector %d has zero norm; training images are linearly dependent", k))
		}
		floats.Scale(1/norm, face.Pix)

		s.Vectors[k] = face
		s.Values[k] = math.Max(values[k], 0)
	}

	if sum := floats.Sum(s.Values); sum > 0 {
		floats.Scale(1/sum, s.Values)
	}

	log.WithFields(logging.Fields{
		"images":     n,
		"components": nEigenVals,
		"size":       fmt.Sprintf("%dx%d", w, h),
	}).Info("PCA subspace built")
	return s, nil
}
