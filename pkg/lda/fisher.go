package lda

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/MrCodeEU/fisherface/pkg/faceerr"
	"github.com/MrCodeEU/fisherface/pkg/linalg"
	"github.com/MrCodeEU/fisherface/pkg/logging"
)

// Fisher is the discriminant projection from PCA space into Fisher space.
type Fisher struct {
	// Vectors holds one fisherface per row, nFisherFaces × nEigenVals.
	Vectors *mat.Dense
	Values  []float64
	// Projections holds each class mean in Fisher space, ascending class id.
	Projections *mat.Dense
}

// Len returns the number of fisherfaces.
func (f *Fisher) Len() int {
	r, _ := f.Vectors.Dims()
	return r
}

// ComputeFisher solves the discriminant problem for sc. It keeps
// nClasses-1 directions, which must be at least two.
func ComputeFisher(backend linalg.Backend, sc *Scatter, nClasses int) (*Fisher, error) {
	const op = "lda.ComputeFisher"
	log := logging.Component("lda")

	nFisher := nClasses - 1
	if nFisher < 2 {
		return nil, faceerr.New(faceerr.KindInsufficientClasses, op,
			fmt.Sprintf("need at least 3 classes for 2 fisherfaces, got %d", nClasses))
	}
	dim, _ := sc.Within.Dims()
	if nFisher > dim {
		return nil, faceerr.InvalidArgument(op,
			fmt.Sprintf("%d fisherfaces exceed the PCA dimension %d", nFisher, dim))
	}
	if means, _ := sc.ClassMeans.Dims(); means != nClasses {
		return nil, faceerr.InvalidArgument(op,
			fmt.Sprintf("scatter has %d class means, expected %d", means, nClasses))
	}

	m, err := backend.MatMul(sc.WithinInverse, sc.Between)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	values, u, err := backend.SVD(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	vectors := mat.NewDense(nFisher, dim, nil)
	col := make([]float64, dim)
	for k := 0; k < nFisher; k++ {
		mat.Col(col, k, u)
		vectors.SetRow(k, col)
	}

	f := &Fisher{
		Vectors: vectors,
		Values:  append([]float64(nil), values[:nFisher]...),
	}

	var projections mat.Dense
	projections.Mul(sc.ClassMeans, vectors.T())
	f.Projections = &projections

	log.WithFields(logging.Fields{
		"fisherfaces": nFisher,
		"values":      f.Values,
	}).Info("Fisher projection computed")
	return f, nil
}

// Project maps PCA coefficients into Fisher space.
func (f *Fisher) Project(pcaCoeffs []float64) ([]float64, error) {
	rows, dim := f.Vectors.Dims()
	if len(pcaCoeffs) != dim {
		return nil, faceerr.InvalidArgument("lda.Project",
			fmt.Sprintf("expected %d PCA coefficients, got %d", dim, len(pcaCoeffs)))
	}
	out := mat.NewVecDense(rows, nil)
	out.MulVec(f.Vectors, mat.NewVecDense(dim, pcaCoeffs))
	return out.RawVector().Data, nil
}
