// Package lda computes the Fisher linear discriminant on top of a PCA
// projection: class scatter matrices, the Fisher projection and the
// rejection thresholds used at recognition time.
package lda

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/MrCodeEU/fisherface/pkg/dataset"
	"github.com/MrCodeEU/fisherface/pkg/faceerr"
	"github.com/MrCodeEU/fisherface/pkg/linalg"
	"github.com/MrCodeEU/fisherface/pkg/logging"
)

// Scatter holds the class statistics of a projected training set.
type Scatter struct {
	Within        *mat.Dense
	WithinInverse *mat.Dense
	Between       *mat.Dense
	// ClassMeans has one row per class in ascending class id order.
	ClassMeans *mat.Dense
	GlobalMean []float64
}

// ComputeScatter builds the within- and between-class scatter of projected,
// whose rows are grouped by groups.
func ComputeScatter(backend linalg.Backend, projected *mat.Dense, groups *dataset.ClassGroup) (*Scatter, error) {
	const op = "lda.ComputeScatter"
	log := logging.Component("lda")

	rows, dim := projected.Dims()
	ids := groups.IDs()
	if len(ids) == 0 {
		return nil, faceerr.InvalidArgument(op, "no classes")
	}
	for _, id := range ids {
		for _, r := range groups.Rows(id) {
			if r < 0 || r >= rows {
				return nil, faceerr.InvalidArgument(op,
					fmt.Sprintf("class %d refers to row %d, projected matrix has %d rows", id, r, rows))
			}
		}
	}

	global := make([]float64, dim)
	for r := 0; r < rows; r++ {
		floats.Add(global, projected.RawRowView(r))
	}
	floats.Scale(1/float64(rows), global)

	within := mat.NewDense(dim, dim, nil)
	between := mat.NewDense(dim, dim, nil)
	means := mat.NewDense(len(ids), dim, nil)

	diff := mat.NewVecDense(dim, nil)
	var outer mat.Dense
	for c, id := range ids {
		members := groups.Rows(id)
		n := float64(len(members))

		mean := make([]float64, dim)
		for _, r := range members {
			floats.Add(mean, projected.RawRowView(r))
		}
		floats.Scale(1/n, mean)
		means.SetRow(c, mean)

		classScatter := mat.NewDense(dim, dim, nil)
		for _, r := range members {
			floats.SubTo(diff.RawVector().Data, projected.RawRowView(r), mean)
			outer.Outer(1, diff, diff)
			classScatter.Add(classScatter, &outer)
		}
		classScatter.Scale(1/n, classScatter)
		within.Add(within, classScatter)

		floats.SubTo(diff.RawVector().Data, mean, global)
		outer.Outer(1/n, diff, diff)
		between.Add(between, &outer)
	}

	inverse, err := backend.Invert(within)
	if err != nil {
		return nil, faceerr.Wrap(faceerr.KindSingularMatrix, op, "within-class scatter is not invertible", err)
	}

	log.WithFields(logging.Fields{
		"classes":   len(ids),
		"dimension": dim,
	}).Debug("scatter matrices computed")

	return &Scatter{
		Within:        within,
		WithinInverse: inverse,
		Between:       between,
		ClassMeans:    means,
		GlobalMean:    global,
	}, nil
}
