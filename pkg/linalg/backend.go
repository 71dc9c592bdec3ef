// Package linalg provides the linear-algebra capability used by the Fisherface
// pipeline. The pipeline never calls a numeric library directly; it receives a
// Backend so tests can substitute a deterministic implementation.
package linalg

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a matrix cannot be inverted reliably.
var ErrSingular = errors.New("matrix is singular")

// ErrShape is returned when operand dimensions are incompatible.
var ErrShape = errors.New("incompatible matrix dimensions")

// ErrNoConvergence is returned when a factorization fails.
var ErrNoConvergence = errors.New("factorization did not converge")

// DefaultMaxCondition is the largest 2-norm condition number Invert accepts.
const DefaultMaxCondition = 1e12

// Backend is the set of primitives the pipeline needs.
type Backend interface {
	// EigenSym returns the eigenvalues of a symmetric matrix in descending
	// order and the matching unit eigenvectors as columns.
	EigenSym(a mat.Symmetric) ([]float64, *mat.Dense, error)

	// SVD returns the singular values of a in descending order and the left
	// singular vectors as columns.
	SVD(a mat.Matrix) ([]float64, *mat.Dense, error)

	MatMul(a, b mat.Matrix) (*mat.Dense, error)
	Invert(a mat.Matrix) (*mat.Dense, error)
	Transpose(a mat.Matrix) *mat.Dense
}

// Gonum implements Backend with gonum.org/v1/gonum/mat.
type Gonum struct {
	// MaxCondition bounds the condition number accepted by Invert.
	MaxCondition float64
}

// NewGonum returns a gonum backend with the default condition limit.
func NewGonum() *Gonum {
	return &Gonum{MaxCondition: DefaultMaxCondition}
}

// EigenSym implements Backend.
func (g *Gonum) EigenSym(a mat.Symmetric) ([]float64, *mat.Dense, error) {
	var es mat.EigenSym
	if ok := es.Factorize(a, true); !ok {
		return nil, nil, fmt.Errorf("eigen decomposition: %w", ErrNoConvergence)
	}
	values := es.Values(nil)
	var vectors mat.Dense
	es.VectorsTo(&vectors)

	// gonum returns ascending eigenvalues
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return values[order[i]] > values[order[j]]
	})

	n, _ := vectors.Dims()
	sorted := make([]float64, len(values))
	out := mat.NewDense(n, len(values), nil)
	for dst, src := range order {
		sorted[dst] = values[src]
		col := mat.Col(nil, src, &vectors)
		canonicalSign(col)
		out.SetCol(dst, col)
	}
	return sorted, out, nil
}

// SVD implements Backend.
func (g *Gonum) SVD(a mat.Matrix) ([]float64, *mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return nil, nil, fmt.Errorf("svd: %w", ErrNoConvergence)
	}
	values := svd.Values(nil)
	var u mat.Dense
	svd.UTo(&u)

	_, cols := u.Dims()
	for c := 0; c < cols; c++ {
		col := mat.Col(nil, c, &u)
		canonicalSign(col)
		u.SetCol(c, col)
	}
	return values, &u, nil
}

// MatMul implements Backend.
func (g *Gonum) MatMul(a, b mat.Matrix) (*mat.Dense, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != br {
		return nil, fmt.Errorf("multiply %dx%d by %dx%d: %w", ar, ac, br, bc, ErrShape)
	}
	var c mat.Dense
	c.Mul(a, b)
	return &c, nil
}

// Invert implements Backend. It fails with ErrSingular when the matrix is
// singular or its condition number exceeds MaxCondition.
func (g *Gonum) Invert(a mat.Matrix) (*mat.Dense, error) {
	r, c := a.Dims()
	if r != c {
		return nil, fmt.Errorf("invert %dx%d: %w", r, c, ErrShape)
	}
	if det := mat.Det(a); det == 0 || math.IsNaN(det) {
		return nil, fmt.Errorf("determinant is %g: %w", det, ErrSingular)
	}
	limit := g.MaxCondition
	if limit <= 0 {
		limit = DefaultMaxCondition
	}
	if cond := mat.Cond(a, 2); cond > limit || math.IsNaN(cond) {
		return nil, fmt.Errorf("condition number %g exceeds %g: %w", cond, limit, ErrSingular)
	}
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrSingular)
	}
	return &inv, nil
}

// Transpose implements Backend. The result does not share storage with a.
func (g *Gonum) Transpose(a mat.Matrix) *mat.Dense {
	return mat.DenseCopyOf(a.T())
}

// canonicalSign flips v so that its largest-magnitude component is positive.
// Eigenvectors are only defined up to sign; this makes results reproducible.
func canonicalSign(v []float64) {
	best := 0.0
	for _, x := range v {
		if math.Abs(x) > math.Abs(best) {
			best = x
		}
	}
	if best < 0 {
		for i := range v {
			v[i] = -v[i]
		}
	}
}
