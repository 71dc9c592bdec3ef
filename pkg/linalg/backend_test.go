package linalg

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const eps = 1e-9

func TestEigenSym_DescendingOrder(t *testing.T) {
	g := NewGonum()
	a := mat.NewSymDense(3, []float64{
		1, 0, 0,
		0, 3, 0,
		0, 0, 2,
	})

	values, vectors, err := g.EigenSym(a)
	if err != nil {
		t.Fatalf("EigenSym failed: %v", err)
	}

	want := []float64{3, 2, 1}
	for i, v := range want {
		if math.Abs(values[i]-v) > eps {
			t.Errorf("value %d: expected %f, got %f", i, v, values[i])
		}
	}

	// eigenvector for 3 is e2, for 2 is e3, for 1 is e1; signs are canonical
	wantVec := [][]float64{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}}
	for c, col := range wantVec {
		for r, v := range col {
			if math.Abs(vectors.At(r, c)-v) > eps {
				t.Errorf("vector %d component %d: expected %f, got %f", c, r, v, vectors.At(r, c))
			}
		}
	}
}

func TestSVD_LeftVectors(t *testing.T) {
	g := NewGonum()
	a := mat.NewDense(3, 3, []float64{
		4, 0, 0,
		0, -1, 0,
		0, 0, 0,
	})

	values, u, err := g.SVD(a)
	if err != nil {
		t.Fatalf("SVD failed: %v", err)
	}
	if math.Abs(values[0]-4) > eps || math.Abs(values[1]-1) > eps || math.Abs(values[2]) > eps {
		t.Errorf("unexpected singular values %v", values)
	}
	if math.Abs(u.At(0, 0)-1) > eps {
		t.Errorf("expected first left vector e1, got column %v", mat.Col(nil, 0, u))
	}
	if math.Abs(u.At(1, 1)-1) > eps {
		t.Errorf("expected second left vector e2 with positive sign, got column %v", mat.Col(nil, 1, u))
	}
}

func TestInvert(t *testing.T) {
	g := NewGonum()
	a := mat.NewDense(2, 2, []float64{4, 7, 2, 6})

	inv, err := g.Invert(a)
	if err != nil {
		t.Fatalf("Invert failed: %v", err)
	}
	want := []float64{0.6, -0.7, -0.2, 0.4}
	for i, v := range want {
		if got := inv.At(i/2, i%2); math.Abs(got-v) > eps {
			t.Errorf("element %d: expected %f, got %f", i, v, got)
		}
	}

	// the inverse must not alias the input
	inv.Set(0, 0, 100)
	if a.At(0, 0) != 4 {
		t.Error("Invert result shares storage with its input")
	}
}

func TestInvert_Singular(t *testing.T) {
	g := NewGonum()
	tests := []struct {
		name string
		a    *mat.Dense
	}{
		{"rank deficient", mat.NewDense(2, 2, []float64{1, 2, 2, 4})},
		{"zero", mat.NewDense(2, 2, nil)},
		{"ill conditioned", mat.NewDense(2, 2, []float64{1, 0, 0, 1e-14})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Invert(tt.a)
			if !errors.Is(err, ErrSingular) {
				t.Errorf("expected ErrSingular, got %v", err)
			}
		})
	}
}

func TestInvert_NonSquare(t *testing.T) {
	g := NewGonum()
	_, err := g.Invert(mat.NewDense(2, 3, nil))
	if !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape, got %v", err)
	}
}

func TestMatMul(t *testing.T) {
	g := NewGonum()
	a := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	b := mat.NewDense(3, 1, []float64{1, 0, -1})

	c, err := g.MatMul(a, b)
	if err != nil {
		t.Fatalf("MatMul failed: %v", err)
	}
	if c.At(0, 0) != -2 || c.At(1, 0) != -2 {
		t.Errorf("unexpected product %v", mat.Formatted(c))
	}

	if _, err := g.MatMul(a, a); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape for 2x3 * 2x3, got %v", err)
	}
}

func TestTranspose(t *testing.T) {
	g := NewGonum()
	a := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})

	at := g.Transpose(a)
	r, c := at.Dims()
	if r != 3 || c != 2 {
		t.Fatalf("expected 3x2, got %dx%d", r, c)
	}
	if at.At(2, 1) != 6 || at.At(0, 1) != 4 {
		t.Errorf("unexpected transpose %v", mat.Formatted(at))
	}
}

func TestCanonicalSign(t *testing.T) {
	v := []float64{0.1, -0.9, 0.2}
	canonicalSign(v)
	if v[1] != 0.9 || v[0] != -0.1 {
		t.Errorf("expected flipped vector, got %v", v)
	}
}
