// Package faceerr defines the typed errors shared by the training and
// recognition pipeline. Every failure carries a Kind plus structured context
// (operation, file path, line, expected/actual dimensions) instead of free text.
package faceerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a class of pipeline failure.
type Kind string

const (
	KindParse               Kind = "PARSE"
	KindResource            Kind = "RESOURCE"
	KindDimensionMismatch   Kind = "DIMENSION_MISMATCH"
	KindSingularMatrix      Kind = "SINGULAR_MATRIX"
	KindInsufficientClasses Kind = "INSUFFICIENT_CLASSES"
	KindInvalidArgument     Kind = "INVALID_ARGUMENT"
	KindCorruptModel        Kind = "CORRUPT_MODEL"
	KindAllocation          Kind = "ALLOCATION"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrParse               = errors.New("parse error")
	ErrResource            = errors.New("resource error")
	ErrDimensionMismatch   = errors.New("dimension mismatch")
	ErrSingularMatrix      = errors.New("singular matrix")
	ErrInsufficientClasses = errors.New("insufficient classes")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrCorruptModel        = errors.New("corrupt model")
	ErrAllocation          = errors.New("allocation error")
)

var sentinels = map[Kind]error{
	KindParse:               ErrParse,
	KindResource:            ErrResource,
	KindDimensionMismatch:   ErrDimensionMismatch,
	KindSingularMatrix:      ErrSingularMatrix,
	KindInsufficientClasses: ErrInsufficientClasses,
	KindInvalidArgument:     ErrInvalidArgument,
	KindCorruptModel:        ErrCorruptModel,
	KindAllocation:          ErrAllocation,
}

// Dims is a width×height (or rows×cols) pair.
type Dims struct {
	Width, Height int
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Error is a structured pipeline error.
type Error struct {
	Kind     Kind
	Op       string // operation that failed, e.g. "dataset.Load"
	Path     string // file involved, if any
	Line     int    // 1-based manifest line, if any
	Expected *Dims
	Actual   *Dims
	Msg      string
	Err      error // underlying cause
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Msg)
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s", e.Path)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
		b.WriteString(")")
	} else if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	if e.Expected != nil && e.Actual != nil {
		fmt.Fprintf(&b, ": expected %s, got %s", e.Expected, e.Actual)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// New creates an error of the given kind.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// WithPath sets the file path and returns e.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithLine sets the manifest line and returns e.
func (e *Error) WithLine(line int) *Error {
	e.Line = line
	return e
}

// WithDims records expected and actual dimensions and returns e.
func (e *Error) WithDims(expected, actual Dims) *Error {
	e.Expected = &expected
	e.Actual = &actual
	return e
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Parse returns a KindParse error.
func Parse(op, msg string) *Error { return New(KindParse, op, msg) }

// Resource returns a KindResource error wrapping err.
func Resource(op, msg string, err error) *Error { return Wrap(KindResource, op, msg, err) }

// DimensionMismatch returns a KindDimensionMismatch error.
func DimensionMismatch(op, msg string, expected, actual Dims) *Error {
	return New(KindDimensionMismatch, op, msg).WithDims(expected, actual)
}

// InvalidArgument returns a KindInvalidArgument error.
func InvalidArgument(op, msg string) *Error { return New(KindInvalidArgument, op, msg) }

// CorruptModel returns a KindCorruptModel error.
func CorruptModel(op, msg string) *Error { return New(KindCorruptModel, op, msg) }
