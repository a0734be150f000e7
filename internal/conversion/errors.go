package conversion

import (
	"errors"
	"fmt"
)

// ErrConversionFailed matches every error returned by a Converter.
var ErrConversionFailed = errors.New("conversion failed")

// Kind classifies a conversion failure.
type Kind int

const (
	// KindCanvas means a drawing surface could not be created or drawn on.
	KindCanvas Kind = iota + 1
	// KindEncoding means image encoding or archive writing failed.
	KindEncoding
	// KindInput means the scan or rotation cannot be projected.
	KindInput
)

func (k Kind) String() string {
	switch k {
	case KindCanvas:
		return "canvas"
	case KindEncoding:
		return "encoding"
	case KindInput:
		return "input"
	default:
		return "unknown"
	}
}

// Error is the single failure type of the conversion pipeline.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("conversion failed: %s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == ErrConversionFailed
}

func canvasError(op string, err error) error {
	return &Error{Kind: KindCanvas, Op: op, Err: err}
}

func inputError(op string, err error) error {
	return &Error{Kind: KindInput, Op: op, Err: err}
}

func encodingError(op string, err error) error {
	return &Error{Kind: KindEncoding, Op: op, Err: err}
}

// KindOf returns the kind of a conversion error, or 0 if err is not one.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}
