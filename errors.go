package dynvec

import (
	"errors"
	"fmt"

	"github.com/hupe1980/dynvec/internal/rawblock"
)

var (
	// ErrOutOfMemory is returned when a block could not be allocated, either
	// because the memory budget refused it or because its size is not
	// representable. The array is left unchanged.
	ErrOutOfMemory = rawblock.ErrOutOfMemory

	// ErrNotCopyable is returned by FuncOps.Copy and FuncOps.Assign when
	// NoCopy is set.
	ErrNotCopyable = errors.New("element type is not copyable")
)

// ElementError reports a failed element operation (construct, copy, assign,
// move or move_assign) at a slot index.
//
// The error returned by Ops can be accessed via errors.Unwrap.
type ElementError struct {
	Op    string
	Index int
	cause error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("%s element %d: %v", e.Op, e.Index, e.cause)
}

func (e *ElementError) Unwrap() error { return e.cause }

func elementError(op string, index int, err error) error {
	return &ElementError{Op: op, Index: index, cause: err}
}
