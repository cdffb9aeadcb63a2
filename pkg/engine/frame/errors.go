package frame

import "github.com/pkg/errors"

var (
	// ErrIndexOutOfRange is returned when a requested column index falls
	// outside [0, NumCols()).
	ErrIndexOutOfRange = errors.New("column index out of range")

	// ErrInvalidUnwrap is returned by Unwrap on a blueprint frame.
	ErrInvalidUnwrap = errors.New("cannot unwrap a frame that is not materialized")

	// ErrOwnershipViolation means an in-place operation was requested on a
	// frame that has been marked shared. It is a bug in the caller.
	ErrOwnershipViolation = errors.New("in-place mutation of a shared frame")
)
