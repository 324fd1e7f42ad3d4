package flann

import (
	"errors"
	"fmt"

	"github.com/hupe1980/flann-go/dataset"
	"github.com/hupe1980/flann-go/index"
)

// ErrInvalidArgument indicates a malformed constructor or search argument.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidArgument struct {
	Reason string
	cause  error
}

func (e *ErrInvalidArgument) Error() string { return fmt.Sprintf("flann: invalid argument: %s", e.Reason) }
func (e *ErrInvalidArgument) Unwrap() error  { return e.cause }

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("flann: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}
func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidK indicates a nonpositive k passed to a KNN query.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidK struct {
	K     int
	cause error
}

func (e *ErrInvalidK) Error() string { return fmt.Sprintf("flann: k must be positive, got %d", e.K) }
func (e *ErrInvalidK) Unwrap() error  { return e.cause }

// ErrUnsupportedAlgorithm indicates an algorithm name outside the
// recognized enumeration, or one registered but not implemented
// (e.g. "vptree").
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrUnsupportedAlgorithm struct {
	Algorithm string
	cause     error
}

func (e *ErrUnsupportedAlgorithm) Error() string {
	return fmt.Sprintf("flann: unsupported algorithm %q", e.Algorithm)
}
func (e *ErrUnsupportedAlgorithm) Unwrap() error { return e.cause }

// ErrInvalidHandle indicates an operation was attempted against a nil
// index handle (the Go analogue of FLANN's "querying a destroyed
// index").
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidHandle struct {
	Reason string
	cause  error
}

func (e *ErrInvalidHandle) Error() string { return fmt.Sprintf("flann: invalid handle: %s", e.Reason) }
func (e *ErrInvalidHandle) Unwrap() error { return e.cause }

// translateError wraps internal package errors into the root package's
// stable error types, so callers need not import internal packages to
// use errors.As against the boundary.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *index.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	var ik *index.ErrInvalidK
	if errors.As(err, &ik) {
		return &ErrInvalidK{K: ik.K, cause: err}
	}

	var ua *index.ErrUnsupportedAlgorithm
	if errors.As(err, &ua) {
		return &ErrUnsupportedAlgorithm{Algorithm: ua.Algorithm, cause: err}
	}

	var ia *index.ErrInvalidArgument
	if errors.As(err, &ia) {
		return &ErrInvalidArgument{Reason: ia.Reason, cause: err}
	}

	var da *dataset.ErrInvalidArgument
	if errors.As(err, &da) {
		return &ErrInvalidArgument{Reason: da.Reason, cause: err}
	}

	return err
}
