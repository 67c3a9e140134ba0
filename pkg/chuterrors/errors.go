// Package chuterrors defines the stable error taxonomy (§7) shared by
// every component package, so that pkg/distance, pkg/hpi, pkg/msf,
// pkg/hierarchy, pkg/preflight, and the root package can all produce and
// recognise the same typed errors without importing the root package
// (which would create an import cycle).
package chuterrors

import (
	"errors"
	"fmt"
)

// Code is a stable symbolic error code surfaced for telemetry (§6.3/§7).
type Code string

// Error codes, grouped by the §7 taxonomy.
const (
	// Input
	CodeEmptyDataset          Code = "EMPTY_DATASET"
	CodeInvalidMinClusterSize Code = "INVALID_MIN_CLUSTER_SIZE"
	CodeInsufficientItems     Code = "INSUFFICIENT_ITEMS"
	CodeOutOfRangeIndex       Code = "OUT_OF_RANGE_INDEX"
	CodeNonFiniteDistance     Code = "NON_FINITE_DISTANCE"
	CodeNegativeDistance      Code = "NEGATIVE_DISTANCE"
	CodeDimensionMismatch     Code = "DIMENSION_MISMATCH"
	CodeZeroDimension         Code = "ZERO_DIMENSION"

	// Resource
	CodeMemoryBudgetExceeded Code = "MEMORY_BUDGET_EXCEEDED"

	// Concurrency
	CodePoisonedLock Code = "POISONED_LOCK"

	// Graph
	CodeDuplicateNode           Code = "DUPLICATE_NODE"
	CodeInvalidGraphParams      Code = "INVALID_GRAPH_PARAMS"
	CodeGraphInvariantViolation Code = "GRAPH_INVARIANT_VIOLATION"
	CodeEmptyGraph              Code = "EMPTY_GRAPH"

	// MSF
	CodeMSFEmptyGraph      Code = "MSF_EMPTY_GRAPH"
	CodeMSFInvalidEdge     Code = "MSF_INVALID_EDGE"
	CodeMSFNonFiniteWeight Code = "MSF_NON_FINITE_WEIGHT"
)

// Error wraps an underlying error with a stable code and the operation
// that produced it, mirroring the teacher's StoreError{Op, Err} shape
// (sqvect's errors.go) but adding the Code field the §7 taxonomy requires.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("chutoro[%s]: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("chutoro[%s]: %s: %v", e.Code, e.Op, e.Err)
}

// Unwrap exposes the underlying error to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match another *Error by code.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return errors.Is(e.Err, target)
}

// Wrap builds a *Error with the given code, operation, and cause.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Err: err}
}

// New builds a *Error directly from a message, with no separate cause.
func New(code Code, op, msg string) error {
	return &Error{Code: code, Op: op, Err: errors.New(msg)}
}

// CodeOf extracts the stable code from err, or "" if err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Sentinel underlying causes, analogous to the teacher's package-level
// sentinel errors; wrapped with a code at the call site via Wrap.
var (
	ErrEmptyDataset            = errors.New("dataset is empty")
	ErrInsufficientItems       = errors.New("fewer items than min_cluster_size")
	ErrInvalidMinClusterSize   = errors.New("min_cluster_size must be >= 1")
	ErrOutOfBounds             = errors.New("item index out of bounds")
	ErrNonFinite               = errors.New("distance is not finite")
	ErrNegative                = errors.New("distance is negative")
	ErrDimensionMismatch       = errors.New("vector dimension mismatch")
	ErrZeroDimension           = errors.New("vector has zero dimension")
	ErrDuplicateNode           = errors.New("node already inserted")
	ErrGraphInvariantViolation = errors.New("graph invariant violated")
	ErrEmptyGraph              = errors.New("graph has no entry point")
	ErrPoisonedLock            = errors.New("internal lock poisoned")
	ErrMemoryBudgetExceeded    = errors.New("estimated memory exceeds configured budget")
	ErrInvalidGraphParams      = errors.New("invalid graph parameters")
)
