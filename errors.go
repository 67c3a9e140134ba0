package chutoro

import "github.com/liliang-cn/chutoro/pkg/chuterrors"

// Code is the stable symbolic error code surfaced for telemetry (§6.3/§7).
// It is a re-export of pkg/chuterrors.Code so that callers never need to
// import the internal errors package directly.
type Code = chuterrors.Code

// Error codes, grouped by the §7 taxonomy.
const (
	CodeEmptyDataset            = chuterrors.CodeEmptyDataset
	CodeInvalidMinClusterSize   = chuterrors.CodeInvalidMinClusterSize
	CodeInsufficientItems       = chuterrors.CodeInsufficientItems
	CodeOutOfRangeIndex         = chuterrors.CodeOutOfRangeIndex
	CodeNonFiniteDistance       = chuterrors.CodeNonFiniteDistance
	CodeNegativeDistance        = chuterrors.CodeNegativeDistance
	CodeDimensionMismatch       = chuterrors.CodeDimensionMismatch
	CodeZeroDimension           = chuterrors.CodeZeroDimension
	CodeMemoryBudgetExceeded    = chuterrors.CodeMemoryBudgetExceeded
	CodePoisonedLock            = chuterrors.CodePoisonedLock
	CodeDuplicateNode           = chuterrors.CodeDuplicateNode
	CodeInvalidGraphParams      = chuterrors.CodeInvalidGraphParams
	CodeGraphInvariantViolation = chuterrors.CodeGraphInvariantViolation
	CodeEmptyGraph              = chuterrors.CodeEmptyGraph
	CodeMSFEmptyGraph           = chuterrors.CodeMSFEmptyGraph
	CodeMSFInvalidEdge          = chuterrors.CodeMSFInvalidEdge
	CodeMSFNonFiniteWeight      = chuterrors.CodeMSFNonFiniteWeight
)

// Error is a re-export of pkg/chuterrors.Error.
type Error = chuterrors.Error

// CodeOf extracts the stable code from err, or "" if err carries none.
func CodeOf(err error) Code { return chuterrors.CodeOf(err) }
