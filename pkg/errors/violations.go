package errors

import "fmt"

// SecurityGateMessage is matched verbatim by callers and audit tooling.
const SecurityGateMessage = "RESTRICTED classification requires artifact pointer"

// FieldConstraintError reports a single field that violates its local
// constraint. Value holds the offending value, or its length when the
// field is a digest or a sequence.
type FieldConstraintError struct {
	Field      string
	Constraint string
	Param      string
	Value      interface{}
	// LengthOnly marks Value as a length rather than the raw value.
	LengthOnly bool
}

func (e *FieldConstraintError) Error() string {
	got := fmt.Sprintf("got %v", e.Value)
	if e.LengthOnly {
		got = fmt.Sprintf("got length %v", e.Value)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.describe(), got)
}

func (e *FieldConstraintError) describe() string {
	switch e.Constraint {
	case "required":
		return "is required"
	case "len":
		return fmt.Sprintf("length must be exactly %s", e.Param)
	case "min":
		return fmt.Sprintf("length must be at least %s", e.Param)
	case "max":
		return fmt.Sprintf("length must be at most %s", e.Param)
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param)
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param)
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param)
	case "pattern":
		return fmt.Sprintf("must match pattern %s", e.Param)
	case "enum":
		return "is not a recognised value"
	case "uuid":
		return "must be a canonical UUID"
	case "hexadecimal":
		return "must be a hexadecimal digest"
	case "edge_limit":
		return fmt.Sprintf("must contain at most %s edges", e.Param)
	default:
		return fmt.Sprintf("violates constraint %q", e.Constraint)
	}
}

func (e *FieldConstraintError) code() string {
	switch e.Constraint {
	case "hexadecimal":
		return CodeDigestFormat
	case "edge_limit":
		return CodeEdgeLimit
	default:
		return CodeFieldConstraint
	}
}

// EmbeddingDimensionError reports an embedding whose length does not match
// the registered dimension of a known model, or falls below the floor for
// an unknown one. Expected is the exact dimension or the floor.
type EmbeddingDimensionError struct {
	Model      string
	Expected   int
	Actual     int
	KnownModel bool
}

func (e *EmbeddingDimensionError) Error() string {
	if e.KnownModel {
		return fmt.Sprintf("Embedding dimension mismatch for model '%s'. Expected %d, got %d.",
			e.Model, e.Expected, e.Actual)
	}
	return fmt.Sprintf("Embedding length %d is too short for a valid vector.", e.Actual)
}

// SecurityGateError reports a RESTRICTED node without an artifact pointer.
type SecurityGateError struct{}

func (e *SecurityGateError) Error() string {
	return SecurityGateMessage
}
