package queries

import (
	"edubba/application/ports"
	pkgerrors "edubba/pkg/errors"
)

// ListMemoryNodesQuery represents a query to list nodes matching a filter
type ListMemoryNodesQuery struct {
	Filter ports.NodeFilter
}

// Validate validates the query
func (q ListMemoryNodesQuery) Validate() error {
	verrs := pkgerrors.NewValidationErrors()
	f := q.Filter
	if f.Limit < 0 {
		verrs.Add(&pkgerrors.FieldConstraintError{Field: "limit", Constraint: "gte", Param: "0", Value: f.Limit})
	}
	if f.MinDissonance != nil && (*f.MinDissonance < 0 || *f.MinDissonance > 1) {
		verrs.Add(&pkgerrors.FieldConstraintError{Field: "min_dissonance", Constraint: "lte", Param: "1", Value: *f.MinDissonance})
	}
	if f.MinProficiency != nil && (*f.MinProficiency < 0 || *f.MinProficiency > 1) {
		verrs.Add(&pkgerrors.FieldConstraintError{Field: "min_proficiency", Constraint: "lte", Param: "1", Value: *f.MinProficiency})
	}
	if f.Domain != "" && !f.Domain.IsValid() {
		verrs.Add(&pkgerrors.FieldConstraintError{Field: "domain", Constraint: "enum", Value: f.Domain})
	}
	if f.Classification != "" && !f.Classification.IsValid() {
		verrs.Add(&pkgerrors.FieldConstraintError{Field: "classification", Constraint: "enum", Value: f.Classification})
	}
	if f.Type != "" && !f.Type.IsValid() {
		verrs.Add(&pkgerrors.FieldConstraintError{Field: "type", Constraint: "enum", Value: f.Type})
	}
	return verrs.ErrorOrNil()
}

// ListMemoryNodesResult represents one page of nodes
type ListMemoryNodesResult struct {
	Nodes      []NodeView `json:"nodes"`
	Count      int        `json:"count"`
	NextCursor string     `json:"next_cursor,omitempty"`
}
