package common

import (
	"net/http"
	"strconv"

	pkgerrors "edubba/pkg/errors"
)

// PageParams are the cursor paging parameters of a list request
type PageParams struct {
	Limit  int
	Cursor string
}

// ExtractPageParams reads ?limit= and ?cursor= from the request. A missing
// limit is zero, leaving the default to the repository.
func ExtractPageParams(r *http.Request) (PageParams, error) {
	params := PageParams{Cursor: r.URL.Query().Get("cursor")}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return PageParams{}, pkgerrors.NewValidationError("limit must be a non-negative integer").
				WithDetail("field", "limit")
		}
		params.Limit = n
	}
	return params, nil
}

// ExtractFloatParam reads an optional float query parameter.
func ExtractFloatParam(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, pkgerrors.NewValidationError(name + " must be a number").WithDetail("field", name)
	}
	return &f, nil
}
