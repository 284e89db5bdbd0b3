package common

import (
	"context"
	"slices"
)

// Principal is the authenticated caller behind a request.
type Principal struct {
	Subject string
	Roles   []string
}

type principalKey struct{}

// WithPrincipal records the authenticated caller on ctx
func WithPrincipal(ctx context.Context, subject string, roles []string) context.Context {
	return context.WithValue(ctx, principalKey{}, Principal{Subject: subject, Roles: slices.Clone(roles)})
}

// PrincipalFrom returns the caller recorded on ctx, if any. Requests to
// unauthenticated deployments carry none.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// GetSubject extracts the authenticated subject from ctx
func GetSubject(ctx context.Context) (string, bool) {
	p, ok := PrincipalFrom(ctx)
	return p.Subject, ok
}

// HasRole checks if the caller has a specific role
func HasRole(ctx context.Context, role string) bool {
	p, _ := PrincipalFrom(ctx)
	return slices.Contains(p.Roles, role)
}
