package utils

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	pkgerrors "edubba/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var (
	validate = newValidator()

	patternsMu sync.RWMutex
	patterns   = make(map[string]string)
)

// enumerated is implemented by the closed string enumerations of the domain.
type enumerated interface {
	IsValid() bool
}

func newValidator() *validator.Validate {
	v := validator.New()

	// Report field paths using the JSON names callers see on the wire.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(enumerated)
		return ok && e.IsValid()
	}); err != nil {
		panic(err)
	}

	return v
}

// MustRegisterPattern registers a validation tag that matches string fields
// against re. Intended for package init; panics on a duplicate tag.
func MustRegisterPattern(tag string, re *regexp.Regexp) {
	patternsMu.Lock()
	defer patternsMu.Unlock()

	if _, exists := patterns[tag]; exists {
		panic("utils: pattern tag already registered: " + tag)
	}
	if err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	patterns[tag] = re.String()
}

// ValidateStruct validates s against its `validate` tags. Every failing
// field is reported as a FieldConstraintError inside one
// *errors.ValidationErrors; nil means s is valid.
func ValidateStruct(s interface{}) error {
	violations := FieldViolations(s)
	if len(violations) == 0 {
		return nil
	}

	verrs := pkgerrors.NewValidationErrors()
	for _, v := range violations {
		verrs.Add(v)
	}
	return verrs
}

// FieldViolations returns one FieldConstraintError per failing field of s.
func FieldViolations(s interface{}) []*pkgerrors.FieldConstraintError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []*pkgerrors.FieldConstraintError{{
			Field:      "general",
			Constraint: "invalid",
			Value:      err.Error(),
		}}
	}

	violations := make([]*pkgerrors.FieldConstraintError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, toFieldConstraint(fe))
	}
	return violations
}

func toFieldConstraint(fe validator.FieldError) *pkgerrors.FieldConstraintError {
	violation := &pkgerrors.FieldConstraintError{
		Field:      fieldPath(fe.Namespace()),
		Constraint: fe.Tag(),
		Param:      fe.Param(),
		Value:      fe.Value(),
	}

	patternsMu.RLock()
	pattern, isPattern := patterns[fe.Tag()]
	patternsMu.RUnlock()
	if isPattern {
		violation.Constraint = "pattern"
		violation.Param = pattern
	}

	switch fe.Tag() {
	case "len", "min", "max":
		switch fe.Kind() {
		case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
			violation.Value = reflect.ValueOf(fe.Value()).Len()
			violation.LengthOnly = true
		}
	}

	return violation
}

// fieldPath drops the root struct name from a validator namespace, so
// "NodeFields.provenance.contributors[0].contribution_hash" becomes
// "provenance.contributors[0].contribution_hash".
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}
