package validators

import (
	"fmt"
	"strconv"

	"edubba/domain/config"
	"edubba/domain/core/valueobjects"
	"edubba/pkg/errors"
)

// Subject is the cross-field view of a candidate memory node. Field-level
// constraints have been checked by the time rules see it.
type Subject struct {
	Classification valueobjects.DataClassification
	Artifact       *valueobjects.ArtifactPointer
	Embedding      []float64
	EmbeddingModel string
	Contributors   []valueobjects.ModelContributor
	EdgeCount      int
}

// Rule checks one invariant spanning several fields. It returns nil or a
// typed violation.
type Rule func(Subject) error

type namedRule struct {
	name string
	rule Rule
}

// NodeValidator runs a fixed, ordered list of rules over a Subject.
type NodeValidator struct {
	rules    []namedRule
	failFast bool
}

// NewNodeValidator builds the rule pipeline described by cfg.
func NewNodeValidator(cfg *config.DomainConfig) *NodeValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	v := &NodeValidator{failFast: cfg.FailFast}
	v.add("embedding_dimension", EmbeddingDimensionRule(cfg.Embeddings, cfg.MinUnknownEmbeddingLength))
	v.add("restricted_access", RestrictedAccessRule())
	if cfg.StrictDigests {
		v.add("digest_format", DigestFormatRule())
	}
	if cfg.MaxEdgesPerNode > 0 {
		v.add("edge_limit", EdgeLimitRule(cfg.MaxEdgesPerNode))
	}
	return v
}

func (v *NodeValidator) add(name string, rule Rule) {
	v.rules = append(v.rules, namedRule{name: name, rule: rule})
}

// Rules lists the rule names in execution order.
func (v *NodeValidator) Rules() []string {
	names := make([]string, len(v.rules))
	for i, r := range v.rules {
		names[i] = r.name
	}
	return names
}

// Validate runs every rule and returns the aggregated violations, or the
// first one when the validator is fail-fast.
func (v *NodeValidator) Validate(s Subject) error {
	violations := errors.NewValidationErrors()
	for _, r := range v.rules {
		if err := r.rule(s); err != nil {
			violations.Add(err)
			if v.failFast {
				break
			}
		}
	}
	return violations.ErrorOrNil()
}

// EmbeddingDimensionRule requires the exact registered length for known
// models and at least floor values for unknown ones.
func EmbeddingDimensionRule(registry *config.EmbeddingRegistry, floor int) Rule {
	return func(s Subject) error {
		actual := len(s.Embedding)
		if expected, known := registry.Dimension(s.EmbeddingModel); known {
			if actual != expected {
				return &errors.EmbeddingDimensionError{
					Model:      s.EmbeddingModel,
					Expected:   expected,
					Actual:     actual,
					KnownModel: true,
				}
			}
			return nil
		}
		if actual < floor {
			return &errors.EmbeddingDimensionError{
				Model:    s.EmbeddingModel,
				Expected: floor,
				Actual:   actual,
			}
		}
		return nil
	}
}

// RestrictedAccessRule requires an artifact pointer on restricted nodes.
func RestrictedAccessRule() Rule {
	return func(s Subject) error {
		if s.Classification == valueobjects.Restricted && s.Artifact == nil {
			return &errors.SecurityGateError{}
		}
		return nil
	}
}

// DigestFormatRule requires contribution hashes and the artifact checksum
// to be hexadecimal.
func DigestFormatRule() Rule {
	return func(s Subject) error {
		violations := errors.NewValidationErrors()
		for i, c := range s.Contributors {
			if !isHex(c.ContributionHash) {
				violations.Add(&errors.FieldConstraintError{
					Field:      fmt.Sprintf("provenance.contributors[%d].contribution_hash", i),
					Constraint: "hexadecimal",
					Value:      len(c.ContributionHash),
					LengthOnly: true,
				})
			}
		}
		if s.Artifact != nil && !isHex(s.Artifact.Checksum) {
			violations.Add(&errors.FieldConstraintError{
				Field:      "artifact.checksum",
				Constraint: "hexadecimal",
				Value:      len(s.Artifact.Checksum),
				LengthOnly: true,
			})
		}
		return violations.ErrorOrNil()
	}
}

// EdgeLimitRule caps the number of outgoing edges.
func EdgeLimitRule(limit int) Rule {
	return func(s Subject) error {
		if s.EdgeCount > limit {
			return &errors.FieldConstraintError{
				Field:      "edges",
				Constraint: "edge_limit",
				Param:      strconv.Itoa(limit),
				Value:      s.EdgeCount,
				LengthOnly: true,
			}
		}
		return nil
	}
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
