package valueobjects

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	pkgerrors "edubba/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustContributor(t *testing.T, hash string) ModelContributor {
	t.Helper()
	c, err := NewModelContributor("DeepSeek-R1-Full", RoleProposer, 0.99, hash)
	require.NoError(t, err)
	return c
}

func mustProvenance(t *testing.T, method ConsensusMethod, score float64, hashes ...string) ConsensusProvenance {
	t.Helper()
	contributors := make([]ModelContributor, 0, len(hashes))
	for _, h := range hashes {
		contributors = append(contributors, mustContributor(t, h))
	}
	p, err := NewConsensusProvenance(method, contributors, score, nil, time.Time{})
	require.NoError(t, err)
	return p
}

func TestIntegrityHash_KnownDigests(t *testing.T) {
	tests := []struct {
		name   string
		method ConsensusMethod
		score  float64
		hashes []string
		want   string
	}{
		{
			name:   "single contributor",
			method: MethodUnanimous,
			score:  0.99,
			hashes: []string{strings.Repeat("a1b2c3d4", 8)},
			want:   "e2995fe89ee3a2b4ef3d9d0127f3e5290962e9c28290a781123f6f8194698b1a",
		},
		{
			name:   "two contributors in order",
			method: MethodUnanimous,
			score:  0.99,
			hashes: []string{strings.Repeat("a1b2c3d4", 8), strings.Repeat("e5f6g7h8", 8)},
			want:   "18640e72110b521381b82b60b8df8bb0a3fa997afae90197e7ceaebeec01bdaa",
		},
		{
			name:   "integral score keeps a fractional part",
			method: MethodUnanimous,
			score:  1,
			hashes: []string{strings.Repeat("a", 64)},
			want:   "2b910fec6db8f6a0b23a93fe6ab9c7aaa2fb42609bd6194b024b131919cb7fd6",
		},
		{
			name:   "method participates",
			method: MethodMajorityVote,
			score:  0.99,
			hashes: []string{strings.Repeat("a1b2c3d4", 8)},
			want:   "16d4b6beccb8f71de03ae4b043587e2d2c617348e484e0ab17833fb62d7dfc48",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustProvenance(t, tt.method, tt.score, tt.hashes...)
			got := p.IntegrityHash()
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, DigestLength)
			assert.Equal(t, got, p.IntegrityHash(), "recomputation must be identical")
		})
	}
}

func TestIntegrityHash_SensitiveToEveryInput(t *testing.T) {
	base := mustProvenance(t, MethodUnanimous, 0.99, strings.Repeat("a", 64), strings.Repeat("b", 64))
	digest := base.IntegrityHash()

	variants := map[string]ConsensusProvenance{
		"method": mustProvenance(t, MethodHumanOverride, 0.99, strings.Repeat("a", 64), strings.Repeat("b", 64)),
		"score":  mustProvenance(t, MethodUnanimous, 0.98, strings.Repeat("a", 64), strings.Repeat("b", 64)),
		"order":  mustProvenance(t, MethodUnanimous, 0.99, strings.Repeat("b", 64), strings.Repeat("a", 64)),
		"hash":   mustProvenance(t, MethodUnanimous, 0.99, strings.Repeat("a", 64), strings.Repeat("c", 64)),
		"count":  mustProvenance(t, MethodUnanimous, 0.99, strings.Repeat("a", 64)),
	}

	for name, p := range variants {
		t.Run(name, func(t *testing.T) {
			assert.NotEqual(t, digest, p.IntegrityHash())
		})
	}
}

func TestIntegrityHash_IgnoresNonHashedFields(t *testing.T) {
	notes := "critic disagreed on scope"
	a := mustProvenance(t, MethodUnanimous, 0.5, strings.Repeat("a", 64))
	b := a.Clone()
	b.DissentNotes = &notes
	b.EstablishedAt = a.EstablishedAt.Add(time.Hour)
	b.Contributors[0].Model = "Llama-3-70B"
	b.Contributors[0].Confidence = 0.1

	assert.Equal(t, a.IntegrityHash(), b.IntegrityHash())
}

func TestCanonicalDecimal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{1, "1.0"},
		{0.99, "0.99"},
		{0.5, "0.5"},
		{0.1 + 0.2, "0.30000000000000004"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{0.000015, "1.5e-05"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalDecimal(tt.in))
		})
	}
}

func TestNewModelContributor_Constraints(t *testing.T) {
	tests := []struct {
		name       string
		role       ContributorRole
		confidence float64
		hash       string
		field      string
		constraint string
	}{
		{"short hash", RoleCritic, 0.5, "abc", "contribution_hash", "len"},
		{"long hash", RoleCritic, 0.5, strings.Repeat("a", 65), "contribution_hash", "len"},
		{"confidence above one", RoleCritic, 1.5, strings.Repeat("a", 64), "confidence", "lte"},
		{"negative confidence", RoleCritic, -0.1, strings.Repeat("a", 64), "confidence", "gte"},
		{"unknown role", ContributorRole("judge"), 0.5, strings.Repeat("a", 64), "role", "enum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModelContributor("x", tt.role, tt.confidence, tt.hash)
			require.Error(t, err)

			var fieldErr *pkgerrors.FieldConstraintError
			require.True(t, errors.As(err, &fieldErr))
			assert.Equal(t, tt.field, fieldErr.Field)
			assert.Equal(t, tt.constraint, fieldErr.Constraint)
		})
	}
}

func TestNewModelContributor_HashReportedByLength(t *testing.T) {
	_, err := NewModelContributor("x", RoleProposer, 0.5, "secret")

	var fieldErr *pkgerrors.FieldConstraintError
	require.True(t, errors.As(err, &fieldErr))
	assert.True(t, fieldErr.LengthOnly)
	assert.Equal(t, 6, fieldErr.Value)
	assert.NotContains(t, err.Error(), "secret")
}

func TestNewConsensusProvenance_RequiresContributors(t *testing.T) {
	_, err := NewConsensusProvenance(MethodUnanimous, nil, 0.9, nil, time.Time{})
	require.Error(t, err)

	var fieldErr *pkgerrors.FieldConstraintError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "contributors", fieldErr.Field)
	assert.Equal(t, "min", fieldErr.Constraint)
}

func TestNewConsensusProvenance_ReportsNestedPath(t *testing.T) {
	contributors := []ModelContributor{
		mustContributor(t, strings.Repeat("a", 64)),
		{Model: "bad", Role: RoleCritic, Confidence: 0.2, ContributionHash: "short"},
	}
	_, err := NewConsensusProvenance(MethodUnanimous, contributors, 0.9, nil, time.Time{})

	var fieldErr *pkgerrors.FieldConstraintError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "contributors[1].contribution_hash", fieldErr.Field)
}

func TestConsensusProvenance_JSON(t *testing.T) {
	p := mustProvenance(t, MethodUnanimous, 0.99, strings.Repeat("a1b2c3d4", 8))

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, p.IntegrityHash(), raw["integrity_hash"])
	assert.Equal(t, "unanimous", raw["method"])
	assert.Nil(t, raw["dissent_notes"])

	// A forged integrity_hash on input is ignored.
	raw["integrity_hash"] = strings.Repeat("0", 64)
	forged, err := json.Marshal(raw)
	require.NoError(t, err)

	var decoded ConsensusProvenance
	require.NoError(t, json.Unmarshal(forged, &decoded))
	assert.Equal(t, p.IntegrityHash(), decoded.IntegrityHash())
}
