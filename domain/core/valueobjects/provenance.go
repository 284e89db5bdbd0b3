package valueobjects

import (
	"encoding/hex"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"edubba/pkg/utils"

	"golang.org/x/crypto/sha3"
)

// DigestLength is the hex length of a 256-bit digest.
const DigestLength = 64

// ModelContributor records one agent's participation in a consensus event.
type ModelContributor struct {
	Model            string          `json:"model" validate:"required"`
	Role             ContributorRole `json:"role" validate:"enum"`
	Confidence       float64         `json:"confidence" validate:"gte=0,lte=1"`
	ContributionHash string          `json:"contribution_hash" validate:"len=64"`
}

// NewModelContributor builds a validated contributor.
func NewModelContributor(model string, role ContributorRole, confidence float64, contributionHash string) (ModelContributor, error) {
	c := ModelContributor{
		Model:            model,
		Role:             role,
		Confidence:       confidence,
		ContributionHash: contributionHash,
	}
	if err := utils.ValidateStruct(c); err != nil {
		return ModelContributor{}, err
	}
	return c, nil
}

// ConsensusProvenance is the audit trail of how a node's content was agreed.
type ConsensusProvenance struct {
	Method         ConsensusMethod    `json:"method" validate:"enum"`
	Contributors   []ModelContributor `json:"contributors" validate:"min=1,dive"`
	ConsensusScore float64            `json:"consensus_score" validate:"gte=0,lte=1"`
	DissentNotes   *string            `json:"dissent_notes"`
	EstablishedAt  time.Time          `json:"established_at"`
}

// NewConsensusProvenance builds a validated provenance record. A zero
// establishedAt is replaced with the current UTC time.
func NewConsensusProvenance(method ConsensusMethod, contributors []ModelContributor, score float64, dissentNotes *string, establishedAt time.Time) (ConsensusProvenance, error) {
	if establishedAt.IsZero() {
		establishedAt = utils.NowUTC()
	}
	p := ConsensusProvenance{
		Method:         method,
		Contributors:   append([]ModelContributor(nil), contributors...),
		ConsensusScore: score,
		DissentNotes:   copyString(dissentNotes),
		EstablishedAt:  establishedAt.UTC(),
	}
	if err := utils.ValidateStruct(p); err != nil {
		return ConsensusProvenance{}, err
	}
	return p, nil
}

// IntegrityHash is the lowercase hex SHA3-256 digest of the method, the
// canonical decimal form of the consensus score and every contribution
// hash in contributor order. It is recomputed on each call.
func (p ConsensusProvenance) IntegrityHash() string {
	var b strings.Builder
	b.WriteString(string(p.Method))
	b.WriteString(CanonicalDecimal(p.ConsensusScore))
	for _, c := range p.Contributors {
		b.WriteString(c.ContributionHash)
	}

	sum := sha3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Clone returns a deep copy.
func (p ConsensusProvenance) Clone() ConsensusProvenance {
	clone := p
	clone.Contributors = append([]ModelContributor(nil), p.Contributors...)
	clone.DissentNotes = copyString(p.DissentNotes)
	return clone
}

type provenanceAlias ConsensusProvenance

// MarshalJSON adds the read-only integrity_hash to the serialized form.
func (p ConsensusProvenance) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		provenanceAlias
		IntegrityHash string `json:"integrity_hash"`
	}{
		provenanceAlias: provenanceAlias(p),
		IntegrityHash:   p.IntegrityHash(),
	})
}

// UnmarshalJSON reads the provenance fields and ignores integrity_hash,
// which is always derived.
func (p *ConsensusProvenance) UnmarshalJSON(data []byte) error {
	var alias provenanceAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*p = ConsensusProvenance(alias)
	return nil
}

// CanonicalDecimal renders f as the shortest decimal that round-trips,
// keeping a fractional part for integral values ("1.0", "0.99") and
// switching to exponent form outside [1e-4, 1e16) ("1e-05").
func CanonicalDecimal(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
