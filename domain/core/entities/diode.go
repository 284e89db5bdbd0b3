package entities

import (
	"fmt"
	"strings"

	"edubba/domain/core/valueobjects"

	"github.com/google/uuid"
)

// FormatDiodePacket renders the one-way audit line for a restricted node.
// Dissonance is printed with two decimals.
func FormatDiodePacket(integrityHash string, id uuid.UUID, domains []valueobjects.KnowledgeDomain, dissonance float64) string {
	names := make([]string, len(domains))
	for i, d := range domains {
		names[i] = string(d)
	}
	return fmt.Sprintf("SHA:%s|ID:%s|DOM:%s|DISS:%.2f", integrityHash, id, strings.Join(names, ","), dissonance)
}

// DiodePacket returns the audit packet and true for restricted nodes, and
// false for everything else. A node without latent context reports 0.00.
func (n *MemoryNode) DiodePacket() (string, bool) {
	if n.fields.Classification != valueobjects.Restricted {
		return "", false
	}

	dissonance := 0.0
	if n.fields.LatentContext != nil {
		dissonance = n.fields.LatentContext.DissonanceScore
	}
	return FormatDiodePacket(n.IntegrityHash(), n.fields.ID, n.fields.Domains, dissonance), true
}
