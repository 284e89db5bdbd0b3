package main

import (
	"fmt"
	"strings"
	"time"

	"edubba/domain/core/entities"
	"edubba/domain/core/valueobjects"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDemoCmd(opts *options) *cobra.Command {
	var nodeID, targetID string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Build the reference concept node",
		Long:  longDemo,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := optionalID(nodeID)
			if err != nil {
				return err
			}
			target, err := optionalID(targetID)
			if err != nil {
				return err
			}

			node, err := demoNode(opts, id, target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Edubba memory node initialized")
			fmt.Fprintf(out, "Node:             %s\n", node.ID())
			fmt.Fprintf(out, "Integrity hash:   %s\n", node.IntegrityHash())
			fmt.Fprintf(out, "Dissonance score: %s\n", valueobjects.CanonicalDecimal(node.LatentContext().DissonanceScore))
			fmt.Fprintf(out, "Edge count:       %d\n", len(node.Edges()))
			return nil
		},
	}

	cmd.Flags().StringVar(&nodeID, "id", "", "node id (random when empty)")
	cmd.Flags().StringVar(&targetID, "target", "", "id the reinforcing edge points at (random when empty)")
	return cmd
}

// demoNode is a two-model consensus concept with a calm latent state and
// one reinforcing edge.
func demoNode(opts *options, id, target uuid.UUID) (*entities.MemoryNode, error) {
	provenance, err := valueobjects.NewConsensusProvenance(
		valueobjects.MethodUnanimous,
		[]valueobjects.ModelContributor{
			{Model: "DeepSeek-R1-Full", Role: valueobjects.RoleProposer, Confidence: 0.99, ContributionHash: strings.Repeat("a1b2c3d4", 8)},
			{Model: "Llama-3-70B", Role: valueobjects.RoleCritic, Confidence: 0.95, ContributionHash: strings.Repeat("e5f6g7h8", 8)},
		},
		0.99,
		nil,
		time.Time{},
	)
	if err != nil {
		return nil, err
	}

	latent, err := valueobjects.NewLatentStateContext([]float64{0.1, 0.8, 0, 0, 0, 0, 0, 0.1}, 0.05, 0.4)
	if err != nil {
		return nil, err
	}

	embedding := make([]float64, 1024)
	for i := range embedding {
		embedding[i] = 0.05
	}

	node, err := entities.NewMemoryNodeWithConfig(entities.NodeFields{
		ID:             id,
		Type:           valueobjects.NodeConcept,
		Domains:        []valueobjects.KnowledgeDomain{valueobjects.DomainPhysicsQFT, valueobjects.DomainSystems},
		Classification: valueobjects.Internal,
		ContentSummary: "The Symbiote Architecture integrates biological fidelity with epistemic rigor.",
		Embedding:      embedding,
		LatentContext:  &latent,
		Provenance:     provenance,
	}, opts.domainCfg)
	if err != nil {
		return nil, err
	}

	edge, err := valueobjects.NewCausalEdge(target, valueobjects.RelationReinforces, 0.9)
	if err != nil {
		return nil, err
	}

	opts.logger.Debug("Linking demo node", zap.String("target", target.String()))
	return node.Link(edge)
}

func optionalID(s string) (uuid.UUID, error) {
	if s == "" {
		return valueobjects.NewNodeID(), nil
	}
	return valueobjects.ParseNodeID(s)
}

var longDemo = `
Build the reference memory node: a concept agreed unanimously by two
models, captured in a low-dissonance latent state, with one reinforcing
edge. Prints the node id, integrity hash, dissonance and edge count.

Examples:
  edubba demo
  edubba demo --strict-digests   # fails: the critic's digest is not hex
`
