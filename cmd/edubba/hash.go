package main

import (
	"encoding/json"
	"fmt"

	"edubba/domain/core/valueobjects"
	"edubba/pkg/utils"

	"github.com/spf13/cobra"
)

func newHashCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "hash <file|->",
		Short: "Print the integrity hash of a consensus provenance record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			var provenance valueobjects.ConsensusProvenance
			if err := json.Unmarshal(data, &provenance); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			if err := utils.ValidateStruct(provenance); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), provenance.IntegrityHash())
			return nil
		},
	}
}
