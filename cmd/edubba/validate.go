package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"edubba/domain/core/entities"
	pkgerrors "edubba/pkg/errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "Validate a serialized memory node",
		Long:  longValidate,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			node, err := entities.DecodeMemoryNode(data, opts.domainCfg)
			if err != nil {
				var verrs *pkgerrors.ValidationErrors
				if !errors.As(err, &verrs) {
					return fmt.Errorf("decode %s: %w", args[0], err)
				}

				fmt.Fprintf(out, "invalid: %d violation(s)\n", len(verrs.Errors))
				for _, v := range verrs.Errors {
					fmt.Fprintf(out, "  [%s] %s\n", v.Code, v.Message)
				}
				opts.logger.Debug("Node rejected", zap.Int("violations", len(verrs.Errors)))
				return fmt.Errorf("%s is not a valid memory node", args[0])
			}

			fmt.Fprintf(out, "valid: %s\n", node.ID())
			fmt.Fprintf(out, "  classification: %s\n", node.Classification())
			fmt.Fprintf(out, "  integrity hash: %s\n", node.IntegrityHash())
			if packet, ok := node.DiodePacket(); ok {
				fmt.Fprintf(out, "  diode packet:   %s\n", packet)
			}
			return nil
		},
	}
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

var longValidate = `
Decode a memory node document and run full validation. Every violation is
listed, not just the first. Exits non-zero when the node is invalid.

Examples:
  edubba validate node.json
  cat node.json | edubba validate -
`
