package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newModelsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List registered embedding models and their dimensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := opts.domainCfg.Embeddings

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tDIMENSION")
			for _, model := range registry.Models() {
				dim, _ := registry.Dimension(model)
				fmt.Fprintf(w, "%s\t%d\n", model, dim)
			}
			return w.Flush()
		},
	}
}
