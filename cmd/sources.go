package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vivahvendors/vendor-crawler/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered source adapters and whether they are configured",
	RunE: func(cmd *cobra.Command, _ []string) error {
		formatSources(cmd.OutOrStdout(), buildRegistry(cfg))
		return nil
	},
}

func formatSources(out io.Writer, reg *source.Registry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SOURCE\tACTIVE")
	for _, a := range reg.Adapters() {
		_, _ = fmt.Fprintf(w, "%s\t%t\n", a.Name(), a.Active())
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
