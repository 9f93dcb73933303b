package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/vivahvendors/vendor-crawler/internal/taxonomy"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Load categories, cultural types, and terms into the catalog",
	Long:  "Upserts the taxonomy vocabulary from a YAML seed file, or the built-in seed when no file is given. Safe to re-run.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		seed := taxonomy.DefaultSeed()
		if len(args) == 1 {
			s, err := taxonomy.LoadSeed(args[0])
			if err != nil {
				return eris.Wrap(err, "seed")
			}
			seed = s
		}

		st, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		counts, err := st.SeedVocabulary(ctx, seed)
		if err != nil {
			return eris.Wrap(err, "seed")
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d categories, %d cultural types, %d terms\n",
			counts.Categories, counts.Types, counts.Terms)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
