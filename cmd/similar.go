package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/vector"
	"github.com/sells-group/outreach-cli/pkg/gemini"
)

var (
	similarQuery string
	similarK     int
)

var similarCmd = &cobra.Command{
	Use:   "similar",
	Short: "Find previously researched companies similar to a name or description",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate(); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("similar: store.driver is none")
		}
		defer st.Close() //nolint:errcheck

		var gc gemini.Client
		if cfg.Vector.Enabled {
			gc, err = gemini.NewClient(ctx, cfg.Gemini.Key,
				gemini.WithEmbedModel(cfg.Gemini.EmbedModel),
				gemini.WithDimensions(cfg.Vector.Dimensions),
			)
			if err != nil {
				return eris.Wrap(err, "init gemini")
			}
		}

		ix := vector.NewIndex(st, initEmbedder(gc))
		matches, err := ix.Similar(ctx, similarQuery, similarK, similarQuery)
		if err != nil {
			return eris.Wrap(err, "similar")
		}
		if len(matches) == 0 {
			fmt.Fprintln(os.Stderr, "No similar companies found.")
			return nil
		}
		formatMatches(os.Stdout, matches)
		return nil
	},
}

func init() {
	similarCmd.Flags().StringVar(&similarQuery, "company", "", "company name or free-text description (required)")
	similarCmd.Flags().IntVar(&similarK, "k", 5, "number of matches")
	_ = similarCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(similarCmd)
}

func formatMatches(out io.Writer, matches []vector.Match) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COMPANY\tDOMAIN\tSCORE\tINDUSTRY")
	for _, m := range matches {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.3f\t%s\n", m.Company, m.ID, m.Score, m.Metadata["industry"])
	}
	_ = w.Flush()
}
