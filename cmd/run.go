package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/tui"
)

var (
	runCompany string
	runWatch   bool
	runJSON    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline for a single company",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var st model.PipelineState
		if runWatch {
			st, err = tui.Run(ctx, runCompany, os.Stderr, func(ctx context.Context, onUpdate func([]model.AgentStatus)) model.PipelineState {
				return env.Orchestrator.Run(ctx, runCompany, onUpdate)
			})
			if err != nil {
				return eris.Wrap(err, "run tui")
			}
		} else {
			st = env.Orchestrator.Run(ctx, runCompany, nil)
		}

		zap.L().Info("pipeline complete",
			zap.String("company", st.Company),
			zap.String("status", string(st.Status)),
			zap.String("run_id", st.RunID),
		)

		if runJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(st); err != nil {
				return eris.Wrap(err, "encode result")
			}
		} else if !runWatch {
			formatState(os.Stdout, st)
		}

		if st.Status == model.PipelineError {
			return eris.New(st.Error)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runCompany, "company", "", "company name (required)")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "render live agent progress")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the full pipeline state as JSON")
	_ = runCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(runCmd)
}

// formatState writes a readable report of a finished run to w.
func formatState(out io.Writer, st model.PipelineState) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	_, _ = fmt.Fprintf(w, "Company:\t%s\n", st.Company)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", st.RunID)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", st.Status)
	if st.Error != "" {
		_, _ = fmt.Fprintf(w, "Error:\t%s\n", st.Error)
	}
	for _, a := range st.Agents {
		src := ""
		if a.Source != "" {
			src = "(" + string(a.Source) + ")"
		}
		_, _ = fmt.Fprintf(w, "  %s\t%s\t%d%%\t%s\n", a.Name, a.Status, a.Progress, src)
	}

	if r := st.Research; r != nil {
		_, _ = fmt.Fprintf(w, "Industry:\t%s\n", r.Company.Industry)
		_, _ = fmt.Fprintf(w, "Size:\t%s\n", r.Company.Size)
		_, _ = fmt.Fprintf(w, "Summary:\t%s\n", r.Summary)
		for _, c := range r.Contacts {
			_, _ = fmt.Fprintf(w, "  Contact:\t%s, %s (%s)\n", c.Name, c.Title, c.Priority)
		}
	}
	if s := st.Score; s != nil {
		_, _ = fmt.Fprintf(w, "Score:\t%d/100 %s\n", s.Overall, strings.ToUpper(string(s.Recommendation)))
		_, _ = fmt.Fprintf(w, "  Breakdown:\ticp=%d timing=%d budget=%d engagement=%d\n",
			s.Breakdown.ICPFit, s.Breakdown.TimingSignals, s.Breakdown.BudgetIndicators, s.Breakdown.EngagementLikelihood)
	}
	if o := st.Outreach; o != nil {
		_, _ = fmt.Fprintf(w, "Subject:\t%s\n", o.Email.Subject)
	}
}
