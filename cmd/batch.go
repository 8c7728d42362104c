package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outreach-cli/internal/export"
	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	batchInput       string
	batchLimit       int
	batchConcurrency int
	batchXLSX        string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the pipeline for every company in a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		companies, err := export.ReadCompanies(batchInput)
		if err != nil {
			return eris.Wrap(err, "read batch input")
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}

		states, err := processBatch(ctx, companies, batchLimit, concurrency, env.Orchestrator.Run)
		if err != nil {
			return err
		}

		formatBatch(os.Stdout, states)

		if batchXLSX != "" {
			if err := export.WriteWorkbook(batchXLSX, states); err != nil {
				return eris.Wrap(err, "write batch workbook")
			}
			zap.L().Info("batch workbook written", zap.String("path", batchXLSX))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "CSV or XLSX file with a company column (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of companies to process")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "parallel runs (default from config)")
	batchCmd.Flags().StringVar(&batchXLSX, "xlsx", "", "write results to this workbook")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// runFunc is the callback signature for one pipeline run.
type runFunc func(ctx context.Context, company string, onUpdate func([]model.AgentStatus)) model.PipelineState

// processBatch applies limit, then runs companies concurrently. Results keep
// the input order.
func processBatch(ctx context.Context, companies []string, limit, concurrency int, run runFunc) ([]model.PipelineState, error) {
	if len(companies) == 0 {
		zap.L().Info("no companies to process")
		return nil, nil
	}

	if limit > 0 && len(companies) > limit {
		companies = companies[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("companies", len(companies)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64
	states := make([]model.PipelineState, len(companies))

	for i, company := range companies {
		g.Go(func() error {
			st := run(gctx, company, nil)
			states[i] = st
			if st.Status == model.PipelineError {
				failed.Add(1)
				zap.L().Error("batch run failed", zap.String("company", company), zap.String("error", st.Error))
				return nil // don't abort batch on individual failure
			}
			succeeded.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return states, nil
}

// formatBatch writes one line per run to w.
func formatBatch(out io.Writer, states []model.PipelineState) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COMPANY\tSTATUS\tSCORE\tRECOMMENDATION\tSUBJECT")
	for _, st := range states {
		score, rec, subject := "-", "-", ""
		if st.Score != nil {
			score = fmt.Sprintf("%d", st.Score.Overall)
			rec = string(st.Score.Recommendation)
		}
		if st.Outreach != nil {
			subject = st.Outreach.Email.Subject
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", truncate(st.Company, 30), st.Status, score, rec, truncate(subject, 50))
	}
	_ = w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
