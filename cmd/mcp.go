package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the pipeline as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var opts []mcp.Option
		if env.Store != nil {
			opts = append(opts, mcp.WithRuns(env.Store))
		}
		if env.Index != nil {
			opts = append(opts, mcp.WithSearch(env.Index))
		}

		zap.L().Info("starting mcp server on stdio")
		if err := mcp.NewServer(env.Orchestrator, version, opts...).Run(ctx); err != nil && ctx.Err() == nil {
			return eris.Wrap(err, "mcp server")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
