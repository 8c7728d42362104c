package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-cli/internal/dataset"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "List the demo companies that resolve without the gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		formatDemo(os.Stdout, dataset.Companies())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func formatDemo(out io.Writer, companies []dataset.DemoCompany) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COMPANY\tTAG\tDESCRIPTION")
	for _, c := range companies {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.Tag, c.Description)
	}
	_ = w.Flush()
}
