package cli

import (
	"fmt"

	"design-checker/internal/application/port/output"

	"github.com/spf13/cobra"
)

func indexCmd(env output.ConfigPort, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the run index from the reports on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.container(env, "index")
			if err != nil {
				return err
			}
			defer c.Close()

			entries, err := c.Reports.WriteIndex(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%d\t%s\n",
					e.Timestamp.Format("2006-01-02 15:04:05"), e.Page, e.Viewport, e.Status, e.IssueCount, e.HTMLPath)
			}
			return nil
		},
	}
}
