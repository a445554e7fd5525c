package cli

import (
	"fmt"

	"design-checker/internal/application/port/output"

	"github.com/spf13/cobra"
)

func runCmd(env output.ConfigPort, opts *options) *cobra.Command {
	var failOnReview bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Check every configured page at every viewport",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.container(env, "run")
			if err != nil {
				return err
			}
			defer c.Close()

			runner, err := c.NewRunner(cmd.Context())
			if err != nil {
				return err
			}

			summary, runErr := runner.Run(cmd.Context())
			if summary == nil {
				return runErr
			}

			out := cmd.OutOrStdout()
			for _, w := range summary.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			for _, r := range summary.Reports {
				fmt.Fprintf(out, "%-12s %-10s %-13s visual=%5.1f content=%5.1f technical=%5.1f issues=%d\n",
					r.Page, r.Viewport, r.Status,
					r.Scores.Visual.Value, r.Scores.Content.Value, r.Scores.Technical.Value,
					len(r.Issues))
			}
			fmt.Fprintf(out, "reports: %s\n", summary.RunDir)

			if runErr != nil {
				return runErr
			}
			if failOnReview && summary.Failed() > 0 {
				return fmt.Errorf("%w: %d of %d", ErrNeedsReview, summary.Failed(), len(summary.Reports))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failOnReview, "fail-on-review", true, "Exit non-zero when any report needs review")
	return cmd
}
