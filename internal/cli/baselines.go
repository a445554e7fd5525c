package cli

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"design-checker/internal/application/port/output"
	"design-checker/internal/infrastructure/imagecodec"
	"design-checker/internal/infrastructure/report"

	"github.com/spf13/cobra"
)

var ErrNoCapture = errors.New("no captured screenshot to accept")

func baselinesCmd(env output.ConfigPort, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baselines",
		Short: "Inspect and accept baseline screenshots",
	}
	cmd.AddCommand(baselinesListCmd(env, opts), baselinesAcceptCmd(env, opts))
	return cmd
}

func baselinesListCmd(env output.ConfigPort, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored baselines",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.container(env, "baselines")
			if err != nil {
				return err
			}
			defer c.Close()

			keys, err := c.Baselines.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", k.Page, k.Viewport, c.Baselines.Path(k))
			}
			return nil
		},
	}
}

// baselinesAcceptCmd replaces a baseline with the latest captured screenshot
// of that page and viewport, or with an explicit image file.
func baselinesAcceptCmd(env output.ConfigPort, opts *options) *cobra.Command {
	var page, viewport, from string
	cmd := &cobra.Command{
		Use:   "accept",
		Short: "Replace a baseline with the latest capture",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.container(env, "baselines")
			if err != nil {
				return err
			}
			defer c.Close()

			src := from
			if src == "" {
				entries, err := c.Reports.Scan(cmd.Context())
				if err != nil {
					return err
				}
				for _, e := range entries {
					if e.Page == page && e.Viewport == viewport {
						dir := path.Dir(e.JSONPath)
						src = filepath.Join(c.Reports.Root(), filepath.FromSlash(dir), report.BaseName(page, viewport)+"_current.png")
						break
					}
				}
				if src == "" {
					return fmt.Errorf("%w: %s/%s has no reports", ErrNoCapture, page, viewport)
				}
			}

			img, err := imagecodec.LoadFile(src)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrNoCapture, err)
			}
			key := output.BaselineKey{Page: page, Viewport: viewport}
			if err := c.Baselines.Update(cmd.Context(), key, img); err != nil {
				return err
			}
			c.Logger.Info("Baseline accepted", "page", page, "viewport", viewport, "source", src)
			fmt.Fprintf(cmd.OutOrStdout(), "accepted %s -> %s\n", src, c.Baselines.Path(key))
			return nil
		},
	}
	cmd.Flags().StringVar(&page, "page", "", "Page name")
	cmd.Flags().StringVar(&viewport, "viewport", "", "Viewport name")
	cmd.Flags().StringVar(&from, "from", "", "Image file to use instead of the latest capture")
	_ = cmd.MarkFlagRequired("page")
	_ = cmd.MarkFlagRequired("viewport")
	return cmd
}
