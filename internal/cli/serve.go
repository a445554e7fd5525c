package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"design-checker/internal/application/port/output"
	"design-checker/internal/infrastructure/reportserver"

	"github.com/spf13/cobra"
)

func serveCmd(env output.ConfigPort, opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run index and report files over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.container(env, "serve")
			if err != nil {
				return err
			}
			defer c.Close()

			if addr == "" {
				addr = c.Config.Server.Addr
			}
			srv := reportserver.New(c.Reports.Root(), c.Reports)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe(addr)
			}()
			c.Logger.Info("Report server started", "addr", addr)
			fmt.Fprintf(cmd.OutOrStdout(), "serving reports on http://%s/\n", addr)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
