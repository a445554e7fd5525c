package cli

import (
	"errors"
	"os"

	"design-checker/internal/application/port/output"
	"design-checker/internal/config"
	"design-checker/internal/di"

	"github.com/spf13/cobra"
)

// ErrNeedsReview is returned by run when at least one report is not PASS.
var ErrNeedsReview = errors.New("some pages need review")

const defaultConfigFile = "checker.toml"

type options struct {
	configPath string
	verbose    bool
}

func NewRoot(env output.ConfigPort) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "checker",
		Short:         "Visual regression and design compliance checks for web pages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "TOML config file (default ./checker.toml when present)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Also log to stderr")

	root.AddCommand(
		runCmd(env, opts),
		indexCmd(env, opts),
		serveCmd(env, opts),
		baselinesCmd(env, opts),
	)
	return root
}

func (o *options) load(env output.ConfigPort) (*config.Config, error) {
	path := o.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	return config.Load(path, env)
}

func (o *options) container(env output.ConfigPort, runName string) (*di.Container, error) {
	cfg, err := o.load(env)
	if err != nil {
		return nil, err
	}
	return di.NewContainer(cfg, runName, o.verbose)
}
