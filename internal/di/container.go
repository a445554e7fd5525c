package di

import (
	"context"
	"fmt"

	"design-checker/internal/application/port/input"
	"design-checker/internal/application/port/output"
	"design-checker/internal/config"
	"design-checker/internal/infrastructure/browser/rod"
	"design-checker/internal/infrastructure/figma"
	"design-checker/internal/infrastructure/llm/openrouter"
	"design-checker/internal/infrastructure/logger"
	"design-checker/internal/infrastructure/notify"
	"design-checker/internal/infrastructure/report"
	"design-checker/internal/infrastructure/storage"
	"design-checker/internal/usecase/checker"
	"design-checker/internal/usecase/designspec"
	"design-checker/internal/usecase/differ"
	"design-checker/internal/usecase/reviewer"
	"design-checker/internal/usecase/validator"
)

// Container holds the storage side of the app. The browser and the runner are
// only built by NewRunner, so commands that only read artifacts never start
// Chrome.
type Container struct {
	Config    *config.Config
	Logger    output.LoggerPort
	Baselines *storage.BaselineStore
	Reports   *report.Writer

	Browser output.BrowserPort
	Runner  input.ComplianceRunner
}

func NewContainer(cfg *config.Config, runName string, console bool) (*Container, error) {
	log, err := logger.NewLoggerAdapter(logger.Config{
		Dir:     cfg.LogDir,
		RunName: runName,
		Level:   cfg.LogLevel,
		Console: console,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	baselines, err := storage.NewBaselineStore(cfg.BaselineDir(), log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to open baseline store: %w", err)
	}

	reports, err := report.NewWriter(cfg.RunsDir(), log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to open reports dir: %w", err)
	}

	return &Container{
		Config:    cfg,
		Logger:    log,
		Baselines: baselines,
		Reports:   reports,
	}, nil
}

// NewRunner launches the browser and wires the compliance run.
func (c *Container) NewRunner(ctx context.Context) (input.ComplianceRunner, error) {
	cfg := c.Config

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.Browser.Headless
	browserCfg.NoSandbox = cfg.Browser.NoSandbox
	browserCfg.Timeout = cfg.Browser.QueryTimeout
	browserCfg.SettleDelay = cfg.Browser.SettleDelay
	browser, err := rod.NewBrowserAdapter(ctx, browserCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}
	c.Browser = browser

	defaults, err := designspec.LoadDefaults(cfg.Design.DefaultsFile)
	if err != nil {
		return nil, err
	}

	var source output.DesignSource
	if cfg.Design.Enabled() {
		source = figma.NewClient(figma.Config{
			Token:   cfg.Design.Token,
			FileID:  cfg.Design.FileID,
			NodeIDs: cfg.Design.NodeIDs,
			BaseURL: cfg.Design.APIBaseURL,
			Timeout: cfg.Design.Timeout,
			Logger:  c.Logger,
		})
	}

	var notifier output.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.Timeout, c.Logger)
	}

	var rv checker.Reviewer
	if cfg.Review.Enabled && cfg.Review.APIKey != "" {
		llmCfg := openrouter.DefaultConfig(cfg.Review.APIKey, cfg.Review.Model)
		llmCfg.Logger = c.Logger
		rv = reviewer.New(openrouter.NewOpenRouterAdapter(llmCfg), c.Logger)
	}

	validators := checker.Validators{
		Structural: validator.NewStructural(browser, c.Logger, cfg.Browser.QueryTimeout, cfg.Diff.SizeTolerance),
		Style:      validator.NewStyle(browser, c.Logger, cfg.Browser.QueryTimeout, cfg.ExactStyleMatch),
		Content:    validator.NewContent(c.Logger),
	}

	diffOpts := differ.DefaultOptions()
	diffOpts.Threshold = cfg.Diff.Threshold
	diffOpts.IncludeAA = cfg.Diff.IncludeAA

	c.Runner = checker.New(
		browser,
		c.Baselines,
		c.Reports,
		designspec.NewResolver(source, defaults, c.Logger),
		validators,
		notifier,
		rv,
		checker.Options{
			Pages:             cfg.Pages,
			Viewports:         cfg.Viewports,
			Styles:            cfg.Styles,
			Sections:          cfg.SectionRules,
			Diff:              diffOpts,
			AlertCutoff:       cfg.Diff.AlertCutoff,
			NavigationTimeout: cfg.Browser.NavigationTimeout,
			NavigationRetries: cfg.Browser.NavigationRetries,
			NotifyTimeout:     cfg.Notify.Timeout,
		},
		c.Logger,
	)
	return c.Runner, nil
}

func (c *Container) Close() {
	if c.Browser != nil {
		c.Browser.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
