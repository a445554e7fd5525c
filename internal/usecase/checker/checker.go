package checker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"design-checker/internal/application/port/input"
	"design-checker/internal/application/port/output"
	"design-checker/internal/domain/entity"
	"design-checker/internal/usecase/designspec"
	"design-checker/internal/usecase/differ"
	"design-checker/internal/usecase/reviewer"
	"design-checker/internal/usecase/scorer"
	"design-checker/internal/usecase/validator"

	"github.com/google/uuid"
)

var _ input.ComplianceRunner = (*UseCase)(nil)

const (
	defaultNavigationTimeout = 30 * time.Second
	defaultNotifyTimeout     = 10 * time.Second
	defaultReviewTimeout     = 60 * time.Second
)

// SectionRuleFunc turns section names and their expected geometry into
// selector rules.
type SectionRuleFunc func(names []string, geometry map[string]entity.Geometry) []entity.SectionRule

type Reviewer interface {
	Review(ctx context.Context, report *entity.ComplianceReport) (*entity.ReviewResult, error)
}

type Options struct {
	Pages     []entity.PageSpec
	Viewports []entity.Viewport
	Styles    []entity.StyleRule
	Sections  SectionRuleFunc

	Diff        differ.Options
	AlertCutoff int

	NavigationTimeout time.Duration
	NavigationRetries int
	NotifyTimeout     time.Duration
}

type Validators struct {
	Structural *validator.Structural
	Style      *validator.Style
	Content    *validator.Content
}

type UseCase struct {
	browser    output.BrowserPort
	baselines  output.BaselineStore
	reports    output.ReportWriter
	resolver   *designspec.Resolver
	validators Validators
	notifier   output.Notifier
	reviewer   Reviewer
	opts       Options
	logger     output.LoggerPort
	now        func() time.Time

	notifications sync.WaitGroup
}

// New wires a run. notifier and reviewer may be nil.
func New(
	browser output.BrowserPort,
	baselines output.BaselineStore,
	reports output.ReportWriter,
	resolver *designspec.Resolver,
	validators Validators,
	notifier output.Notifier,
	reviewer Reviewer,
	opts Options,
	logger output.LoggerPort,
) *UseCase {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = defaultNavigationTimeout
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = defaultNotifyTimeout
	}
	if opts.Sections == nil {
		opts.Sections = defaultSectionRules
	}
	return &UseCase{
		browser:    browser,
		baselines:  baselines,
		reports:    reports,
		resolver:   resolver,
		validators: validators,
		notifier:   notifier,
		reviewer:   reviewer,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// Run checks every page at every viewport, one pair at a time. Cancellation is
// honoured between pairs; a pair that has started is finished and reported.
func (uc *UseCase) Run(ctx context.Context) (*entity.RunSummary, error) {
	started := uc.now()
	runID := uuid.NewString()

	runDir, err := uc.reports.RunDir(runID, started)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare run directory: %w", err)
	}

	uc.logger.Info("Compliance run started",
		"run_id", runID,
		"pages", len(uc.opts.Pages),
		"viewports", len(uc.opts.Viewports),
		"run_dir", runDir)

	resolved := uc.resolver.Resolve(ctx)
	summary := &entity.RunSummary{
		RunID:    runID,
		RunDir:   runDir,
		Warnings: resolved.Warnings,
	}

	pairCtx := context.WithoutCancel(ctx)
	var runErr error

pages:
	for _, page := range uc.opts.Pages {
		for _, vp := range uc.opts.Viewports {
			if err := ctx.Err(); err != nil {
				uc.logger.Warn("Run interrupted", "error", err, "completed", len(summary.Reports))
				runErr = err
				break pages
			}

			report := uc.checkPair(pairCtx, runID, runDir, page, vp, resolved.ForPage(page))
			if _, err := uc.reports.Write(pairCtx, runDir, report); err != nil {
				uc.logger.Error("Failed to write report", "page", page.Name, "viewport", vp.Name, "error", err)
			}
			summary.Reports = append(summary.Reports, report)

			uc.logger.Info("Pair checked",
				"page", page.Name,
				"viewport", vp.Name,
				"status", report.Status,
				"issues", len(report.Issues))

			if len(report.Issues) > 0 {
				uc.notify(pairCtx, report)
			}
		}
	}

	uc.notifications.Wait()

	if _, err := uc.reports.WriteIndex(pairCtx); err != nil {
		uc.logger.Error("Failed to write run index", "error", err)
	}

	uc.logger.Info("Compliance run finished",
		"run_id", runID,
		"reports", len(summary.Reports),
		"needs_review", summary.Failed(),
		"duration", uc.now().Sub(started).String())

	return summary, runErr
}

func (uc *UseCase) checkPair(ctx context.Context, runID, runDir string, page entity.PageSpec, vp entity.Viewport, design entity.PageDesign) *entity.ComplianceReport {
	ref := entity.PageRef{Page: page.Name, Viewport: vp.Name, URL: page.URL}
	log := uc.logger.WithFields(map[string]any{"page": page.Name, "viewport": vp.Name})

	report := &entity.ComplianceReport{
		ID:          uuid.NewString(),
		RunID:       runID,
		Timestamp:   uc.now(),
		Page:        page.Name,
		Viewport:    vp.Name,
		URL:         page.URL,
		Screenshots: []entity.ScreenshotRef{},
		Issues:      []entity.Issue{},

		DesignSource: design.Source,
		DesignColors: design.ExpectedColors,
	}

	if err := uc.load(ctx, ref, vp, log); err != nil {
		report.Issues = append(report.Issues, entity.AnalysisError(ref, "", err))
		return uc.finalize(ctx, report, design, log)
	}

	report.Issues = append(report.Issues, uc.compareVisual(ctx, ref, runDir, report, log)...)

	sections := uc.opts.Sections(design.ExpectedSections, design.Geometry)
	report.Issues = append(report.Issues, uc.validators.Structural.Validate(ctx, ref, sections)...)
	report.Issues = append(report.Issues, uc.validators.Style.Validate(ctx, ref, uc.opts.Styles)...)

	text, err := uc.browser.ExtractText(ctx)
	if err != nil {
		log.Warn("Text extraction failed", "error", err)
		report.Issues = append(report.Issues, entity.AnalysisError(ref, "content", err))
	} else {
		report.Issues = append(report.Issues, uc.validators.Content.Validate(ref, design.ExpectedTexts, text)...)
	}

	return uc.finalize(ctx, report, design, log)
}

func (uc *UseCase) load(ctx context.Context, ref entity.PageRef, vp entity.Viewport, log output.LoggerPort) error {
	if err := uc.browser.SetViewport(ctx, vp); err != nil {
		return err
	}

	var err error
	for attempt := 0; attempt <= uc.opts.NavigationRetries; attempt++ {
		if attempt > 0 {
			log.Info("Retrying navigation", "attempt", attempt+1, "url", ref.URL)
		}
		if err = uc.browser.Navigate(ctx, ref.URL, uc.opts.NavigationTimeout); err == nil {
			return nil
		}
		log.Warn("Navigation failed", "url", ref.URL, "attempt", attempt+1, "error", err)
	}
	return err
}

// compareVisual captures the page, fetches or creates its baseline and diffs
// the two. Every failure here becomes an analysis_error.
func (uc *UseCase) compareVisual(ctx context.Context, ref entity.PageRef, runDir string, report *entity.ComplianceReport, log output.LoggerPort) []entity.Issue {
	current, err := uc.browser.Screenshot(ctx)
	if err != nil {
		log.Warn("Screenshot failed", "error", err)
		return []entity.Issue{entity.AnalysisError(ref, "screenshot", err)}
	}
	uc.saveImage(ctx, runDir, report, "current", current, log)

	res, err := uc.baselines.GetOrCreate(ctx, output.BaselineKey{Page: ref.Page, Viewport: ref.Viewport}, current)
	if err != nil {
		log.Warn("Baseline unavailable", "error", err)
		return []entity.Issue{entity.AnalysisError(ref, "baseline", err)}
	}
	if res.Created {
		log.Info("Baseline created", "path", res.Path)
		return nil
	}
	uc.saveImage(ctx, runDir, report, "baseline", res.Baseline, log)

	diff, err := differ.Diff(current, res.Baseline, uc.opts.Diff)
	if err != nil {
		if errors.Is(err, differ.ErrDimensionMismatch) {
			log.Warn("Screenshot size differs from baseline",
				"current", fmt.Sprintf("%dx%d", current.Width, current.Height),
				"baseline", fmt.Sprintf("%dx%d", res.Baseline.Width, res.Baseline.Height))
		}
		return []entity.Issue{entity.AnalysisError(ref, "visual", err)}
	}

	log.Debug("Visual diff computed", "changed", diff.ChangedPixels, "anti_aliased", diff.AAPixels, "ratio", diff.ChangedRatio())
	if diff.ChangedPixels > 0 {
		uc.saveImage(ctx, runDir, report, "diff", diff.DiffImage, log)
	}
	if differ.ExceedsCutoff(diff.ChangedPixels, uc.opts.AlertCutoff) {
		return []entity.Issue{entity.VisualDiff(ref, diff.ChangedPixels)}
	}
	return nil
}

func (uc *UseCase) saveImage(ctx context.Context, runDir string, report *entity.ComplianceReport, name string, img *entity.CapturedImage, log output.LoggerPort) {
	rel := fmt.Sprintf("%s_%s_%s.png", entity.SafeName(report.Page), entity.SafeName(report.Viewport), name)
	if err := uc.reports.SaveImage(ctx, filepath.Join(runDir, rel), img); err != nil {
		log.Warn("Failed to save image", "name", name, "error", err)
		return
	}
	report.Screenshots = append(report.Screenshots, entity.ScreenshotRef{Name: name, Path: rel})
}

func (uc *UseCase) finalize(ctx context.Context, report *entity.ComplianceReport, design entity.PageDesign, log output.LoggerPort) *entity.ComplianceReport {
	report.Scores = scorer.Score(design.ExpectedSections, design.ExpectedTexts, report.Issues)
	report.Status = scorer.Status(report.Issues)

	if uc.reviewer != nil && len(report.Issues) > 0 {
		reviewCtx, cancel := context.WithTimeout(ctx, defaultReviewTimeout)
		defer cancel()
		result, err := uc.reviewer.Review(reviewCtx, report)
		if err != nil {
			log.Warn("Review failed", "error", err)
		} else {
			report.Review = reviewer.Format(result)
		}
	}
	return report
}

// notify runs after the report is written. Its outcome never touches the
// report or the run.
func (uc *UseCase) notify(ctx context.Context, report *entity.ComplianceReport) {
	if uc.notifier == nil {
		return
	}
	uc.notifications.Add(1)
	go func() {
		defer uc.notifications.Done()
		defer func() {
			if r := recover(); r != nil {
				uc.logger.Error("Notifier panicked", "page", report.Page, "viewport", report.Viewport, "panic", r)
			}
		}()

		notifyCtx, cancel := context.WithTimeout(ctx, uc.opts.NotifyTimeout)
		defer cancel()
		if err := uc.notifier.Notify(notifyCtx, report); err != nil {
			uc.logger.Warn("Notification failed", "page", report.Page, "viewport", report.Viewport, "error", err)
			return
		}
		uc.logger.Debug("Notification sent", "page", report.Page, "viewport", report.Viewport)
	}()
}

func defaultSectionRules(names []string, geometry map[string]entity.Geometry) []entity.SectionRule {
	return entity.BuildSectionRules(names, geometry, nil)
}
