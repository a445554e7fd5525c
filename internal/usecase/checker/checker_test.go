package checker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"design-checker/internal/application/port/output"
	"design-checker/internal/domain/entity"
	"design-checker/internal/infrastructure/logger"
	"design-checker/internal/infrastructure/storage"
	"design-checker/internal/testutil"
	"design-checker/internal/usecase/designspec"
	"design-checker/internal/usecase/differ"
	"design-checker/internal/usecase/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	desktop = entity.Viewport{Name: "desktop", Width: 100, Height: 100}
	mobile  = entity.Viewport{Name: "mobile", Width: 40, Height: 80}
)

type harness struct {
	browser   *testutil.FakeBrowser
	baselines *testutil.MemoryBaselines
	reports   *testutil.MemoryReports
	notifier  *testutil.RecordingNotifier
	source    output.DesignSource
	defaults  *entity.DesignSpec
	reviewer  Reviewer
	opts      Options
}

func newHarness() *harness {
	return &harness{
		browser:   testutil.NewFakeBrowser(),
		baselines: testutil.NewMemoryBaselines(),
		reports:   testutil.NewMemoryReports(),
		notifier:  &testutil.RecordingNotifier{},
		defaults:  &entity.DesignSpec{ExpectedSections: map[string][]string{}},
		opts: Options{
			Pages:       []entity.PageSpec{{Name: "home", URL: "https://example.com/"}},
			Viewports:   []entity.Viewport{desktop},
			Diff:        differ.DefaultOptions(),
			AlertCutoff: 50,
		},
	}
}

func (h *harness) build() *UseCase {
	log := logger.NewNop()
	return New(
		h.browser,
		h.baselines,
		h.reports,
		designspec.NewResolver(h.source, h.defaults, log),
		Validators{
			Structural: validator.NewStructural(h.browser, log, time.Second, 10),
			Style:      validator.NewStyle(h.browser, log, time.Second, false),
			Content:    validator.NewContent(log),
		},
		h.notifier,
		h.reviewer,
		h.opts,
		log,
	)
}

func white(w, h int) *entity.CapturedImage {
	img := entity.NewCapturedImage(w, h)
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// withBlock paints a 15x5 black block, 75 pixels in total.
func withBlock(img *entity.CapturedImage) *entity.CapturedImage {
	for y := 40; y < 45; y++ {
		for x := 30; x < 45; x++ {
			img.Set(x, y, 0, 0, 0, 255)
		}
	}
	return img
}

func TestRun_FirstRunCreatesBaseline(t *testing.T) {
	h := newHarness()

	summary, err := h.build().Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Reports, 1)

	r := summary.Reports[0]
	assert.Equal(t, entity.StatusPass, r.Status)
	assert.Empty(t, r.Issues)
	assert.Equal(t, []entity.ScreenshotRef{{Name: "current", Path: "home_desktop_current.png"}}, r.Screenshots)
	assert.Contains(t, h.baselines.Images, output.BaselineKey{Page: "home", Viewport: "desktop"})
	assert.Equal(t, 1, h.reports.IndexWrites)
	assert.Zero(t, h.notifier.Count())
}

func TestRun_FirstRunWithBaselineStore(t *testing.T) {
	h := newHarness()
	store, err := storage.NewBaselineStore(t.TempDir(), logger.NewNop())
	require.NoError(t, err)

	run := func() *entity.ComplianceReport {
		uc := h.build()
		uc.baselines = store
		summary, err := uc.Run(context.Background())
		require.NoError(t, err)
		require.Len(t, summary.Reports, 1)
		return summary.Reports[0]
	}

	first := run()
	assert.Empty(t, first.Issues)
	assert.Equal(t, entity.StatusPass, first.Status)
	assert.Equal(t, 100.0, first.Scores.Technical.Value)
	assert.FileExists(t, store.Path(output.BaselineKey{Page: "home", Viewport: "desktop"}))

	second := run()
	assert.Empty(t, second.Issues)
	assert.Equal(t, entity.StatusPass, second.Status)
}

func TestRun_VisualDiffAboveCutoff(t *testing.T) {
	h := newHarness()
	h.baselines.Images[output.BaselineKey{Page: "home", Viewport: "desktop"}] = white(100, 100)
	h.browser.ScreenshotFunc = func(url string, vp entity.Viewport) (*entity.CapturedImage, error) {
		return withBlock(white(100, 100)), nil
	}

	summary, err := h.build().Run(context.Background())
	require.NoError(t, err)

	r := summary.Reports[0]
	require.Len(t, r.Issues, 1)
	assert.Equal(t, entity.IssueVisualDiff, r.Issues[0].Kind)
	assert.Equal(t, 75, r.Issues[0].PixelsChanged)
	assert.Equal(t, entity.StatusNeedsReview, r.Status)

	names := make([]string, 0, len(r.Screenshots))
	for _, s := range r.Screenshots {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"current", "baseline", "diff"}, names)
	assert.Equal(t, 1, h.notifier.Count())
}

func TestRun_VisualDiffBelowCutoff(t *testing.T) {
	h := newHarness()
	h.opts.AlertCutoff = 75
	h.baselines.Images[output.BaselineKey{Page: "home", Viewport: "desktop"}] = white(100, 100)
	h.browser.ScreenshotFunc = func(url string, vp entity.Viewport) (*entity.CapturedImage, error) {
		return withBlock(white(100, 100)), nil
	}

	summary, err := h.build().Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.Reports[0].Issues)
	assert.Equal(t, entity.StatusPass, summary.Reports[0].Status)
}

func TestRun_DesignSourceFailureUsesDefaults(t *testing.T) {
	h := newHarness()
	h.source = &testutil.StaticDesignSource{Err: errors.New("403 Forbidden: invalid token")}
	h.defaults = &entity.DesignSpec{
		ExpectedSections: map[string][]string{"home": {"header", "hero", "footer"}},
		ExpectedTexts:    []string{"Local → Global"},
		ExpectedColors:   []string{"#1a1a2e"},
	}
	for _, name := range []string{"header", "hero", "footer"} {
		h.browser.Add(entity.DefaultSectionSelector(name))
	}
	h.browser.Text = &entity.ExtractedText{Headings: testutil.Visible("local → global")}
	h.opts.Viewports = []entity.Viewport{desktop, mobile}

	summary, err := h.build().Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Warnings, 1)
	require.Len(t, summary.Reports, 2)
	for _, r := range summary.Reports {
		assert.Zero(t, entity.CountKind(r.Issues, entity.IssueAnalysisError), r.Viewport)
		assert.Equal(t, entity.StatusPass, r.Status)
		assert.Equal(t, 100.0, r.Scores.Visual.Value)
		assert.Equal(t, designspec.SourceDefaults, r.DesignSource)
		assert.Equal(t, []string{"#1a1a2e"}, r.DesignColors)
	}
}

func TestRun_MissingSectionScoresVisual(t *testing.T) {
	h := newHarness()
	h.defaults.ExpectedSections["home"] = []string{"header", "hero", "features", "cta", "footer"}
	for _, name := range []string{"header", "hero", "features", "footer"} {
		h.browser.Add(entity.DefaultSectionSelector(name))
	}

	summary, err := h.build().Run(context.Background())
	require.NoError(t, err)

	r := summary.Reports[0]
	require.Len(t, r.Issues, 1)
	assert.Equal(t, entity.MissingSection(entity.PageRef{Page: "home", Viewport: "desktop"}, "cta"), r.Issues[0])
	assert.Equal(t, 80.0, r.Scores.Visual.Value)
	assert.Equal(t, entity.TierGood, r.Scores.Visual.Status)
	assert.Equal(t, entity.StatusNeedsReview, r.Status)
}

func TestRun_NavigationFailureIsolated(t *testing.T) {
	h := newHarness()
	h.opts.Pages = []entity.PageSpec{
		{Name: "about", URL: "https://example.com/about"},
		{Name: "home", URL: "https://example.com/"},
	}
	h.opts.NavigationRetries = 1
	h.browser.NavigateFunc = func(url string) error {
		if strings.HasSuffix(url, "/about") {
			return errors.New("navigation failed: timeout")
		}
		return nil
	}

	summary, err := h.build().Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Reports, 2)

	about := summary.Reports[0]
	require.Len(t, about.Issues, 1)
	assert.Equal(t, entity.IssueAnalysisError, about.Issues[0].Kind)
	assert.Contains(t, about.Issues[0].Message, "timeout")
	assert.Empty(t, about.Screenshots)

	assert.Equal(t, entity.StatusPass, summary.Reports[1].Status)
	assert.Equal(t, []string{
		"https://example.com/about",
		"https://example.com/about",
		"https://example.com/",
	}, h.browser.Navigations)
	assert.Equal(t, 1, summary.Failed())
}

func TestRun_BaselineErrors(t *testing.T) {
	t.Run("store failure", func(t *testing.T) {
		h := newHarness()
		h.baselines.Err = errors.New("corrupt baseline")

		summary, err := h.build().Run(context.Background())
		require.NoError(t, err)

		issues := summary.Reports[0].Issues
		require.Len(t, issues, 1)
		assert.Equal(t, entity.IssueAnalysisError, issues[0].Kind)
		assert.Equal(t, "baseline", issues[0].Section)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		h := newHarness()
		h.baselines.Images[output.BaselineKey{Page: "home", Viewport: "desktop"}] = white(100, 120)

		summary, err := h.build().Run(context.Background())
		require.NoError(t, err)

		issues := summary.Reports[0].Issues
		require.Len(t, issues, 1)
		assert.Equal(t, "visual", issues[0].Section)
		assert.Contains(t, issues[0].Message, differ.ErrDimensionMismatch.Error())
	})
}

func TestRun_TextExtractionFailure(t *testing.T) {
	h := newHarness()
	h.browser.TextErr = errors.New("body not found")

	summary, err := h.build().Run(context.Background())
	require.NoError(t, err)

	issues := summary.Reports[0].Issues
	require.Len(t, issues, 1)
	assert.Equal(t, "content", issues[0].Section)
}

func TestRun_NotifierFailureDoesNotAffectRun(t *testing.T) {
	h := newHarness()
	h.notifier.Err = errors.New("webhook down")
	h.defaults.ExpectedSections["home"] = []string{"pricing"}
	h.opts.Viewports = []entity.Viewport{desktop, mobile}

	summary, err := h.build().Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, summary.Reports, 2)
	assert.Len(t, h.reports.Reports, 2)
	assert.Equal(t, 2, h.notifier.Count())
}

func TestRun_CancellationBetweenPairs(t *testing.T) {
	h := newHarness()
	h.opts.Viewports = []entity.Viewport{desktop, mobile}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.browser.NavigateFunc = func(string) error {
		cancel()
		return nil
	}

	summary, err := h.build().Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	require.Len(t, summary.Reports, 1, "the started pair completes")
	assert.Equal(t, entity.StatusPass, summary.Reports[0].Status)
	assert.Len(t, h.reports.Reports, 1)
	assert.Equal(t, 1, h.reports.IndexWrites)
}

type stubReviewer struct{ calls int }

func (s *stubReviewer) Review(ctx context.Context, r *entity.ComplianceReport) (*entity.ReviewResult, error) {
	s.calls++
	return &entity.ReviewResult{Summary: "Pricing is gone.", Severity: "high"}, nil
}

func TestRun_ReviewOnlyWithIssues(t *testing.T) {
	h := newHarness()
	rv := &stubReviewer{}
	h.reviewer = rv
	h.opts.Pages = []entity.PageSpec{
		{Name: "home", URL: "https://example.com/"},
		{Name: "pricing", URL: "https://example.com/pricing"},
	}
	h.defaults.ExpectedSections["pricing"] = []string{"pricing"}

	summary, err := h.build().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, rv.calls)
	assert.Empty(t, summary.Reports[0].Review)
	assert.Contains(t, summary.Reports[1].Review, "Pricing is gone.")
}
