package scorer

import (
	"errors"
	"math/rand"
	"testing"

	"design-checker/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

var ref = entity.PageRef{Page: "home", Viewport: "desktop"}

func TestTier_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  entity.Tier
	}{
		{100, entity.TierGood},
		{80, entity.TierGood},
		{79.999, entity.TierFair},
		{60, entity.TierFair},
		{59.999, entity.TierPoor},
		{0, entity.TierPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Tier(tt.score), "score %v", tt.score)
	}
}

func TestScore_OneOfFiveSectionsMissing(t *testing.T) {
	sections := []string{"hero", "features", "pricing", "testimonials", "footer"}
	issues := []entity.Issue{entity.MissingSection(ref, "testimonials")}

	s := Score(sections, nil, issues)

	assert.Equal(t, 80.0, s.Visual.Value)
	assert.Equal(t, entity.TierGood, s.Visual.Status)
	assert.Equal(t, 100.0, s.Content.Value)
	assert.Equal(t, 100.0, s.Technical.Value)
	assert.Equal(t, entity.StatusNeedsReview, Status(issues))
}

func TestScore_VacuousCompliance(t *testing.T) {
	s := Score(nil, []string{}, nil)

	assert.Equal(t, 100.0, s.Visual.Value)
	assert.Equal(t, 100.0, s.Content.Value)
	assert.Equal(t, 100.0, s.Technical.Value)
	assert.Equal(t, entity.StatusPass, Status(nil))
}

func TestScore_ContentAndTechnical(t *testing.T) {
	texts := []string{"Build faster", "Get started", "Pricing"}
	issues := []entity.Issue{
		entity.MissingContent(ref, "Get started"),
		entity.AnalysisError(ref, "hero", errors.New("timeout")),
		entity.AnalysisError(ref, "footer", errors.New("timeout")),
		entity.AnalysisError(ref, "", errors.New("diff")),
	}

	s := Score(nil, texts, issues)

	assert.InDelta(t, 66.666, s.Content.Value, 0.01)
	assert.Equal(t, entity.TierFair, s.Content.Status)
	assert.Equal(t, 70.0, s.Technical.Value)
	assert.Equal(t, entity.TierFair, s.Technical.Status)
}

func TestScore_TechnicalFloorsAtZero(t *testing.T) {
	var issues []entity.Issue
	for i := 0; i < 15; i++ {
		issues = append(issues, entity.AnalysisError(ref, "", errors.New("boom")))
	}
	s := Score(nil, nil, issues)
	assert.Equal(t, 0.0, s.Technical.Value)
	assert.Equal(t, entity.TierPoor, s.Technical.Status)
}

func TestScore_AlwaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	kinds := []entity.IssueKind{
		entity.IssueMissingSection, entity.IssueVisualDiff, entity.IssueStyleMismatch,
		entity.IssueMissingContent, entity.IssueSizeMismatch, entity.IssueAnalysisError,
	}
	names := []string{"a", "b", "c", "d", "x"}

	for i := 0; i < 500; i++ {
		sections := names[:rng.Intn(len(names))]
		texts := names[:rng.Intn(len(names))]
		var issues []entity.Issue
		for j := 0; j < rng.Intn(30); j++ {
			n := names[rng.Intn(len(names))]
			issues = append(issues, entity.Issue{Kind: kinds[rng.Intn(len(kinds))], Section: n, ExpectedText: n})
		}

		s := Score(sections, texts, issues)
		for _, v := range []float64{s.Visual.Value, s.Content.Value, s.Technical.Value} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestStatus_AnyIssueBlocksPass(t *testing.T) {
	for _, is := range []entity.Issue{
		entity.VisualDiff(ref, 51),
		entity.StyleMismatch(ref, "hero", "color", "red", "blue"),
		entity.SizeMismatch(ref, "hero", "width", 100, 120),
	} {
		assert.Equal(t, entity.StatusNeedsReview, Status([]entity.Issue{is}))
	}
}
