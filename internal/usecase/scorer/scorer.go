package scorer

import (
	"math"

	"design-checker/internal/domain/entity"
)

const (
	GoodThreshold = 80.0
	FairThreshold = 60.0

	analysisErrorPenalty = 10.0
)

// Score folds the issues of one page x viewport into the three percentages.
// An empty expectation list scores 100.
func Score(expectedSections, expectedTexts []string, issues []entity.Issue) entity.Scores {
	missingSections := make(map[string]bool)
	missingTexts := make(map[string]bool)
	analysisErrors := 0

	for _, is := range issues {
		switch is.Kind {
		case entity.IssueMissingSection:
			missingSections[is.Section] = true
		case entity.IssueMissingContent:
			missingTexts[is.ExpectedText] = true
		case entity.IssueAnalysisError:
			analysisErrors++
		}
	}

	found := 0
	for _, s := range expectedSections {
		if !missingSections[s] {
			found++
		}
	}

	present := 0
	for _, t := range expectedTexts {
		if !missingTexts[t] {
			present++
		}
	}

	visual := ratio(found, len(expectedSections))
	content := ratio(present, len(expectedTexts))
	technical := clamp(100 - analysisErrorPenalty*float64(analysisErrors))

	return entity.Scores{
		Visual:    entity.Score{Value: visual, Status: Tier(visual)},
		Content:   entity.Score{Value: content, Status: Tier(content)},
		Technical: entity.Score{Value: technical, Status: Tier(technical)},
	}
}

func Tier(score float64) entity.Tier {
	switch {
	case score >= GoodThreshold:
		return entity.TierGood
	case score >= FairThreshold:
		return entity.TierFair
	default:
		return entity.TierPoor
	}
}

// Status is PASS only when there is nothing at all to report.
func Status(issues []entity.Issue) entity.RunStatus {
	if len(issues) == 0 {
		return entity.StatusPass
	}
	return entity.StatusNeedsReview
}

func ratio(part, total int) float64 {
	if total == 0 {
		return 100
	}
	return clamp(100 * float64(part) / float64(total))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
