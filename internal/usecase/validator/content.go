package validator

import (
	"strings"

	"design-checker/internal/application/port/output"
	"design-checker/internal/domain/entity"
)

type Content struct {
	logger output.LoggerPort
}

func NewContent(logger output.LoggerPort) *Content {
	return &Content{logger: logger}
}

// Validate reports every expected fragment that does not occur, ignoring case,
// in the visible page text.
func (v *Content) Validate(ref entity.PageRef, expectedTexts []string, text *entity.ExtractedText) []entity.Issue {
	corpus := ""
	if text != nil {
		corpus = BuildCorpus(*text)
	}

	var issues []entity.Issue
	for _, expected := range expectedTexts {
		needle := normalizeText(expected)
		if needle == "" {
			continue
		}
		if !strings.Contains(corpus, needle) {
			v.logger.Debug("Expected text missing", "text", expected)
			issues = append(issues, entity.MissingContent(ref, expected))
		}
	}
	return issues
}

// BuildCorpus joins the visible fragments into one lower-cased string.
func BuildCorpus(text entity.ExtractedText) string {
	parts := make([]string, 0, len(text.All()))
	for _, f := range text.All() {
		if !f.Visible {
			continue
		}
		if n := normalizeText(f.Text); n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "\n")
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
