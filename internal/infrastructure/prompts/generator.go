package prompts

import (
	"bytes"
	"fmt"
	"text/template"

	"design-checker/internal/domain/entity"
)

var reviewRequest = template.Must(template.New("review_request").Parse(ReviewRequestTemplate))

// GenerateReviewRequest renders the user message describing one report.
func GenerateReviewRequest(report *entity.ComplianceReport) (string, error) {
	var buf bytes.Buffer
	if err := reviewRequest.Execute(&buf, report); err != nil {
		return "", fmt.Errorf("render review request: %w", err)
	}
	return buf.String(), nil
}
