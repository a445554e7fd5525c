package reviewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"design-checker/internal/application/port/output"
	"design-checker/internal/domain/entity"
	"design-checker/internal/infrastructure/prompts"
)

var ErrNoJSON = errors.New("no JSON found in response")

// Reviewer asks an LLM to turn a report's issue list into a short triage note.
type Reviewer struct {
	llm    output.LLMPort
	logger output.LoggerPort
}

func New(llm output.LLMPort, logger output.LoggerPort) *Reviewer {
	return &Reviewer{
		llm:    llm,
		logger: logger,
	}
}

func (r *Reviewer) Review(ctx context.Context, report *entity.ComplianceReport) (*entity.ReviewResult, error) {
	request, err := prompts.GenerateReviewRequest(report)
	if err != nil {
		return nil, err
	}
	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: prompts.ReviewPrompt},
		{Role: entity.RoleUser, Content: request},
	}

	resp, err := r.llm.Chat(ctx, output.ChatRequest{
		Messages:    messages,
		Temperature: 0.0,
	})
	if err != nil {
		return nil, fmt.Errorf("review llm request failed: %w", err)
	}

	result, err := parseReviewResponse(resp.Message.Content)
	if err != nil {
		r.logger.Warn("Failed to parse review response, using raw text", "error", err)
		return &entity.ReviewResult{
			Summary:  strings.TrimSpace(resp.Message.Content),
			Severity: "unknown",
		}, nil
	}

	r.logger.Info("Review completed",
		"page", report.Page,
		"viewport", report.Viewport,
		"severity", result.Severity,
		"actions", len(result.Actions),
	)
	return result, nil
}

func parseReviewResponse(response string) (*entity.ReviewResult, error) {
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return nil, ErrNoJSON
	}

	var result entity.ReviewResult
	if err := json.Unmarshal([]byte(response[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if result.Summary == "" {
		return nil, fmt.Errorf("review has no summary")
	}
	return &result, nil
}

// Format renders a review as Markdown for the report document.
func Format(result *entity.ReviewResult) string {
	if result == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(result.Summary)
	if result.Severity != "" {
		fmt.Fprintf(&sb, "\n\n**Severity:** %s", result.Severity)
	}
	if len(result.Actions) > 0 {
		sb.WriteString("\n")
		for _, action := range result.Actions {
			sb.WriteString("\n- " + action)
		}
	}
	return sb.String()
}
