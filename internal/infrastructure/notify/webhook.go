package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"design-checker/internal/application/port/output"
	"design-checker/internal/domain/entity"
	"design-checker/internal/infrastructure/httpx"
)

var ErrNotification = errors.New("notification failed")

var _ output.Notifier = (*Webhook)(nil)

const (
	defaultTimeout = 10 * time.Second
	maxListed      = 10
)

// Webhook posts a JSON alert for a report. The "text" field makes the payload
// readable by Slack-compatible incoming webhooks.
type Webhook struct {
	url    string
	client *http.Client
}

type Payload struct {
	Text       string           `json:"text"`
	ReportID   string           `json:"report_id"`
	RunID      string           `json:"run_id"`
	Page       string           `json:"page"`
	Viewport   string           `json:"viewport"`
	URL        string           `json:"url"`
	Status     entity.RunStatus `json:"status"`
	Scores     entity.Scores    `json:"scores"`
	IssueCount int              `json:"issue_count"`
	Issues     []string         `json:"issues"`
}

func NewWebhook(url string, timeout time.Duration, logger output.LoggerPort) *Webhook {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Webhook{
		url:    url,
		client: httpx.NewClient(logger, timeout),
	}
}

func (w *Webhook) Notify(ctx context.Context, report *entity.ComplianceReport) error {
	body, err := json.Marshal(BuildPayload(report))
	if err != nil {
		return fmt.Errorf("%w: encode payload: %v", ErrNotification, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrNotification, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotification, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: webhook returned %s", ErrNotification, resp.Status)
	}
	return nil
}

func BuildPayload(report *entity.ComplianceReport) Payload {
	p := Payload{
		ReportID:   report.ID,
		RunID:      report.RunID,
		Page:       report.Page,
		Viewport:   report.Viewport,
		URL:        report.URL,
		Status:     report.Status,
		Scores:     report.Scores,
		IssueCount: len(report.Issues),
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Design check %s for %s (%s): %d issue(s), visual %.0f / content %.0f / technical %.0f",
		report.Status, report.Page, report.Viewport, len(report.Issues),
		report.Scores.Visual.Value, report.Scores.Content.Value, report.Scores.Technical.Value)

	for i, issue := range report.Issues {
		if i == maxListed {
			more := fmt.Sprintf("and %d more", len(report.Issues)-maxListed)
			p.Issues = append(p.Issues, more)
			sb.WriteString("\n• " + more)
			break
		}
		line := issue.Summary()
		p.Issues = append(p.Issues, line)
		sb.WriteString("\n• " + line)
	}
	p.Text = sb.String()
	return p
}
