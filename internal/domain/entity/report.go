package entity

import "time"

type Tier string

const (
	TierGood Tier = "GOOD"
	TierFair Tier = "FAIR"
	TierPoor Tier = "POOR"
)

type RunStatus string

const (
	StatusPass        RunStatus = "PASS"
	StatusNeedsReview RunStatus = "NEEDS_REVIEW"
)

type Score struct {
	Value  float64 `json:"score"`
	Status Tier    `json:"status"`
}

type Scores struct {
	Visual    Score `json:"visual"`
	Content   Score `json:"content"`
	Technical Score `json:"technical"`
}

type ScreenshotRef struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type ComplianceReport struct {
	ID          string          `json:"id"`
	RunID       string          `json:"run_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Page        string          `json:"page"`
	Viewport    string          `json:"viewport"`
	URL         string          `json:"url"`
	Screenshots []ScreenshotRef `json:"screenshots"`
	Issues      []Issue         `json:"issues"`
	Scores      Scores          `json:"scores"`
	Status      RunStatus       `json:"status"`
	Review      string          `json:"review,omitempty"`

	// DesignSource names the spec the expectations came from. DesignColors is
	// that spec's palette, listed for reviewers.
	DesignSource string   `json:"design_source,omitempty"`
	DesignColors []string `json:"design_colors,omitempty"`
}

// IndexEntry is one line of the run index.
type IndexEntry struct {
	ReportID   string    `json:"report_id"`
	RunID      string    `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
	Page       string    `json:"page"`
	Viewport   string    `json:"viewport"`
	Status     RunStatus `json:"status"`
	IssueCount int       `json:"issue_count"`
	JSONPath   string    `json:"json_path"`
	HTMLPath   string    `json:"html_path"`
}

type RunSummary struct {
	RunID    string
	RunDir   string
	Reports  []*ComplianceReport
	Warnings []string
}

func (s *RunSummary) Failed() int {
	n := 0
	for _, r := range s.Reports {
		if r.Status != StatusPass {
			n++
		}
	}
	return n
}
