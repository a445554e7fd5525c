package report

import (
	"bytes"
	"fmt"
	"strings"

	"design-checker/internal/domain/entity"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown renders the human-readable report. Screenshot links are relative
// to the run directory; thumbs maps a screenshot path to its thumbnail.
func Markdown(r *entity.ComplianceReport, thumbs map[string]string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Design compliance: %s (%s)\n\n", r.Page, r.Viewport)
	fmt.Fprintf(&sb, "- **Status:** %s\n", r.Status)
	fmt.Fprintf(&sb, "- **URL:** %s\n", r.URL)
	fmt.Fprintf(&sb, "- **Checked at:** %s\n", r.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "- **Run:** `%s`\n", r.RunID)
	if r.DesignSource != "" {
		fmt.Fprintf(&sb, "- **Design spec:** %s\n", r.DesignSource)
	}
	sb.WriteString("\n")

	sb.WriteString("## Scores\n\n")
	sb.WriteString("| Area | Score | Tier |\n|---|---:|---|\n")
	for _, row := range []struct {
		name  string
		score entity.Score
	}{
		{"Visual", r.Scores.Visual},
		{"Content", r.Scores.Content},
		{"Technical", r.Scores.Technical},
	} {
		fmt.Fprintf(&sb, "| %s | %.1f | %s |\n", row.name, row.score.Value, row.score.Status)
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "## Issues (%d)\n\n", len(r.Issues))
	if len(r.Issues) == 0 {
		sb.WriteString("No issues found.\n\n")
	} else {
		sb.WriteString("| # | Type | Detail |\n|---:|---|---|\n")
		for i, issue := range r.Issues {
			fmt.Fprintf(&sb, "| %d | `%s` | %s |\n", i+1, issue.Kind, escapeCell(issue.Summary()))
		}
		sb.WriteString("\n")
	}

	if len(r.DesignColors) > 0 {
		sb.WriteString("## Design palette\n\n")
		for _, c := range r.DesignColors {
			fmt.Fprintf(&sb, "- `%s`\n", c)
		}
		sb.WriteString("\n")
	}

	if r.Review != "" {
		sb.WriteString("## Review\n\n")
		sb.WriteString(r.Review)
		sb.WriteString("\n\n")
	}

	if len(r.Screenshots) > 0 {
		sb.WriteString("## Screenshots\n\n")
		for _, shot := range r.Screenshots {
			src := shot.Path
			if thumb, ok := thumbs[shot.Path]; ok {
				src = thumb
			}
			fmt.Fprintf(&sb, "**%s**\n\n[![%s](%s)](%s)\n\n", shot.Name, shot.Name, src, shot.Path)
		}
	}

	return sb.String()
}

// RenderHTML converts Markdown into a standalone HTML document.
func RenderHTML(title, markdown string) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var out bytes.Buffer
	err := pageTemplate.Execute(&out, pageData{Title: title, Body: htmlSafe(body.String())})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return out.Bytes(), nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
