package entity

import "fmt"

type IssueKind string

const (
	IssueMissingSection IssueKind = "missing_section"
	IssueVisualDiff     IssueKind = "visual_diff"
	IssueStyleMismatch  IssueKind = "style_mismatch"
	IssueMissingContent IssueKind = "missing_content"
	IssueSizeMismatch   IssueKind = "size_mismatch"
	IssueAnalysisError  IssueKind = "analysis_error"
)

// Issue is one recorded deviation. Only the fields relevant to Kind are set.
type Issue struct {
	Kind     IssueKind `json:"type"`
	Page     string    `json:"page"`
	Viewport string    `json:"viewport"`

	Section       string  `json:"section,omitempty"`
	Dimension     string  `json:"dimension,omitempty"`
	Expected      string  `json:"expected,omitempty"`
	Actual        string  `json:"actual,omitempty"`
	Property      string  `json:"property,omitempty"`
	PixelsChanged int     `json:"pixels_changed,omitempty"`
	ExpectedText  string  `json:"expected_text,omitempty"`
	ExpectedSize  float64 `json:"expected_size,omitempty"`
	ActualSize    float64 `json:"actual_size,omitempty"`
	Message       string  `json:"message,omitempty"`
}

func MissingSection(ref PageRef, section string) Issue {
	return Issue{Kind: IssueMissingSection, Page: ref.Page, Viewport: ref.Viewport, Section: section}
}

func VisualDiff(ref PageRef, pixels int) Issue {
	return Issue{Kind: IssueVisualDiff, Page: ref.Page, Viewport: ref.Viewport, PixelsChanged: pixels}
}

func MissingContent(ref PageRef, text string) Issue {
	return Issue{Kind: IssueMissingContent, Page: ref.Page, Viewport: ref.Viewport, ExpectedText: text}
}

func SizeMismatch(ref PageRef, section, dimension string, expected, actual float64) Issue {
	return Issue{
		Kind:         IssueSizeMismatch,
		Page:         ref.Page,
		Viewport:     ref.Viewport,
		Section:      section,
		Dimension:    dimension,
		ExpectedSize: expected,
		ActualSize:   actual,
	}
}

func StyleMismatch(ref PageRef, section, property, expected, actual string) Issue {
	return Issue{
		Kind:     IssueStyleMismatch,
		Page:     ref.Page,
		Viewport: ref.Viewport,
		Section:  section,
		Property: property,
		Expected: expected,
		Actual:   actual,
		Message:  property + ": expected " + expected + ", got " + actual,
	}
}

func AnalysisError(ref PageRef, section string, err error) Issue {
	return Issue{Kind: IssueAnalysisError, Page: ref.Page, Viewport: ref.Viewport, Section: section, Message: err.Error()}
}

// CountKind returns how many issues have the given kind.
func CountKind(issues []Issue, kind IssueKind) int {
	n := 0
	for _, is := range issues {
		if is.Kind == kind {
			n++
		}
	}
	return n
}

// Summary renders the issue as one human-readable line.
func (i Issue) Summary() string {
	switch i.Kind {
	case IssueMissingSection:
		return fmt.Sprintf("Section %q not found or not visible", i.Section)
	case IssueVisualDiff:
		return fmt.Sprintf("%d pixels differ from the baseline", i.PixelsChanged)
	case IssueMissingContent:
		return fmt.Sprintf("Expected text %q not found", i.ExpectedText)
	case IssueSizeMismatch:
		return fmt.Sprintf("Section %q %s is %.0fpx, expected %.0fpx", i.Section, i.Dimension, i.ActualSize, i.ExpectedSize)
	case IssueStyleMismatch:
		return fmt.Sprintf("Section %q %s", i.Section, i.Message)
	case IssueAnalysisError:
		if i.Section != "" {
			return fmt.Sprintf("Could not analyse %q: %s", i.Section, i.Message)
		}
		return "Analysis failed: " + i.Message
	}
	return string(i.Kind)
}
