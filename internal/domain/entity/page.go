package entity

import (
	"fmt"
	"strings"
)

type PageSpec struct {
	Name             string   `json:"name" toml:"name"`
	URL              string   `json:"url" toml:"url"`
	ExpectedSections []string `json:"expected_sections,omitempty" toml:"expected_sections"`
}

type Viewport struct {
	Name   string `json:"name" toml:"name"`
	Width  int    `json:"width" toml:"width"`
	Height int    `json:"height" toml:"height"`
}

// PageRef identifies one page x viewport iteration. Every issue carries it.
type PageRef struct {
	Page     string `json:"page"`
	Viewport string `json:"viewport"`
	URL      string `json:"url,omitempty"`
}

type SectionRule struct {
	Name           string   `json:"name" toml:"name"`
	Selector       string   `json:"selector" toml:"selector"`
	ExpectedWidth  *float64 `json:"expected_width,omitempty" toml:"expected_width"`
	ExpectedHeight *float64 `json:"expected_height,omitempty" toml:"expected_height"`
}

func (r SectionRule) HasGeometry() bool {
	return r.ExpectedWidth != nil || r.ExpectedHeight != nil
}

type StyleRule struct {
	Section            string            `json:"section,omitempty" toml:"section"`
	Selector           string            `json:"selector" toml:"selector"`
	ExpectedProperties map[string]string `json:"expected_properties" toml:"expected_properties"`
}

type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type TextFragment struct {
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

type ExtractedText struct {
	Headings   []TextFragment `json:"headings"`
	Paragraphs []TextFragment `json:"paragraphs"`
	Buttons    []TextFragment `json:"buttons"`
	Links      []TextFragment `json:"links"`
}

// All returns every fragment in headings, paragraphs, buttons, links order.
func (t ExtractedText) All() []TextFragment {
	all := make([]TextFragment, 0, len(t.Headings)+len(t.Paragraphs)+len(t.Buttons)+len(t.Links))
	all = append(all, t.Headings...)
	all = append(all, t.Paragraphs...)
	all = append(all, t.Buttons...)
	all = append(all, t.Links...)
	return all
}

// DefaultSectionSelector matches a section by data attribute, class or id.
func DefaultSectionSelector(name string) string {
	return fmt.Sprintf("[data-section='%s'], .%s, #%s", name, name, name)
}

// BuildSectionRules returns one rule per name, in order. selectors overrides
// the default selector per section and may be nil. Geometry is attached where
// the design knows a positive width or height.
func BuildSectionRules(names []string, geometry map[string]Geometry, selectors map[string]string) []SectionRule {
	rules := make([]SectionRule, 0, len(names))
	for _, name := range names {
		rule := SectionRule{Name: name, Selector: selectors[name]}
		if rule.Selector == "" {
			rule.Selector = DefaultSectionSelector(name)
		}
		if g, ok := geometry[name]; ok {
			w, h := g.Width, g.Height
			if w > 0 {
				rule.ExpectedWidth = &w
			}
			if h > 0 {
				rule.ExpectedHeight = &h
			}
		}
		rules = append(rules, rule)
	}
	return rules
}

// SafeName maps a page or viewport name onto a single path element.
func SafeName(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, s)
	if s == "" || strings.Trim(s, "_") == "" {
		return "unnamed"
	}
	return s
}
