package figma

import (
	"fmt"
	"math"
	"strings"

	"design-checker/internal/domain/entity"
)

type fileResponse struct {
	Document node `json:"document"`
}

type nodesResponse struct {
	Nodes map[string]*struct {
		Document node `json:"document"`
	} `json:"nodes"`
}

type node struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Visible     *bool   `json:"visible,omitempty"`
	Characters  string  `json:"characters,omitempty"`
	Children    []node  `json:"children,omitempty"`
	Fills       []paint `json:"fills,omitempty"`
	BoundingBox *rect   `json:"absoluteBoundingBox,omitempty"`
}

type paint struct {
	Type    string   `json:"type"`
	Visible *bool    `json:"visible,omitempty"`
	Opacity *float64 `json:"opacity,omitempty"`
	Color   *rgba    `json:"color,omitempty"`
}

type rgba struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

type rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (n node) hidden() bool {
	return n.Visible != nil && !*n.Visible
}

func isContainer(typ string) bool {
	switch typ {
	case "FRAME", "COMPONENT", "INSTANCE", "GROUP", "SECTION":
		return true
	}
	return false
}

// BuildSpec maps page nodes to a DesignSpec. Hidden nodes are skipped.
// Texts and colors are collected across all pages in document order without
// duplicates.
func BuildSpec(pages []node) *entity.DesignSpec {
	spec := &entity.DesignSpec{
		ExpectedSections:  map[string][]string{},
		ComponentGeometry: map[string]entity.Geometry{},
	}
	seenText := map[string]bool{}
	seenColor := map[string]bool{}

	var collect func(n node)
	collect = func(n node) {
		if n.hidden() {
			return
		}
		if n.Type == "TEXT" {
			text := strings.Join(strings.Fields(n.Characters), " ")
			if text != "" && !seenText[text] {
				seenText[text] = true
				spec.ExpectedTexts = append(spec.ExpectedTexts, text)
			}
		}
		for _, p := range n.Fills {
			if hex, ok := p.hex(); ok && !seenColor[hex] {
				seenColor[hex] = true
				spec.ExpectedColors = append(spec.ExpectedColors, hex)
			}
		}
		for _, c := range n.Children {
			collect(c)
		}
	}

	for _, page := range pages {
		if page.hidden() {
			continue
		}
		pageName := Slug(page.Name)
		var sections []string
		for _, child := range page.Children {
			if child.hidden() || !isContainer(child.Type) {
				continue
			}
			name := Slug(child.Name)
			sections = append(sections, name)
			if child.BoundingBox != nil {
				if _, exists := spec.ComponentGeometry[name]; !exists {
					spec.ComponentGeometry[name] = entity.Geometry{
						Width:  child.BoundingBox.Width,
						Height: child.BoundingBox.Height,
					}
				}
			}
		}
		if len(sections) > 0 {
			spec.ExpectedSections[pageName] = sections
		}
		collect(page)
	}
	return spec
}

func (p paint) hex() (string, bool) {
	if p.Type != "SOLID" || p.Color == nil {
		return "", false
	}
	if p.Visible != nil && !*p.Visible {
		return "", false
	}
	if p.Opacity != nil && *p.Opacity == 0 {
		return "", false
	}
	return fmt.Sprintf("#%02x%02x%02x", channel(p.Color.R), channel(p.Color.G), channel(p.Color.B)), true
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// Slug lowercases a layer name and joins its words with hyphens.
func Slug(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}
