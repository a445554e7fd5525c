package entity

type Geometry struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

type DesignSpec struct {
	ExpectedSections  map[string][]string `json:"expected_sections" yaml:"expected_sections"`
	ExpectedTexts     []string            `json:"expected_texts" yaml:"expected_texts"`
	ExpectedColors    []string            `json:"expected_colors" yaml:"expected_colors"`
	ComponentGeometry map[string]Geometry `json:"component_geometry" yaml:"component_geometry"`
}

// PageDesign is the design spec resolved for a single page.
type PageDesign struct {
	Page             string
	ExpectedSections []string
	ExpectedTexts    []string
	ExpectedColors   []string
	Geometry         map[string]Geometry
	Source           string
}
