package designspec

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"design-checker/internal/application/port/output"
	"design-checker/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultSpecYAML []byte

var ErrDesignSource = errors.New("design source unavailable")

const (
	SourceExternal = "design-source"
	SourceConfig   = "config"
	SourceDefaults = "defaults"
)

// LoadDefaults parses the YAML spec at path, or the built-in one when path is empty.
func LoadDefaults(path string) (*entity.DesignSpec, error) {
	data := defaultSpecYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read design defaults: %w", err)
		}
	}
	return Parse(data)
}

func Parse(data []byte) (*entity.DesignSpec, error) {
	var spec entity.DesignSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse design spec: %w", err)
	}
	if spec.ExpectedSections == nil {
		spec.ExpectedSections = map[string][]string{}
	}
	if spec.ComponentGeometry == nil {
		spec.ComponentGeometry = map[string]entity.Geometry{}
	}
	return &spec, nil
}

type Resolver struct {
	source   output.DesignSource
	defaults *entity.DesignSpec
	logger   output.LoggerPort
}

// NewResolver takes a nil source when no design tool is configured.
func NewResolver(source output.DesignSource, defaults *entity.DesignSpec, logger output.LoggerPort) *Resolver {
	return &Resolver{
		source:   source,
		defaults: defaults,
		logger:   logger,
	}
}

// Resolve is called once per run. A failing design source is not fatal: the
// defaults are used for every page and a single warning is recorded.
func (r *Resolver) Resolve(ctx context.Context) *Resolved {
	res := &Resolved{defaults: r.defaults}
	if r.source == nil {
		r.logger.Info("No design source configured, using built-in design spec")
		return res
	}

	spec, err := r.source.FetchSpec(ctx)
	if err != nil {
		warning := fmt.Sprintf("%v: %v; falling back to built-in design spec", ErrDesignSource, err)
		r.logger.Warn("Design source fetch failed, using defaults", "error", err)
		res.Warnings = append(res.Warnings, warning)
		return res
	}

	r.logger.Info("Design spec loaded from design source",
		"pages", len(spec.ExpectedSections),
		"texts", len(spec.ExpectedTexts),
		"components", len(spec.ComponentGeometry))
	res.external = spec
	return res
}

// Resolved is read-only after Resolve returns.
type Resolved struct {
	external *entity.DesignSpec
	defaults *entity.DesignSpec
	Warnings []string
}

func (r *Resolved) UsesExternal() bool {
	return r.external != nil
}

// ForPage takes the whole page design from exactly one spec. The design
// source wins when it has a non-empty section list for the page, and then its
// texts, colours and geometry are used as they are, even when empty.
// Otherwise the built-in spec supplies everything, with the page's configured
// section list replacing the built-in one when set.
func (r *Resolved) ForPage(page entity.PageSpec) entity.PageDesign {
	pd := entity.PageDesign{Page: page.Name}

	if r.external != nil && len(r.external.ExpectedSections[page.Name]) > 0 {
		fill(&pd, r.external, r.external.ExpectedSections[page.Name])
		pd.Source = SourceExternal
		return pd
	}

	var sections []string
	if r.defaults != nil {
		sections = r.defaults.ExpectedSections[page.Name]
	}
	pd.Source = SourceDefaults
	if len(page.ExpectedSections) > 0 {
		sections = page.ExpectedSections
		pd.Source = SourceConfig
	}
	if r.defaults != nil {
		fill(&pd, r.defaults, sections)
	} else {
		pd.ExpectedSections = sections
	}
	return pd
}

func fill(pd *entity.PageDesign, spec *entity.DesignSpec, sections []string) {
	pd.ExpectedSections = sections
	pd.ExpectedTexts = spec.ExpectedTexts
	pd.ExpectedColors = spec.ExpectedColors
	pd.Geometry = spec.ComponentGeometry
}
