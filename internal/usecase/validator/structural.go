package validator

import (
	"context"
	"fmt"
	"math"
	"time"

	"design-checker/internal/application/port/output"
	"design-checker/internal/domain/entity"
)

const DefaultSizeTolerance = 10.0

type Structural struct {
	q         queryRunner
	tolerance float64
	logger    output.LoggerPort
}

func NewStructural(browser output.BrowserPort, logger output.LoggerPort, queryTimeout time.Duration, tolerance float64) *Structural {
	if tolerance <= 0 {
		tolerance = DefaultSizeTolerance
	}
	return &Structural{
		q:         newQueryRunner(browser, queryTimeout),
		tolerance: tolerance,
		logger:    logger,
	}
}

// Validate checks each section in order. A failing lookup is recorded as an
// analysis_error and the remaining sections are still checked.
func (v *Structural) Validate(ctx context.Context, ref entity.PageRef, sections []entity.SectionRule) []entity.Issue {
	var issues []entity.Issue
	for _, rule := range sections {
		issues = append(issues, v.checkSection(ctx, ref, rule)...)
	}
	return issues
}

func (v *Structural) checkSection(ctx context.Context, ref entity.PageRef, rule entity.SectionRule) []entity.Issue {
	el, err := v.q.locate(ctx, rule.Selector)
	if err != nil {
		v.logger.Warn("Section lookup failed", "section", rule.Name, "error", err)
		return []entity.Issue{entity.AnalysisError(ref, rule.Name, err)}
	}
	if el == nil {
		v.logger.Debug("Section not found", "section", rule.Name, "selector", rule.Selector)
		return []entity.Issue{entity.MissingSection(ref, rule.Name)}
	}

	var visible bool
	err = v.q.query(ctx, func(ctx context.Context) error {
		var err error
		visible, err = v.q.browser.IsVisible(ctx, el)
		return err
	})
	if err != nil {
		return []entity.Issue{entity.AnalysisError(ref, rule.Name, fmt.Errorf("%w: visibility of %q: %v", ErrSelector, rule.Selector, err))}
	}
	if !visible {
		v.logger.Debug("Section hidden", "section", rule.Name)
		return []entity.Issue{entity.MissingSection(ref, rule.Name)}
	}

	if !rule.HasGeometry() {
		return nil
	}

	var box *entity.Box
	err = v.q.query(ctx, func(ctx context.Context) error {
		var err error
		box, err = v.q.browser.BoundingBox(ctx, el)
		return err
	})
	if err != nil {
		return []entity.Issue{entity.AnalysisError(ref, rule.Name, fmt.Errorf("%w: bounding box of %q: %v", ErrSelector, rule.Selector, err))}
	}
	if box == nil {
		v.logger.Debug("Section has no layout box, size check skipped", "section", rule.Name)
		return nil
	}

	var issues []entity.Issue
	if rule.ExpectedWidth != nil && math.Abs(box.Width-*rule.ExpectedWidth) > v.tolerance {
		issues = append(issues, entity.SizeMismatch(ref, rule.Name, "width", *rule.ExpectedWidth, box.Width))
	}
	if rule.ExpectedHeight != nil && math.Abs(box.Height-*rule.ExpectedHeight) > v.tolerance {
		issues = append(issues, entity.SizeMismatch(ref, rule.Name, "height", *rule.ExpectedHeight, box.Height))
	}
	return issues
}
