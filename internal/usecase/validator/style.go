package validator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"design-checker/internal/application/port/output"
	"design-checker/internal/domain/entity"
)

type Style struct {
	q      queryRunner
	exact  bool
	logger output.LoggerPort
}

// NewStyle builds a style validator. With exact unset a computed value is
// compliant when it contains the expected one after normalisation, which lets
// "Inter" match a full font stack.
func NewStyle(browser output.BrowserPort, logger output.LoggerPort, queryTimeout time.Duration, exact bool) *Style {
	return &Style{
		q:      newQueryRunner(browser, queryTimeout),
		exact:  exact,
		logger: logger,
	}
}

func (v *Style) Validate(ctx context.Context, ref entity.PageRef, rules []entity.StyleRule) []entity.Issue {
	var issues []entity.Issue
	for _, rule := range rules {
		issues = append(issues, v.checkRule(ctx, ref, rule)...)
	}
	return issues
}

func (v *Style) checkRule(ctx context.Context, ref entity.PageRef, rule entity.StyleRule) []entity.Issue {
	section := rule.Section
	if section == "" {
		section = rule.Selector
	}

	el, err := v.q.locate(ctx, rule.Selector)
	if err != nil {
		return []entity.Issue{entity.AnalysisError(ref, section, err)}
	}
	if el == nil {
		return []entity.Issue{entity.AnalysisError(ref, section, fmt.Errorf("%w: no element matches %q", ErrSelector, rule.Selector))}
	}

	props := make([]string, 0, len(rule.ExpectedProperties))
	for p := range rule.ExpectedProperties {
		props = append(props, p)
	}
	sort.Strings(props)

	var issues []entity.Issue
	for _, prop := range props {
		expected := rule.ExpectedProperties[prop]

		var actual string
		err := v.q.query(ctx, func(ctx context.Context) error {
			var err error
			actual, err = v.q.browser.ComputedStyle(ctx, el, prop)
			return err
		})
		if err != nil {
			issues = append(issues, entity.AnalysisError(ref, section, fmt.Errorf("%w: computed %s of %q: %v", ErrSelector, prop, rule.Selector, err)))
			continue
		}

		if !StyleMatches(expected, actual, v.exact) {
			v.logger.Debug("Style mismatch", "section", section, "property", prop, "expected", expected, "actual", actual)
			issues = append(issues, entity.StyleMismatch(ref, section, prop, expected, actual))
		}
	}
	return issues
}

// NormalizeStyleValue lower-cases v and drops quotes and whitespace.
func NormalizeStyleValue(v string) string {
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\'' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, v)
}

func StyleMatches(expected, actual string, exact bool) bool {
	e := NormalizeStyleValue(expected)
	a := NormalizeStyleValue(actual)
	if exact {
		return a == e
	}
	return strings.Contains(a, e)
}
