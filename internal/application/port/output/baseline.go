package output

import (
	"context"

	"design-checker/internal/domain/entity"
)

type BaselineKey struct {
	Page     string
	Viewport string
}

type BaselineResult struct {
	Baseline *entity.CapturedImage
	Created  bool
	Path     string
}

type BaselineStore interface {
	// GetOrCreate stores current as the baseline when none exists and reports
	// Created. An existing baseline is returned untouched. Baseline is nil when
	// Created is set.
	GetOrCreate(ctx context.Context, key BaselineKey, current *entity.CapturedImage) (*BaselineResult, error)
	Update(ctx context.Context, key BaselineKey, img *entity.CapturedImage) error
	List(ctx context.Context) ([]BaselineKey, error)
}
