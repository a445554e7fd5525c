package input

import (
	"context"

	"design-checker/internal/domain/entity"
)

type ComplianceRunner interface {
	Run(ctx context.Context) (*entity.RunSummary, error)
}
