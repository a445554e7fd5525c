package output

import (
	"context"

	"design-checker/internal/domain/entity"
)

type DesignSource interface {
	FetchSpec(ctx context.Context) (*entity.DesignSpec, error)
}
