package output

import (
	"context"

	"design-checker/internal/domain/entity"
)

type Notifier interface {
	Notify(ctx context.Context, report *entity.ComplianceReport) error
}
