package output

import (
	"context"
	"time"

	"design-checker/internal/domain/entity"
)

type ReportWriter interface {
	// RunDir creates the artifact directory for a run, namespaced by start time.
	RunDir(runID string, started time.Time) (string, error)
	SaveImage(ctx context.Context, path string, img *entity.CapturedImage) error
	Write(ctx context.Context, runDir string, report *entity.ComplianceReport) (*entity.IndexEntry, error)
	WriteIndex(ctx context.Context) ([]entity.IndexEntry, error)
}
