package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"design-checker/internal/application/port/output"
	"design-checker/internal/domain/entity"
)

var (
	_ output.BaselineStore = (*MemoryBaselines)(nil)
	_ output.ReportWriter  = (*MemoryReports)(nil)
	_ output.Notifier      = (*RecordingNotifier)(nil)
	_ output.DesignSource  = (*StaticDesignSource)(nil)
)

// MemoryBaselines keeps baselines in a map. Err, when set, is returned for every key.
type MemoryBaselines struct {
	mu     sync.Mutex
	Images map[output.BaselineKey]*entity.CapturedImage
	Err    error
}

func NewMemoryBaselines() *MemoryBaselines {
	return &MemoryBaselines{Images: make(map[output.BaselineKey]*entity.CapturedImage)}
}

func (m *MemoryBaselines) GetOrCreate(ctx context.Context, key output.BaselineKey, current *entity.CapturedImage) (*output.BaselineResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	path := filepath.Join("baselines", key.Page, key.Viewport+".png")
	if img, ok := m.Images[key]; ok {
		return &output.BaselineResult{Baseline: img, Path: path}, nil
	}
	m.Images[key] = current
	return &output.BaselineResult{Created: true, Path: path}, nil
}

func (m *MemoryBaselines) Update(ctx context.Context, key output.BaselineKey, img *entity.CapturedImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Images[key] = img
	return nil
}

func (m *MemoryBaselines) List(ctx context.Context) ([]output.BaselineKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]output.BaselineKey, 0, len(m.Images))
	for k := range m.Images {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Page != keys[j].Page {
			return keys[i].Page < keys[j].Page
		}
		return keys[i].Viewport < keys[j].Viewport
	})
	return keys, nil
}

// MemoryReports records everything a run writes.
type MemoryReports struct {
	mu          sync.Mutex
	Images      map[string]*entity.CapturedImage
	Reports     []*entity.ComplianceReport
	IndexWrites int
}

func NewMemoryReports() *MemoryReports {
	return &MemoryReports{Images: make(map[string]*entity.CapturedImage)}
}

func (m *MemoryReports) RunDir(runID string, started time.Time) (string, error) {
	return filepath.Join("runs", started.UTC().Format("2006-01-02_15-04-05")), nil
}

func (m *MemoryReports) SaveImage(ctx context.Context, path string, img *entity.CapturedImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Images[path] = img
	return nil
}

func (m *MemoryReports) Write(ctx context.Context, runDir string, r *entity.ComplianceReport) (*entity.IndexEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reports = append(m.Reports, r)
	base := fmt.Sprintf("%s_%s", r.Page, r.Viewport)
	return &entity.IndexEntry{
		ReportID:   r.ID,
		RunID:      r.RunID,
		Timestamp:  r.Timestamp,
		Page:       r.Page,
		Viewport:   r.Viewport,
		Status:     r.Status,
		IssueCount: len(r.Issues),
		JSONPath:   filepath.Join(runDir, base+".json"),
		HTMLPath:   filepath.Join(runDir, base+".html"),
	}, nil
}

func (m *MemoryReports) WriteIndex(ctx context.Context) ([]entity.IndexEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IndexWrites++
	return nil, nil
}

// RecordingNotifier stores notified reports and returns Err.
type RecordingNotifier struct {
	mu       sync.Mutex
	Notified []*entity.ComplianceReport
	Err      error
}

func (n *RecordingNotifier) Notify(ctx context.Context, r *entity.ComplianceReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notified = append(n.Notified, r)
	return n.Err
}

func (n *RecordingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Notified)
}

// StaticDesignSource returns Spec or Err.
type StaticDesignSource struct {
	Spec *entity.DesignSpec
	Err  error
}

func (s *StaticDesignSource) FetchSpec(ctx context.Context) (*entity.DesignSpec, error) {
	return s.Spec, s.Err
}
