package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"design-checker/internal/application/port/output"
	"design-checker/internal/domain/entity"
	"design-checker/internal/infrastructure/imagecodec"
	"design-checker/internal/infrastructure/storage"
)

var _ output.ReportWriter = (*Writer)(nil)

const (
	IndexJSON = "index.json"
	IndexHTML = "index.html"

	runDirLayout      = "2006-01-02_15-04-05"
	defaultThumbWidth = 480
	thumbSuffix       = ".thumb.png"
)

type Writer struct {
	root       string
	thumbWidth int
	logger     output.LoggerPort
}

// NewWriter stores run directories and the run index under root.
func NewWriter(root string, logger output.LoggerPort) (*Writer, error) {
	if err := os.MkdirAll(root, storage.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	return &Writer{root: root, thumbWidth: defaultThumbWidth, logger: logger}, nil
}

func (w *Writer) Root() string {
	return w.root
}

func (w *Writer) RunDir(runID string, started time.Time) (string, error) {
	name := started.UTC().Format(runDirLayout)
	dir := filepath.Join(w.root, name)
	if _, err := os.Stat(dir); err == nil {
		short := runID
		if len(short) > 8 {
			short = short[:8]
		}
		dir = filepath.Join(w.root, name+"_"+entity.SafeName(short))
	}
	if err := os.MkdirAll(dir, storage.DefaultDirMode); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	return dir, nil
}

func (w *Writer) SaveImage(ctx context.Context, path string, img *entity.CapturedImage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := imagecodec.EncodePNG(&buf, img); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

// BaseName is the file stem shared by a report's JSON, Markdown and HTML files.
func BaseName(page, viewport string) string {
	return entity.SafeName(page) + "_" + entity.SafeName(viewport)
}

func (w *Writer) Write(ctx context.Context, runDir string, r *entity.ComplianceReport) (*entity.IndexEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := BaseName(r.Page, r.Viewport)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	jsonPath := filepath.Join(runDir, base+".json")
	if err := writeFile(jsonPath, data); err != nil {
		return nil, err
	}

	markdown := Markdown(r, w.thumbnails(runDir, r.Screenshots))
	if err := writeFile(filepath.Join(runDir, base+".md"), []byte(markdown)); err != nil {
		return nil, err
	}

	page, err := RenderHTML(fmt.Sprintf("%s (%s) - %s", r.Page, r.Viewport, r.Status), markdown)
	if err != nil {
		return nil, err
	}
	htmlPath := filepath.Join(runDir, base+".html")
	if err := writeFile(htmlPath, page); err != nil {
		return nil, err
	}

	return w.entry(r, jsonPath, htmlPath), nil
}

// thumbnails writes a scaled copy next to every screenshot. Screenshots that
// cannot be read are linked at full size.
func (w *Writer) thumbnails(runDir string, shots []entity.ScreenshotRef) map[string]string {
	thumbs := make(map[string]string, len(shots))
	for _, shot := range shots {
		src := filepath.Join(runDir, filepath.FromSlash(shot.Path))
		img, err := imagecodec.LoadFile(src)
		if err != nil {
			w.logger.Warn("Skipping thumbnail", "path", src, "error", err)
			continue
		}
		if img.Width <= w.thumbWidth {
			continue
		}

		rel := strings.TrimSuffix(shot.Path, filepath.Ext(shot.Path)) + thumbSuffix
		var buf bytes.Buffer
		if err := imagecodec.EncodePNG(&buf, imagecodec.Thumbnail(img, w.thumbWidth)); err != nil {
			w.logger.Warn("Skipping thumbnail", "path", src, "error", err)
			continue
		}
		if err := writeFile(filepath.Join(runDir, filepath.FromSlash(rel)), buf.Bytes()); err != nil {
			w.logger.Warn("Skipping thumbnail", "path", src, "error", err)
			continue
		}
		thumbs[shot.Path] = rel
	}
	return thumbs
}

func (w *Writer) entry(r *entity.ComplianceReport, jsonPath, htmlPath string) *entity.IndexEntry {
	return &entity.IndexEntry{
		ReportID:   r.ID,
		RunID:      r.RunID,
		Timestamp:  r.Timestamp,
		Page:       r.Page,
		Viewport:   r.Viewport,
		Status:     r.Status,
		IssueCount: len(r.Issues),
		JSONPath:   w.rel(jsonPath),
		HTMLPath:   w.rel(htmlPath),
	}
}

func (w *Writer) rel(path string) string {
	if rel, err := filepath.Rel(w.root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

// WriteIndex rescans every run directory and rewrites index.json and
// index.html, newest report first.
func (w *Writer) WriteIndex(ctx context.Context) ([]entity.IndexEntry, error) {
	entries, err := w.Scan(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	if err := writeFile(filepath.Join(w.root, IndexJSON), data); err != nil {
		return nil, err
	}

	rows := make([]indexRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, indexRow{
			Timestamp:  e.Timestamp.Format("2006-01-02 15:04:05"),
			RunID:      e.RunID,
			Page:       e.Page,
			Viewport:   e.Viewport,
			Status:     string(e.Status),
			IssueCount: e.IssueCount,
			HTMLPath:   e.HTMLPath,
			JSONPath:   e.JSONPath,
		})
	}
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, indexData{Entries: rows}); err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	if err := writeFile(filepath.Join(w.root, IndexHTML), buf.Bytes()); err != nil {
		return nil, err
	}

	w.logger.Info("Run index written", "entries", len(entries), "path", filepath.Join(w.root, IndexJSON))
	return entries, nil
}

// Scan reads every report JSON under the run directories. Files that are not
// reports are skipped.
func (w *Writer) Scan(ctx context.Context) ([]entity.IndexEntry, error) {
	matches, err := filepath.Glob(filepath.Join(w.root, "*", "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan reports: %w", err)
	}

	entries := make([]entity.IndexEntry, 0, len(matches))
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read report %s: %w", path, err)
		}
		var r entity.ComplianceReport
		if err := json.Unmarshal(data, &r); err != nil || r.Page == "" || r.Timestamp.IsZero() {
			w.logger.Debug("Skipping non-report file", "path", path)
			continue
		}
		htmlPath := strings.TrimSuffix(path, ".json") + ".html"
		entries = append(entries, *w.entry(&r, path, htmlPath))
	}

	SortNewestFirst(entries)
	return entries, nil
}

func SortNewestFirst(entries []entity.IndexEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.After(entries[j].Timestamp)
		}
		if entries[i].Page != entries[j].Page {
			return entries[i].Page < entries[j].Page
		}
		return entries[i].Viewport < entries[j].Viewport
	})
}

// LoadIndex reads a previously written index.json.
func (w *Writer) LoadIndex() ([]entity.IndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(w.root, IndexJSON))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	var entries []entity.IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return entries, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), storage.DefaultDirMode); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, storage.DefaultFileMode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
