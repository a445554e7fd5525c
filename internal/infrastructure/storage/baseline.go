package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"design-checker/internal/application/port/output"
	"design-checker/internal/domain/entity"
	"design-checker/internal/infrastructure/imagecodec"

	"github.com/gofrs/flock"
)

var _ output.BaselineStore = (*BaselineStore)(nil)

var ErrCorruptBaseline = errors.New("baseline unreadable")

const (
	DefaultDirMode  = 0755
	DefaultFileMode = 0644
	baselineExt     = ".png"
)

// BaselineStore keeps one PNG per (page, viewport) under
// <dir>/<page>/<viewport>.png. Creation is guarded by a per-key file lock so
// two processes never both write the first baseline.
type BaselineStore struct {
	dir         string
	lockTimeout time.Duration
	mu          sync.Mutex
	logger      output.LoggerPort
}

func NewBaselineStore(dir string, logger output.LoggerPort) (*BaselineStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("baseline dir is required")
	}
	if err := os.MkdirAll(dir, DefaultDirMode); err != nil {
		return nil, fmt.Errorf("create baselines dir: %w", err)
	}
	return &BaselineStore{
		dir:         dir,
		lockTimeout: 10 * time.Second,
		logger:      logger,
	}, nil
}

func (s *BaselineStore) Path(key output.BaselineKey) string {
	return filepath.Join(s.dir, entity.SafeName(key.Page), entity.SafeName(key.Viewport)+baselineExt)
}

func (s *BaselineStore) GetOrCreate(ctx context.Context, key output.BaselineKey, current *entity.CapturedImage) (*output.BaselineResult, error) {
	if current == nil {
		return nil, fmt.Errorf("baseline %s/%s: no current image", key.Page, key.Viewport)
	}

	path := s.Path(key)
	var result *output.BaselineResult

	err := s.withLock(ctx, path, func() error {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			img, err := imagecodec.Decode(data)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrCorruptBaseline, path, err)
			}
			result = &output.BaselineResult{Baseline: img, Path: path}
			return nil
		case !os.IsNotExist(err):
			return fmt.Errorf("%w: %s: %v", ErrCorruptBaseline, path, err)
		}

		if err := s.write(path, current); err != nil {
			return err
		}
		result = &output.BaselineResult{Created: true, Path: path}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Created {
		s.logger.Info("Baseline created", "page", key.Page, "viewport", key.Viewport, "path", path)
	}
	return result, nil
}

// Update replaces the stored baseline. It is only reached through an explicit
// operator action, never from a check run.
func (s *BaselineStore) Update(ctx context.Context, key output.BaselineKey, img *entity.CapturedImage) error {
	if img == nil {
		return fmt.Errorf("baseline %s/%s: no image", key.Page, key.Viewport)
	}
	path := s.Path(key)
	err := s.withLock(ctx, path, func() error {
		return s.write(path, img)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Baseline updated", "page", key.Page, "viewport", key.Viewport, "path", path)
	return nil
}

func (s *BaselineStore) List(ctx context.Context) ([]output.BaselineKey, error) {
	pages, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []output.BaselineKey{}, nil
		}
		return nil, fmt.Errorf("read baselines dir: %w", err)
	}

	var keys []output.BaselineKey
	for _, page := range pages {
		if !page.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.dir, page.Name()))
		if err != nil {
			return nil, fmt.Errorf("read baselines for %s: %w", page.Name(), err)
		}
		for _, f := range files {
			if f.IsDir() || filepath.Ext(f.Name()) != baselineExt {
				continue
			}
			keys = append(keys, output.BaselineKey{
				Page:     page.Name(),
				Viewport: strings.TrimSuffix(f.Name(), baselineExt),
			})
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Page != keys[j].Page {
			return keys[i].Page < keys[j].Page
		}
		return keys[i].Viewport < keys[j].Viewport
	})
	return keys, nil
}

// write encodes img and moves it into place with a rename so readers never
// see a half-written baseline. Must be called with the key lock held.
func (s *BaselineStore) write(path string, img *entity.CapturedImage) error {
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirMode); err != nil {
		return fmt.Errorf("create baseline dir: %w", err)
	}

	var buf bytes.Buffer
	if err := imagecodec.EncodePNG(&buf, img); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".baseline-*")
	if err != nil {
		return fmt.Errorf("create temp baseline: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write baseline: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close baseline: %w", err)
	}
	if err := os.Chmod(tmpName, DefaultFileMode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod baseline: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename baseline: %w", err)
	}
	return nil
}

func (s *BaselineStore) withLock(ctx context.Context, path string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), DefaultDirMode); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}

	fileLock := flock.New(path + ".lock")

	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire baseline lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire baseline lock within %v", s.lockTimeout)
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			s.logger.Warn("Failed to release baseline lock", "path", path, "error", err)
		}
	}()

	return fn()
}
