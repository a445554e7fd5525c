package reportserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"design-checker/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIndex struct {
	entries []entity.IndexEntry
	err     error
	scans   int
	writes  int
}

func (s *stubIndex) Scan(ctx context.Context) ([]entity.IndexEntry, error) {
	s.scans++
	return s.entries, s.err
}

func (s *stubIndex) WriteIndex(ctx context.Context) ([]entity.IndexEntry, error) {
	s.writes++
	return s.entries, s.err
}

func newTestServer(t *testing.T, index IndexSource) (*httptest.Server, string) {
	t.Helper()
	root := t.TempDir()
	ts := httptest.NewServer(New(root, index).Handler())
	t.Cleanup(ts.Close)
	return ts, root
}

func TestServer_Index(t *testing.T) {
	idx := &stubIndex{entries: []entity.IndexEntry{{
		ReportID:  "r1",
		Page:      "home",
		Viewport:  "mobile",
		Status:    entity.StatusPass,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}}
	ts, _ := newTestServer(t, idx)

	resp, err := http.Get(ts.URL + "/api/index")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got []entity.IndexEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "home", got[0].Page)

	assert.Equal(t, 1, idx.scans)
	assert.Zero(t, idx.writes, "reading the index must not rewrite it")
}

func TestServer_IndexError(t *testing.T) {
	ts, _ := newTestServer(t, &stubIndex{err: errors.New("disk full")})

	resp, err := http.Get(ts.URL + "/api/index")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestServer_ServesRunFiles(t *testing.T) {
	ts, root := newTestServer(t, &stubIndex{})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2026-01-02_03-04-05"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "2026-01-02_03-04-05", "home_desktop.md"), []byte("# Report"), 0644))

	resp, err := http.Get(ts.URL + "/runs/2026-01-02_03-04-05/home_desktop.md")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "# Report", string(body))
}

func TestServer_RootRedirects(t *testing.T) {
	ts, _ := newTestServer(t, &stubIndex{})
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/runs/index.html", resp.Header.Get("Location"))
}

func TestServer_Health(t *testing.T) {
	ts, _ := newTestServer(t, &stubIndex{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
