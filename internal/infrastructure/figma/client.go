package figma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"design-checker/internal/application/port/output"
	"design-checker/internal/domain/entity"
	"design-checker/internal/infrastructure/httpx"
)

var (
	ErrAuth     = errors.New("figma: authentication failed")
	ErrNotFound = errors.New("figma: file or node not found")
	ErrNetwork  = errors.New("figma: network error")
	ErrResponse = errors.New("figma: unexpected response")
)

var _ output.DesignSource = (*Client)(nil)

const (
	DefaultBaseURL = "https://api.figma.com/v1"
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 32 << 20
)

type Config struct {
	Token   string
	FileID  string
	NodeIDs []string
	BaseURL string
	Timeout time.Duration
	Logger  output.LoggerPort
}

// Client reads a Figma file and turns its frames into a DesignSpec. Each
// requested node (or each top-level frame of every canvas when no node IDs are
// configured) is a page; its direct child frames are that page's sections.
type Client struct {
	http    *http.Client
	token   string
	fileID  string
	nodeIDs []string
	baseURL string
	logger  output.LoggerPort
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		http:    httpx.NewClient(cfg.Logger, cfg.Timeout),
		token:   cfg.Token,
		fileID:  cfg.FileID,
		nodeIDs: cfg.NodeIDs,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  cfg.Logger,
	}
}

func (c *Client) FetchSpec(ctx context.Context) (*entity.DesignSpec, error) {
	var roots []node

	if len(c.nodeIDs) > 0 {
		var resp nodesResponse
		endpoint := fmt.Sprintf("%s/files/%s/nodes?ids=%s", c.baseURL, url.PathEscape(c.fileID), url.QueryEscape(strings.Join(c.nodeIDs, ",")))
		if err := c.get(ctx, endpoint, &resp); err != nil {
			return nil, err
		}
		for _, id := range c.nodeIDs {
			wrapped, ok := resp.Nodes[id]
			if !ok || wrapped == nil {
				return nil, fmt.Errorf("%w: node %s", ErrNotFound, id)
			}
			roots = append(roots, wrapped.Document)
		}
	} else {
		var resp fileResponse
		endpoint := fmt.Sprintf("%s/files/%s", c.baseURL, url.PathEscape(c.fileID))
		if err := c.get(ctx, endpoint, &resp); err != nil {
			return nil, err
		}
		for _, canvas := range resp.Document.Children {
			if canvas.Type != "CANVAS" {
				continue
			}
			for _, child := range canvas.Children {
				if isContainer(child.Type) {
					roots = append(roots, child)
				}
			}
		}
	}

	spec := BuildSpec(roots)
	if c.logger != nil {
		c.logger.Debug("Figma spec parsed",
			"pages", len(spec.ExpectedSections),
			"texts", len(spec.ExpectedTexts),
			"colors", len(spec.ExpectedColors))
	}
	return spec, nil
}

func (c *Client) get(ctx context.Context, endpoint string, into interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("figma: build request: %w", err)
	}
	req.Header.Set("X-Figma-Token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuth, resp.Status)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, resp.Status)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", ErrNetwork, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: %s", ErrResponse, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	if err := json.Unmarshal(body, into); err != nil {
		return fmt.Errorf("%w: %v", ErrResponse, err)
	}
	return nil
}
