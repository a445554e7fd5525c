package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"design-checker/internal/application/port/output"
)

// LoggingTransport logs every outbound request and its response status.
// JSON request bodies are logged when LogBodies is set.
type LoggingTransport struct {
	Base      http.RoundTripper
	Logger    output.LoggerPort
	LogBodies bool
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Logger == nil {
		return base.RoundTrip(req)
	}

	fields := []interface{}{"method", req.Method, "url", safeURL(req)}
	if t.LogBodies && req.Body != nil {
		bodyBytes, _ := io.ReadAll(req.Body)
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var requestData map[string]interface{}
		if json.Unmarshal(bodyBytes, &requestData) == nil {
			fields = append(fields, "body", requestData)
		}
	}
	t.Logger.Debug("HTTP Request", fields...)

	start := time.Now()
	resp, err := base.RoundTrip(req)
	if err != nil {
		t.Logger.Warn("HTTP Request failed", "url", safeURL(req), "error", err)
		return resp, err
	}

	t.Logger.Debug("HTTP Response",
		"status", resp.Status,
		"statusCode", resp.StatusCode,
		"duration", time.Since(start).String(),
	)
	return resp, nil
}

// NewClient returns an http.Client with a LoggingTransport and the given timeout.
func NewClient(logger output.LoggerPort, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &LoggingTransport{Base: http.DefaultTransport, Logger: logger},
	}
}

func safeURL(req *http.Request) string {
	u := *req.URL
	u.User = nil
	return u.String()
}
