package validator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"design-checker/internal/application/port/output"
)

// ErrSelector marks a DOM lookup that failed outright, as opposed to one that
// matched nothing.
var ErrSelector = errors.New("selector lookup failed")

const defaultQueryTimeout = 5 * time.Second

type queryRunner struct {
	browser output.BrowserPort
	timeout time.Duration
}

func (q queryRunner) locate(ctx context.Context, selector string) (output.ElementHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	el, err := q.browser.LocateFirst(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSelector, selector, err)
	}
	return el, nil
}

func (q queryRunner) query(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	return fn(ctx)
}

func newQueryRunner(browser output.BrowserPort, timeout time.Duration) queryRunner {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return queryRunner{browser: browser, timeout: timeout}
}
