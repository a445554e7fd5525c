package output

import (
	"context"
	"time"

	"design-checker/internal/domain/entity"
)

// ElementHandle is an opaque reference to a located DOM element.
type ElementHandle interface {
	Selector() string
}

type BrowserPort interface {
	SetViewport(ctx context.Context, vp entity.Viewport) error
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	Screenshot(ctx context.Context) (*entity.CapturedImage, error)

	// LocateFirst returns (nil, nil) when nothing matches.
	LocateFirst(ctx context.Context, selector string) (ElementHandle, error)
	IsVisible(ctx context.Context, el ElementHandle) (bool, error)
	// BoundingBox returns (nil, nil) when the element has no layout box.
	BoundingBox(ctx context.Context, el ElementHandle) (*entity.Box, error)
	ComputedStyle(ctx context.Context, el ElementHandle, property string) (string, error)
	ExtractText(ctx context.Context) (*entity.ExtractedText, error)

	CurrentURL() string
	Close()
}
