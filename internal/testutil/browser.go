// Package testutil holds in-memory stand-ins for the ports, shared by the
// use-case tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"design-checker/internal/application/port/output"
	"design-checker/internal/domain/entity"
)

var _ output.BrowserPort = (*FakeBrowser)(nil)

type FakeElement struct {
	Sel        string
	Hidden     bool
	Box        *entity.Box
	Styles     map[string]string
	VisibleErr error
	BoxErr     error
	StyleErr   map[string]error
}

func (e *FakeElement) Selector() string { return e.Sel }

// FakeBrowser answers DOM queries from a fixed selector table.
type FakeBrowser struct {
	mu sync.Mutex

	Elements     map[string]*FakeElement
	LocateErrors map[string]error
	Text         *entity.ExtractedText
	TextErr      error

	NavigateFunc   func(url string) error
	ScreenshotFunc func(url string, vp entity.Viewport) (*entity.CapturedImage, error)

	Navigations []string
	Viewports   []entity.Viewport
	Closed      bool

	url      string
	viewport entity.Viewport
}

func NewFakeBrowser() *FakeBrowser {
	return &FakeBrowser{
		Elements:     make(map[string]*FakeElement),
		LocateErrors: make(map[string]error),
		Text:         &entity.ExtractedText{},
	}
}

// Add registers a visible element for selector and returns it for tweaking.
func (b *FakeBrowser) Add(selector string) *FakeElement {
	el := &FakeElement{Sel: selector, Styles: map[string]string{}}
	b.Elements[selector] = el
	return el
}

func (b *FakeBrowser) SetViewport(ctx context.Context, vp entity.Viewport) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewport = vp
	b.Viewports = append(b.Viewports, vp)
	return nil
}

func (b *FakeBrowser) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	b.mu.Lock()
	b.Navigations = append(b.Navigations, url)
	fn := b.NavigateFunc
	b.mu.Unlock()

	if fn != nil {
		if err := fn(url); err != nil {
			return err
		}
	}

	b.mu.Lock()
	b.url = url
	b.mu.Unlock()
	return nil
}

func (b *FakeBrowser) Screenshot(ctx context.Context) (*entity.CapturedImage, error) {
	b.mu.Lock()
	url, vp, fn := b.url, b.viewport, b.ScreenshotFunc
	b.mu.Unlock()

	if fn != nil {
		return fn(url, vp)
	}
	w, h := vp.Width, vp.Height
	if w == 0 || h == 0 {
		w, h = 8, 8
	}
	img := entity.NewCapturedImage(w, h)
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img, nil
}

func (b *FakeBrowser) LocateFirst(ctx context.Context, selector string) (output.ElementHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := b.LocateErrors[selector]; ok {
		return nil, err
	}
	el, ok := b.Elements[selector]
	if !ok {
		return nil, nil
	}
	return el, nil
}

func (b *FakeBrowser) IsVisible(ctx context.Context, h output.ElementHandle) (bool, error) {
	el := h.(*FakeElement)
	if el.VisibleErr != nil {
		return false, el.VisibleErr
	}
	return !el.Hidden, nil
}

func (b *FakeBrowser) BoundingBox(ctx context.Context, h output.ElementHandle) (*entity.Box, error) {
	el := h.(*FakeElement)
	if el.BoxErr != nil {
		return nil, el.BoxErr
	}
	return el.Box, nil
}

func (b *FakeBrowser) ComputedStyle(ctx context.Context, h output.ElementHandle, property string) (string, error) {
	el := h.(*FakeElement)
	if err, ok := el.StyleErr[property]; ok {
		return "", err
	}
	return el.Styles[property], nil
}

func (b *FakeBrowser) ExtractText(ctx context.Context) (*entity.ExtractedText, error) {
	if b.TextErr != nil {
		return nil, b.TextErr
	}
	return b.Text, nil
}

func (b *FakeBrowser) CurrentURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.url
}

func (b *FakeBrowser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Closed = true
}

func Visible(texts ...string) []entity.TextFragment {
	out := make([]entity.TextFragment, 0, len(texts))
	for _, t := range texts {
		out = append(out, entity.TextFragment{Text: t, Visible: true})
	}
	return out
}

func Float(v float64) *float64 { return &v }
