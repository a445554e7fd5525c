package rod

import (
	"context"
	"errors"
	"fmt"
	"time"

	"design-checker/internal/application/port/output"
	"design-checker/internal/domain/entity"
	"design-checker/internal/infrastructure/imagecodec"
	"design-checker/internal/infrastructure/textextract"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var (
	ErrNavigation     = errors.New("navigation failed")
	ErrForeignElement = errors.New("element handle not created by this browser")
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

const (
	defaultTimeout    = 5 * time.Second
	defaultNavTimeout = 30 * time.Second
	computedStyleJS   = `function (prop) { return window.getComputedStyle(this).getPropertyValue(prop); }`
)

// renderedBodyJS returns a copy of <body> in which every text fragment the
// page does not render carries the hidden attribute. Rendering is taken from
// the live layout, so stylesheet rules and media queries count.
const renderedBodyJS = `() => {
	const sel = 'h1,h2,h3,h4,h5,h6,p,button,a,[role=button]';
	const copy = document.body.cloneNode(true);
	const marks = copy.querySelectorAll(sel);
	document.body.querySelectorAll(sel).forEach((el, i) => {
		const shown = el.checkVisibility
			? el.checkVisibility({ checkVisibilityCSS: true })
			: getComputedStyle(el).visibility !== 'hidden';
		if (!shown || el.getClientRects().length === 0) {
			marks[i].setAttribute('hidden', '');
		}
	});
	return copy.outerHTML;
}`

type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
	settle   time.Duration
}

type BrowserConfig struct {
	Headless  bool
	NoSandbox bool
	// Timeout bounds every DOM query and screenshot.
	Timeout time.Duration
	// SettleDelay waits for network idle after load, up to this long.
	SettleDelay time.Duration
	// ControlURL connects to an already running browser instead of launching one.
	ControlURL string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:  true,
		NoSandbox: false,
		Timeout:   defaultTimeout,
	}
}

type element struct {
	selector string
	el       *rod.Element
}

func (e *element) Selector() string { return e.selector }

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	var l *launcher.Launcher
	controlURL := cfg.ControlURL
	if controlURL == "" {
		l = launcher.New().
			Headless(cfg.Headless).
			NoSandbox(cfg.NoSandbox).
			Delete("use-mock-keychain").
			Set("hide-scrollbars").
			Set("force-color-profile", "srgb")

		u, err := l.Context(ctx).Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	// The connect context only covers startup.
	browser = browser.Context(context.Background())

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		if l != nil {
			l.Kill()
		}
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &BrowserAdapter{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
		settle:   cfg.SettleDelay,
	}, nil
}

func (b *BrowserAdapter) SetViewport(ctx context.Context, vp entity.Viewport) error {
	err := b.page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            vp.Height,
		DeviceScaleFactor: 1,
		Mobile:            vp.Width < 768,
	})
	if err != nil {
		return fmt.Errorf("set viewport %s: %w", vp.Name, err)
	}
	return nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultNavTimeout
	}
	p := b.page.Context(ctx).Timeout(timeout)

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %s: wait load: %v", ErrNavigation, url, err)
	}
	if b.settle > 0 {
		// Best effort; pages with long-polling never go idle.
		_ = b.page.Context(ctx).WaitIdle(b.settle)
	}
	return nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.CapturedImage, error) {
	data, err := b.page.Context(ctx).Timeout(b.timeout).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, err := imagecodec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("screenshot decode failed: %w", err)
	}
	return img, nil
}

func (b *BrowserAdapter) LocateFirst(ctx context.Context, selector string) (output.ElementHandle, error) {
	els, err := b.page.Context(ctx).Timeout(b.timeout).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	if els.Empty() {
		return nil, nil
	}
	return &element{selector: selector, el: els.First()}, nil
}

func (b *BrowserAdapter) IsVisible(ctx context.Context, h output.ElementHandle) (bool, error) {
	el, err := b.unwrap(ctx, h)
	if err != nil {
		return false, err
	}
	visible, err := el.Visible()
	if err != nil {
		return false, fmt.Errorf("visibility of %q: %w", h.Selector(), err)
	}
	return visible, nil
}

func (b *BrowserAdapter) BoundingBox(ctx context.Context, h output.ElementHandle) (*entity.Box, error) {
	el, err := b.unwrap(ctx, h)
	if err != nil {
		return nil, err
	}
	shape, err := el.Shape()
	if err != nil {
		return nil, fmt.Errorf("bounding box of %q: %w", h.Selector(), err)
	}
	rect := shape.Box()
	if rect == nil {
		return nil, nil
	}
	return &entity.Box{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height}, nil
}

func (b *BrowserAdapter) ComputedStyle(ctx context.Context, h output.ElementHandle, property string) (string, error) {
	el, err := b.unwrap(ctx, h)
	if err != nil {
		return "", err
	}
	res, err := el.Eval(computedStyleJS, property)
	if err != nil {
		return "", fmt.Errorf("computed style %s of %q: %w", property, h.Selector(), err)
	}
	return jsonString(res.Value), nil
}

// ExtractText reads the page's text fragments. Visibility comes from the
// rendered page, textextract only cleans up the text.
func (b *BrowserAdapter) ExtractText(ctx context.Context) (*entity.ExtractedText, error) {
	res, err := b.page.Context(ctx).Timeout(b.timeout).Eval(renderedBodyJS)
	if err != nil {
		return nil, fmt.Errorf("failed to get HTML: %w", err)
	}
	return textextract.Extract(jsonString(res.Value))
}

func (b *BrowserAdapter) CurrentURL() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) Close() {
	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}

func (b *BrowserAdapter) unwrap(ctx context.Context, h output.ElementHandle) (*rod.Element, error) {
	e, ok := h.(*element)
	if !ok || e == nil || e.el == nil {
		return nil, ErrForeignElement
	}
	return e.el.Context(ctx).Timeout(b.timeout), nil
}

func jsonString(v gson.JSON) string {
	if v.Nil() {
		return ""
	}
	return v.Str()
}
