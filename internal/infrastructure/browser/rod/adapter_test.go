package rod

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"design-checker/internal/domain/entity"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const compliancePage = `<!DOCTYPE html>
<html>
<head><style>
  body { margin: 0; font-family: sans-serif; }
  header { height: 80px; background: rgb(26, 26, 46); color: #ffffff; }
  .hero { height: 400px; }
  .ghost { display: none; }
  @media (max-width: 600px) { .promo { display: none; } }
</style></head>
<body>
  <header data-section="header"><h1>Local → Global</h1></header>
  <section class="hero"><p>We ship everywhere.</p><button>Get started</button></section>
  <div class="ghost"><p>Secret</p></div>
  <p class="promo">Limited offer</p>
  <footer id="footer"><a href="/contact">Contact us</a></footer>
</body>
</html>`

func newTestAdapter(t *testing.T) *BrowserAdapter {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests skipped in short mode")
	}
	if _, found := launcher.LookPath(); !found {
		t.Skip("no Chrome/Chromium available")
	}

	cfg := DefaultConfig()
	adapter, err := NewBrowserAdapter(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(adapter.Close)
	return adapter
}

func newPageServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Headless)
	assert.False(t, cfg.NoSandbox)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.Empty(t, cfg.ControlURL)
}

func TestBrowserAdapter_ForeignHandle(t *testing.T) {
	b := &BrowserAdapter{timeout: time.Second}

	_, err := b.IsVisible(context.Background(), fakeHandle("x"))
	assert.ErrorIs(t, err, ErrForeignElement)

	_, err = b.BoundingBox(context.Background(), fakeHandle("x"))
	assert.ErrorIs(t, err, ErrForeignElement)

	_, err = b.ComputedStyle(context.Background(), fakeHandle("x"), "color")
	assert.ErrorIs(t, err, ErrForeignElement)
}

type fakeHandle string

func (f fakeHandle) Selector() string { return string(f) }

func TestBrowserAdapter_NavigateAndScreenshot(t *testing.T) {
	adapter := newTestAdapter(t)
	server := newPageServer(t, compliancePage)
	ctx := context.Background()

	require.NoError(t, adapter.SetViewport(ctx, entity.Viewport{Name: "tablet", Width: 768, Height: 1024}))
	require.NoError(t, adapter.Navigate(ctx, server.URL, 10*time.Second))
	assert.Equal(t, server.URL+"/", adapter.CurrentURL())

	img, err := adapter.Screenshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 768, img.Width)
	assert.Equal(t, 1024, img.Height)

	again, err := adapter.Screenshot(ctx)
	require.NoError(t, err)
	assert.True(t, img.SameSize(again))
}

func TestBrowserAdapter_Navigate_Unreachable(t *testing.T) {
	adapter := newTestAdapter(t)
	server := newPageServer(t, compliancePage)
	url := server.URL
	server.Close()

	err := adapter.Navigate(context.Background(), url, 5*time.Second)
	assert.ErrorIs(t, err, ErrNavigation)
}

func TestBrowserAdapter_DOMQueries(t *testing.T) {
	adapter := newTestAdapter(t)
	server := newPageServer(t, compliancePage)
	ctx := context.Background()

	require.NoError(t, adapter.SetViewport(ctx, entity.Viewport{Name: "desktop", Width: 1280, Height: 800}))
	require.NoError(t, adapter.Navigate(ctx, server.URL, 10*time.Second))

	t.Run("missing selector", func(t *testing.T) {
		el, err := adapter.LocateFirst(ctx, ".pricing")
		require.NoError(t, err)
		assert.Nil(t, el)
	})

	t.Run("visible element with box", func(t *testing.T) {
		el, err := adapter.LocateFirst(ctx, "[data-section='header']")
		require.NoError(t, err)
		require.NotNil(t, el)

		visible, err := adapter.IsVisible(ctx, el)
		require.NoError(t, err)
		assert.True(t, visible)

		box, err := adapter.BoundingBox(ctx, el)
		require.NoError(t, err)
		require.NotNil(t, box)
		assert.InDelta(t, 1280, box.Width, 1)
		assert.InDelta(t, 80, box.Height, 1)

		bg, err := adapter.ComputedStyle(ctx, el, "background-color")
		require.NoError(t, err)
		assert.Equal(t, "rgb(26, 26, 46)", bg)
	})

	t.Run("hidden element", func(t *testing.T) {
		el, err := adapter.LocateFirst(ctx, ".ghost")
		require.NoError(t, err)
		require.NotNil(t, el)

		visible, err := adapter.IsVisible(ctx, el)
		require.NoError(t, err)
		assert.False(t, visible)
	})

	t.Run("extract text", func(t *testing.T) {
		text, err := adapter.ExtractText(ctx)
		require.NoError(t, err)

		require.Len(t, text.Headings, 1)
		assert.Equal(t, "Local → Global", text.Headings[0].Text)
		require.Len(t, text.Buttons, 1)
		assert.Equal(t, "Get started", text.Buttons[0].Text)
		require.Len(t, text.Links, 1)
		assert.Equal(t, "Contact us", text.Links[0].Text)

		visible := map[string]bool{}
		for _, p := range text.Paragraphs {
			visible[p.Text] = p.Visible
		}
		assert.True(t, visible["We ship everywhere."])
		assert.False(t, visible["Secret"], "hidden by a stylesheet class")
		assert.True(t, visible["Limited offer"])
	})
}

func TestBrowserAdapter_ExtractText_MediaQuery(t *testing.T) {
	adapter := newTestAdapter(t)
	server := newPageServer(t, compliancePage)
	ctx := context.Background()

	require.NoError(t, adapter.SetViewport(ctx, entity.Viewport{Name: "mobile", Width: 375, Height: 667}))
	require.NoError(t, adapter.Navigate(ctx, server.URL, 10*time.Second))

	text, err := adapter.ExtractText(ctx)
	require.NoError(t, err)

	var promo *entity.TextFragment
	for i := range text.Paragraphs {
		if text.Paragraphs[i].Text == "Limited offer" {
			promo = &text.Paragraphs[i]
		}
	}
	require.NotNil(t, promo)
	assert.False(t, promo.Visible, "hidden at the mobile breakpoint")
}
