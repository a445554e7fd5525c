package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"design-checker/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapEnv map[string]string

func (m mapEnv) Get(key string) string { return m[key] }

func (m mapEnv) GetWithDefault(key, def string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return def
}

const sampleConfig = `
data_dir = "out"
exact_style_match = true

[[pages]]
name = "home"
url = "https://example.com/"
expected_sections = ["hero", "features", "footer"]

[[pages]]
name = "pricing"
url = "https://example.com/pricing"

[[viewports]]
name = "desktop"
width = 1440
height = 900

[[styles]]
section = "hero"
selector = "h1"
expected_properties = { "font-family" = "Inter", "color" = "rgb(17, 24, 39)" }

[diff]
threshold = 0.2
alert_cutoff = 120

[browser]
navigation_timeout = "45s"
navigation_retries = 1
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checker.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_ParsesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	cfg, err := Load(path, mapEnv{"FIGMA_TOKEN": "tok", "FIGMA_FILE_ID": "abc123"})
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.DataDir)
	assert.True(t, cfg.ExactStyleMatch)
	require.Len(t, cfg.Pages, 2)
	assert.Equal(t, []string{"hero", "features", "footer"}, cfg.Pages[0].ExpectedSections)
	require.Len(t, cfg.Viewports, 1)
	assert.Equal(t, 1440, cfg.Viewports[0].Width)
	require.Len(t, cfg.Styles, 1)
	assert.Equal(t, "Inter", cfg.Styles[0].ExpectedProperties["font-family"])

	assert.Equal(t, 0.2, cfg.Diff.Threshold)
	assert.Equal(t, 120, cfg.Diff.AlertCutoff)
	assert.Equal(t, DefaultSizeTolerance, cfg.Diff.SizeTolerance)
	assert.Equal(t, 45*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, DefaultQueryTimeout, cfg.Browser.QueryTimeout)
	assert.Equal(t, 1, cfg.Browser.NavigationRetries)

	assert.True(t, cfg.Design.Enabled())
	assert.Equal(t, "abc123", cfg.Design.FileID)
	assert.Empty(t, cfg.Notify.WebhookURL)
	assert.Equal(t, filepath.Join("out", "baselines"), cfg.BaselineDir())
}

func TestLoad_DesignDisabledWithoutToken(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig), mapEnv{})
	require.NoError(t, err)
	assert.False(t, cfg.Design.Enabled())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown option", sampleConfig + "\nsurprise = true\n"},
		{"malformed toml", "pages = [[["},
		{"bad webhook url", sampleConfig + "\n[review]\nenabled = false\n" + `
[notify]
webhook_url = "not a url"
`},
		{"no pages", `
[[viewports]]
name = "desktop"
width = 10
height = 10
`},
		{"bad viewport", `
[[pages]]
name = "home"
url = "https://example.com"

[[viewports]]
name = "broken"
width = 0
height = 100
`},
		{"duplicate pages", `
[[pages]]
name = "home"
url = "https://example.com"

[[pages]]
name = "home"
url = "https://example.com/again"
`},
		{"relative url", `
[[pages]]
name = "home"
url = "/index.html"
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), mapEnv{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"), nil)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestValidate_Threshold(t *testing.T) {
	cfg := Default()
	cfg.Pages = []entity.PageSpec{{Name: "home", URL: "https://example.com"}}

	cfg.Diff.Threshold = 1.5
	assert.ErrorIs(t, cfg.Validate(), ErrConfig)

	cfg.Diff.Threshold = 0
	assert.NoError(t, cfg.Validate())
}

func TestSectionRules(t *testing.T) {
	cfg := Default()

	rules := cfg.SectionRules([]string{"hero", "gallery"}, map[string]entity.Geometry{
		"hero": {Width: 1200, Height: 0},
	})

	require.Len(t, rules, 2)
	assert.Equal(t, "hero", rules[0].Name)
	assert.Equal(t, cfg.Sections["hero"], rules[0].Selector)
	require.NotNil(t, rules[0].ExpectedWidth)
	assert.Equal(t, 1200.0, *rules[0].ExpectedWidth)
	assert.Nil(t, rules[0].ExpectedHeight)

	assert.Equal(t, "gallery", rules[1].Name)
	assert.Equal(t, "[data-section='gallery'], .gallery, #gallery", rules[1].Selector)
	assert.False(t, rules[1].HasGeometry())
}
