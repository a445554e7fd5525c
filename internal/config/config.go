package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"design-checker/internal/application/port/output"
	"design-checker/internal/domain/entity"

	"github.com/BurntSushi/toml"
)

var ErrConfig = errors.New("invalid configuration")

const (
	DefaultThreshold         = 0.1
	DefaultAlertCutoff       = 50
	DefaultSizeTolerance     = 10.0
	DefaultNavigationTimeout = 30 * time.Second
	DefaultQueryTimeout      = 5 * time.Second
)

type Config struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	LogLevel string `toml:"log_level"`

	Pages     []entity.PageSpec `toml:"pages"`
	Viewports []entity.Viewport `toml:"viewports"`
	// Sections maps a section name to the selector used to locate it.
	Sections        map[string]string  `toml:"sections"`
	Styles          []entity.StyleRule `toml:"styles"`
	ExactStyleMatch bool               `toml:"exact_style_match"`

	Diff    DiffConfig    `toml:"diff"`
	Browser BrowserConfig `toml:"browser"`
	Design  DesignConfig  `toml:"design"`
	Notify  NotifyConfig  `toml:"notify"`
	Review  ReviewConfig  `toml:"review"`
	Server  ServerConfig  `toml:"server"`
}

type DiffConfig struct {
	Threshold     float64 `toml:"threshold"`
	AlertCutoff   int     `toml:"alert_cutoff"`
	IncludeAA     bool    `toml:"include_anti_aliasing"`
	SizeTolerance float64 `toml:"size_tolerance"`
}

type BrowserConfig struct {
	Headless          bool          `toml:"headless"`
	NoSandbox         bool          `toml:"no_sandbox"`
	NavigationTimeout time.Duration `toml:"navigation_timeout"`
	QueryTimeout      time.Duration `toml:"query_timeout"`
	NavigationRetries int           `toml:"navigation_retries"`
	SettleDelay       time.Duration `toml:"settle_delay"`
}

type DesignConfig struct {
	FileID       string        `toml:"file_id"`
	NodeIDs      []string      `toml:"node_ids"`
	APIBaseURL   string        `toml:"api_base_url"`
	DefaultsFile string        `toml:"defaults_file"`
	Timeout      time.Duration `toml:"timeout"`
	Token        string        `toml:"-"`
}

func (d DesignConfig) Enabled() bool {
	return d.Token != "" && d.FileID != ""
}

type NotifyConfig struct {
	WebhookURL string        `toml:"webhook_url"`
	Timeout    time.Duration `toml:"timeout"`
}

type ReviewConfig struct {
	Enabled bool   `toml:"enabled"`
	Model   string `toml:"model"`
	APIKey  string `toml:"-"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

func Default() *Config {
	return &Config{
		DataDir:  "visual-tests",
		LogDir:   "log",
		LogLevel: "info",
		Viewports: []entity.Viewport{
			{Name: "desktop", Width: 1920, Height: 1080},
			{Name: "tablet", Width: 768, Height: 1024},
			{Name: "mobile", Width: 375, Height: 667},
		},
		Sections: DefaultSections(),
		Diff: DiffConfig{
			Threshold:     DefaultThreshold,
			AlertCutoff:   DefaultAlertCutoff,
			SizeTolerance: DefaultSizeTolerance,
		},
		Browser: BrowserConfig{
			Headless:          true,
			NavigationTimeout: DefaultNavigationTimeout,
			QueryTimeout:      DefaultQueryTimeout,
			SettleDelay:       2 * time.Second,
		},
		Design: DesignConfig{
			APIBaseURL: "https://api.figma.com/v1",
			Timeout:    15 * time.Second,
		},
		Notify: NotifyConfig{
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8089",
		},
	}
}

// DefaultSections are the selectors tried for the usual marketing-page sections.
func DefaultSections() map[string]string {
	return map[string]string{
		"header":       "header, [data-section='header'], .header, nav",
		"hero":         "[data-section='hero'], .hero, #hero, section:first-of-type",
		"features":     "[data-section='features'], .features, #features",
		"services":     "[data-section='services'], .services, #services",
		"about":        "[data-section='about'], .about, #about",
		"testimonials": "[data-section='testimonials'], .testimonials, #testimonials",
		"pricing":      "[data-section='pricing'], .pricing, #pricing",
		"contact":      "[data-section='contact'], .contact, #contact, form",
		"cta":          "[data-section='cta'], .cta, #cta",
		"footer":       "footer, [data-section='footer'], .footer",
	}
}

// Load reads the TOML file at path over the defaults, fills secrets from env
// and validates the result. An empty path means defaults only.
func Load(path string, env output.ConfigPort) (*Config, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: config file %s not found", ErrConfig, path)
			}
			return nil, fmt.Errorf("%w: parse %s: %v", ErrConfig, path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, fmt.Errorf("%w: unknown options: %s", ErrConfig, strings.Join(keys, ", "))
		}
		if cfg.Design.DefaultsFile != "" && !filepath.IsAbs(cfg.Design.DefaultsFile) {
			cfg.Design.DefaultsFile = filepath.Join(filepath.Dir(path), cfg.Design.DefaultsFile)
		}
	}

	if env != nil {
		cfg.applyEnv(env)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(env output.ConfigPort) {
	c.Design.Token = env.Get("FIGMA_TOKEN")
	c.Design.FileID = env.GetWithDefault("FIGMA_FILE_ID", c.Design.FileID)
	c.Notify.WebhookURL = env.GetWithDefault("WEBHOOK_URL", c.Notify.WebhookURL)
	c.Review.APIKey = env.Get("OPENROUTER_API_KEY")
	c.Review.Model = env.GetWithDefault("OPENROUTER_MODEL_NAME", c.Review.Model)
	c.DataDir = env.GetWithDefault("CHECKER_DATA_DIR", c.DataDir)
}

func (c *Config) Validate() error {
	var problems []string

	if c.Diff.Threshold < 0 || c.Diff.Threshold > 1 {
		problems = append(problems, fmt.Sprintf("diff.threshold must be within [0,1], got %v", c.Diff.Threshold))
	}
	if c.Diff.AlertCutoff < 0 {
		problems = append(problems, "diff.alert_cutoff must not be negative")
	}
	if c.Diff.SizeTolerance < 0 {
		problems = append(problems, "diff.size_tolerance must not be negative")
	}
	if c.Browser.NavigationTimeout <= 0 {
		problems = append(problems, "browser.navigation_timeout must be positive")
	}
	if c.Browser.NavigationRetries < 0 {
		problems = append(problems, "browser.navigation_retries must not be negative")
	}

	if len(c.Viewports) == 0 {
		problems = append(problems, "at least one viewport is required")
	}
	seenVp := make(map[string]bool)
	for i, vp := range c.Viewports {
		if vp.Name == "" {
			problems = append(problems, fmt.Sprintf("viewports[%d]: name is required", i))
		} else if seenVp[vp.Name] {
			problems = append(problems, fmt.Sprintf("viewports[%d]: duplicate name %q", i, vp.Name))
		}
		seenVp[vp.Name] = true
		if vp.Width <= 0 || vp.Height <= 0 {
			problems = append(problems, fmt.Sprintf("viewport %q: width and height must be positive", vp.Name))
		}
	}

	if len(c.Pages) == 0 {
		problems = append(problems, "at least one page is required")
	}
	seenPage := make(map[string]bool)
	for i, p := range c.Pages {
		if p.Name == "" {
			problems = append(problems, fmt.Sprintf("pages[%d]: name is required", i))
		} else if seenPage[p.Name] {
			problems = append(problems, fmt.Sprintf("pages[%d]: duplicate name %q", i, p.Name))
		}
		seenPage[p.Name] = true
		u, err := url.Parse(p.URL)
		if p.URL == "" || err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("page %q: invalid url %q", p.Name, p.URL))
		}
	}

	for i, r := range c.Styles {
		if r.Selector == "" {
			problems = append(problems, fmt.Sprintf("styles[%d]: selector is required", i))
		}
		if len(r.ExpectedProperties) == 0 {
			problems = append(problems, fmt.Sprintf("styles[%d]: expected_properties is empty", i))
		}
	}

	if c.Notify.WebhookURL != "" {
		if u, err := url.Parse(c.Notify.WebhookURL); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, "notify.webhook_url is not a valid URL")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfig, strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) BaselineDir() string {
	return filepath.Join(c.DataDir, "baselines")
}

func (c *Config) RunsDir() string {
	return filepath.Join(c.DataDir, "runs")
}

// SectionRules builds the ordered rules for the given section names using the
// configured selectors.
func (c *Config) SectionRules(names []string, geometry map[string]entity.Geometry) []entity.SectionRule {
	return entity.BuildSectionRules(names, geometry, c.Sections)
}
