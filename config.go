package postmill

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/rs/zerolog"
)

// DateLayout is the wire format of BlogPost.Date.
const DateLayout = "2006-01-02"

// Config holds all configuration for the content pipeline and preview server.
type Config struct {
	SiteName        string `mapstructure:"site_name"`        // default "Bright Smile Dental"
	SiteURL         string `mapstructure:"site_url"`         // default "http://localhost:4173"
	SiteDescription string `mapstructure:"site_description"` // RSS and meta description of the index
	Author          string `mapstructure:"author"`           // byline on generated posts
	AuthorBio       string `mapstructure:"author_bio"`

	ContentDir    string `mapstructure:"content_dir"`    // directory of *.txt exports (default "content/blog-exports")
	BasePath      string `mapstructure:"base_path"`      // hand-authored dataset (default "data/base-posts.yaml")
	RedirectsPath string `mapstructure:"redirects_path"` // default "data/redirects.yaml"
	ModulePath    string `mapstructure:"module_path"`    // generated TS module (default "src/data/generatedBlogPosts.ts")
	GeneratedPath string `mapstructure:"generated_path"` // generated JSON sidecar (default "data/generated-posts.json")

	MinDate       string `mapstructure:"min_date"` // default "2020-01-01"
	MaxDate       string `mapstructure:"max_date"` // default "2025-11-08"
	ExcerptLength int    `mapstructure:"excerpt_length"`

	SourceDir    string   `mapstructure:"source_dir"`    // tree scanned for /blog/<slug> links (default "src")
	LinkPatterns []string `mapstructure:"link_patterns"` // doublestar globs relative to SourceDir

	Addr           string        `mapstructure:"addr"`          // preview listen address (default ":4173")
	DatabasePath   string        `mapstructure:"database_path"` // default "data/preview.db"
	StaticDir      string        `mapstructure:"static_dir"`    // default "public"
	PostCacheTTL   time.Duration `mapstructure:"post_cache_ttl"`
	AcceptancePath string        `mapstructure:"acceptance_path"` // default "data/seo-targets.yaml"

	LogLevel string `mapstructure:"log_level"` // default "info"
}

// Prepare fills unset fields with defaults and validates the result.
func (c *Config) Prepare() error {
	c.setDefaults()
	return c.Validate()
}

func (c *Config) setDefaults() {
	if c.SiteName == "" {
		c.SiteName = "Bright Smile Dental"
	}
	if c.SiteURL == "" {
		c.SiteURL = "http://localhost:4173"
	}
	if c.SiteDescription == "" {
		c.SiteDescription = "Practical advice on dental health from our practice."
	}
	if c.Author == "" {
		c.Author = "Bright Smile Dental Team"
	}
	if c.AuthorBio == "" {
		c.AuthorBio = "Our dentists and hygienists share what they explain to patients every day."
	}
	if c.ContentDir == "" {
		c.ContentDir = "content/blog-exports"
	}
	if c.BasePath == "" {
		c.BasePath = "data/base-posts.yaml"
	}
	if c.RedirectsPath == "" {
		c.RedirectsPath = "data/redirects.yaml"
	}
	if c.ModulePath == "" {
		c.ModulePath = "src/data/generatedBlogPosts.ts"
	}
	if c.GeneratedPath == "" {
		c.GeneratedPath = "data/generated-posts.json"
	}
	if c.MinDate == "" {
		c.MinDate = "2020-01-01"
	}
	if c.MaxDate == "" {
		c.MaxDate = "2025-11-08"
	}
	if c.ExcerptLength == 0 {
		c.ExcerptLength = 160
	}
	if c.SourceDir == "" {
		c.SourceDir = "src"
	}
	if len(c.LinkPatterns) == 0 {
		c.LinkPatterns = []string{"**/*.{ts,tsx,js,jsx,md,mdx,html,json}"}
	}
	if c.Addr == "" {
		c.Addr = ":4173"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/preview.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.AcceptancePath == "" {
		c.AcceptancePath = "data/seo-targets.yaml"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports configuration errors. It does not apply defaults.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.SiteName, validation.Required),
		validation.Field(&c.SiteURL, validation.Required, is.URL),
		validation.Field(&c.ContentDir, validation.Required),
		validation.Field(&c.BasePath, validation.Required),
		validation.Field(&c.ModulePath, validation.Required),
		validation.Field(&c.GeneratedPath, validation.Required),
		validation.Field(&c.MinDate, validation.Required, validation.Date(DateLayout)),
		validation.Field(&c.MaxDate, validation.Required, validation.Date(DateLayout)),
		validation.Field(&c.ExcerptLength, validation.Min(20)),
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "error")),
	)
	if err != nil {
		return fmt.Errorf("postmill: invalid config: %w", err)
	}
	if _, _, err := c.DateWindow(); err != nil {
		return err
	}
	return nil
}

// DateWindow returns the parsed [MinDate, MaxDate] publish window.
func (c Config) DateWindow() (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, c.MinDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("postmill: min date: %w", err)
	}
	end, err := time.Parse(DateLayout, c.MaxDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("postmill: max date: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("postmill: max date %s is before min date %s", c.MaxDate, c.MinDate)
	}
	return start, end, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger sets the logger used for request and error logging.
func WithLogger(log zerolog.Logger) Option {
	return func(a *App) {
		a.log = log
	}
}

// WithRedirects registers permanent redirects served before routing.
func WithRedirects(redirects []Redirect) Option {
	return func(a *App) {
		a.redirects = append(a.redirects, redirects...)
	}
}

// WithStaticDir sets the directory for static assets served under /public
// (default Config.StaticDir).
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}
