// Package postmill is the content toolchain of a dental practice's blog.
// It holds the post model, the data files the pipeline reads and writes,
// and a preview server that renders the published set with its SEO metadata.
//
// The ingest package turns raw exports into posts, integrity gates the
// result in CI, and acceptance asserts the preview server's SEO behavior.
package postmill

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// App is the preview server. It wires together the store, cache, handlers,
// middleware and page components.
type App struct {
	Config Config
	Echo   *echo.Echo
	Store  *Store
	Cache  *PostCache

	log       zerolog.Logger
	redirects []Redirect
	registry  *prometheus.Registry
	staticDir string
}

// New creates a preview App serving the posts in store. Routes and
// middleware are registered immediately so the App can be exercised with
// httptest before Start is called.
func New(cfg Config, store *Store, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Store:     store,
		Cache:     NewPostCache(store, cfg.PostCacheTTL),
		log:       zerolog.Nop(),
		registry:  prometheus.NewRegistry(),
		staticDir: cfg.StaticDir,
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}

	a.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "postmill",
		Name:      "published_posts",
		Help:      "Number of published posts served by the preview server.",
	}, func() float64 {
		return float64(a.Cache.Count())
	}))

	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// ServeHTTP lets the App be mounted directly on an http.Server or httptest.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.Echo.ServeHTTP(w, r)
}

// Start listens on Config.Addr until the server is shut down.
func (a *App) Start() error {
	a.log.Info().Str("addr", a.Config.Addr).Msg("preview server listening")
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("postmill: serve: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: a.registry,
	}))

	e.GET("/", a.handleIndex)
	e.GET("/blog/", a.handleIndex)
	e.GET("/blog/:slug/", a.handlePost)
}

// redirectTargets returns the redirect table keyed by path without a trailing slash.
func (a *App) redirectTargets() map[string]Redirect {
	out := make(map[string]Redirect, len(a.redirects))
	for _, r := range a.redirects {
		out[trimSlash(r.From)] = r
	}
	return out
}

func trimSlash(p string) string {
	if p == "/" {
		return p
	}
	return strings.TrimRight(p, "/")
}
