package postmill

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/postmill/markdown"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus renders cmp into a buffer first so a failing component
// surfaces as an error instead of a half-written page.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	var buf bytes.Buffer
	if err := cmp.Render(c.Request().Context(), &buf); err != nil {
		return err
	}
	return c.HTMLBlob(code, buf.Bytes())
}

type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(html.EscapeString(s))
}

func (w *writer) component(ctx context.Context, cmp templ.Component) {
	if w.err == nil {
		w.err = cmp.Render(ctx, w.w)
	}
}

// Layout wraps body in the document shell: SEO meta, OpenGraph tags,
// canonical link and JSON-LD blocks.
func Layout(cfg Config, meta PageMeta, jsonLD []string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"/>`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1"/>`)
		w.raw(`<title>`)
		w.text(meta.Title)
		w.raw(`</title>`)
		if meta.Description != "" {
			w.raw(`<meta name="description" content="`)
			w.text(meta.Description)
			w.raw(`"/>`)
		}
		if meta.Keywords != "" {
			w.raw(`<meta name="keywords" content="`)
			w.text(meta.Keywords)
			w.raw(`"/>`)
		}
		if meta.URL != "" {
			w.raw(`<link rel="canonical" href="`)
			w.text(meta.URL)
			w.raw(`"/><meta property="og:url" content="`)
			w.text(meta.URL)
			w.raw(`"/>`)
		}
		w.raw(`<meta property="og:title" content="`)
		w.text(meta.Title)
		w.raw(`"/><meta property="og:type" content="`)
		w.text(meta.OGType)
		w.raw(`"/><meta property="og:site_name" content="`)
		w.text(cfg.SiteName)
		w.raw(`"/>`)
		for _, ld := range jsonLD {
			w.raw(`<script type="application/ld+json">`)
			w.raw(ld)
			w.raw(`</script>`)
		}
		w.raw(`<link rel="alternate" type="application/rss+xml" href="/feed.xml"/>`)
		w.raw(`</head><body><header><a href="/">`)
		w.text(cfg.SiteName)
		w.raw(`</a> <a href="/blog/">Blog</a></header><main>`)
		w.component(ctx, body)
		w.raw(`</main></body></html>`)
		return w.err
	})
}

// IndexPage lists posts, optionally narrowed to one category.
func IndexPage(cfg Config, posts []BlogPost, activeCategory string, categories []string) templ.Component {
	title := cfg.SiteName + " Blog"
	canonical := BuildURL(cfg.SiteURL, "blog")
	if activeCategory != "" {
		title = activeCategory + " | " + title
		canonical += "?category=" + url.QueryEscape(activeCategory)
	}
	meta := PageMeta{
		Title:       title,
		Description: cfg.SiteDescription,
		URL:         canonical,
		OGType:      "website",
	}
	body := templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<h1>`)
		w.text(title)
		w.raw(`</h1><nav class="categories">`)
		for _, c := range categories {
			class := "category"
			if strings.EqualFold(c, activeCategory) {
				class += " active"
			}
			w.raw(`<a class="` + class + `" href="/blog/?category=`)
			w.text(url.QueryEscape(c))
			w.raw(`">`)
			w.text(c)
			w.raw(`</a>`)
		}
		w.raw(`</nav>`)
		for _, p := range posts {
			writeCard(w, p)
		}
		return w.err
	})
	crumbs := BreadcrumbJsonLD([]Crumb{
		{Name: "Home", URL: BuildURL(cfg.SiteURL)},
		{Name: "Blog", URL: BuildURL(cfg.SiteURL, "blog")},
	})
	return Layout(cfg, meta, []string{WebsiteJsonLD(cfg), crumbs}, body)
}

func writeCard(w *writer, p BlogPost) {
	w.raw(`<article class="post-card"><h2><a href="`)
	w.text(p.Link())
	w.raw(`">`)
	w.text(p.Title)
	w.raw(`</a></h2><p class="meta"><time datetime="`)
	w.text(p.Date)
	w.raw(`">`)
	w.text(p.Date)
	w.raw(`</time> · `)
	w.text(p.Category)
	w.raw(` · `)
	w.text(p.ReadTime)
	w.raw(`</p><p>`)
	w.text(p.Excerpt)
	w.raw(`</p></article>`)
}

// PostPage renders a single article with related posts.
func PostPage(cfg Config, post BlogPost, related []BlogPost) templ.Component {
	title := post.SEOTitle
	if title == "" {
		title = post.Title + " | " + cfg.SiteName
	}
	description := post.SEODescription
	if description == "" {
		description = post.Excerpt
	}
	meta := PageMeta{
		Title:       title,
		Description: description,
		Keywords:    post.SEOKeywords,
		URL:         BuildURL(cfg.SiteURL, "blog", post.Slug),
		OGType:      "article",
	}
	body := templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<article class="post"><h1>`)
		w.text(post.Title)
		w.raw(`</h1><p class="meta">By `)
		w.text(post.Author)
		w.raw(` · <time datetime="`)
		w.text(post.Date)
		w.raw(`">`)
		w.text(post.Date)
		w.raw(`</time> · `)
		w.text(post.ReadTime)
		w.raw(`</p><div class="content">`)
		w.component(ctx, markdown.HTML(markdown.DemoteHeadings(post.Content)))
		w.raw(`</div>`)
		if post.AuthorBio != "" {
			w.raw(`<aside class="author-bio">`)
			w.text(post.AuthorBio)
			w.raw(`</aside>`)
		}
		if len(post.Tags) > 0 {
			w.raw(`<ul class="tags">`)
			for _, t := range post.Tags {
				w.raw(`<li>`)
				w.text(t)
				w.raw(`</li>`)
			}
			w.raw(`</ul>`)
		}
		w.raw(`</article>`)
		if len(related) > 0 {
			w.raw(`<section class="related"><h2>Related articles</h2>`)
			for _, p := range related {
				writeCard(w, p)
			}
			w.raw(`</section>`)
		}
		return w.err
	})
	crumbs := BreadcrumbJsonLD([]Crumb{
		{Name: "Home", URL: BuildURL(cfg.SiteURL)},
		{Name: "Blog", URL: BuildURL(cfg.SiteURL, "blog")},
		{Name: post.Title, URL: meta.URL},
	})
	return Layout(cfg, meta, []string{BlogPostingJsonLD(post, cfg), crumbs}, body)
}

// StatusPage renders a minimal page for error responses.
func StatusPage(cfg Config, heading, message string) templ.Component {
	meta := PageMeta{Title: heading + " | " + cfg.SiteName, OGType: "website"}
	body := templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<h1>`)
		w.text(heading)
		w.raw(`</h1><p>`)
		w.text(message)
		w.raw(`</p><p><a href="/blog/">Back to the blog</a></p>`)
		return w.err
	})
	return Layout(cfg, meta, nil, body)
}
