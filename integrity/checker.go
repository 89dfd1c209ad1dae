// Package integrity cross-checks the published post set against the content
// exports and the links in the site source. It never writes anything.
package integrity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/eringen/postmill"
	"github.com/eringen/postmill/ingest"
)

// excludePattern keeps vendored packages out of the link scan.
const excludePattern = "**/node_modules/**"

var reBlogLink = regexp.MustCompile(`/blog/([a-z0-9][a-z0-9-]*)`)

// Checker runs the integrity checks over one project tree.
type Checker struct {
	cfg postmill.Config
	log zerolog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the checker logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Checker) {
		c.log = log
	}
}

// NewChecker builds a Checker. cfg should already be prepared.
func NewChecker(cfg postmill.Config, opts ...Option) *Checker {
	c := &Checker{cfg: cfg, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run loads the datasets and accumulates every violation. Only I/O failures
// that make the check meaningless, such as a missing base dataset, are
// returned as errors.
func (c *Checker) Run(ctx context.Context) (Report, error) {
	var r Report

	base, err := postmill.LoadPosts(c.cfg.BasePath)
	if err != nil {
		return r, err
	}
	generated, err := postmill.LoadPosts(c.cfg.GeneratedPath)
	if err != nil {
		if !errors.Is(err, postmill.ErrDatasetMissing) {
			return r, err
		}
		c.log.Warn().Str("path", c.cfg.GeneratedPath).Msg("generated dataset not found, checking base only")
	}
	redirects, err := postmill.LoadRedirects(c.cfg.RedirectsPath)
	if err != nil {
		return r, err
	}

	r.PostsChecked = len(base) + len(generated)
	c.checkPosts(&r, base, generated)

	if err := c.checkTitles(ctx, &r); err != nil {
		return r, err
	}
	if err := c.checkLinks(ctx, &r, append(base, generated...), redirects); err != nil {
		return r, err
	}

	r.sort()
	c.log.Info().
		Int("posts", r.PostsChecked).
		Int("files", r.FilesScanned).
		Int("links", r.LinksChecked).
		Int("errors", len(r.Errors())).
		Int("warnings", len(r.Warnings())).
		Msg("integrity check finished")
	return r, nil
}

func (c *Checker) checkPosts(r *Report, base, generated []postmill.BlogPost) {
	sets := []struct {
		name  string
		file  string
		posts []postmill.BlogPost
	}{
		{"base", c.cfg.BasePath, base},
		{"generated", c.cfg.GeneratedPath, generated},
	}

	baseSlugs := make(map[string]bool, len(base))
	for _, set := range sets {
		seen := make(map[string]bool, len(set.posts))
		for _, p := range set.posts {
			if !p.Published {
				r.add(Violation{
					Severity: SeverityError,
					Kind:     KindUnpublished,
					Slug:     p.Slug,
					File:     set.file,
					Message:  fmt.Sprintf("%s post %q is marked published: false", set.name, p.Slug),
				})
			}
			if seen[p.Slug] {
				r.add(Violation{
					Severity: SeverityError,
					Kind:     KindSlugCollision,
					Slug:     p.Slug,
					File:     set.file,
					Message:  fmt.Sprintf("slug %q appears more than once in the %s dataset", p.Slug, set.name),
				})
			}
			seen[p.Slug] = true
			if set.name == "generated" && baseSlugs[p.Slug] {
				r.add(Violation{
					Severity: SeverityError,
					Kind:     KindSlugCollision,
					Slug:     p.Slug,
					File:     set.file,
					Message:  fmt.Sprintf("slug %q exists in both the base and generated datasets", p.Slug),
				})
			}
		}
		if set.name == "base" {
			baseSlugs = seen
		}
	}
}

func (c *Checker) checkTitles(ctx context.Context, r *Report) error {
	raws, err := ingest.ReadExports(c.cfg.ContentDir)
	if err != nil {
		if errors.Is(err, ingest.ErrContentDirMissing) {
			c.log.Debug().Str("dir", c.cfg.ContentDir).Msg("no content directory, skipping title check")
			return nil
		}
		return err
	}

	first := make(map[string]string)
	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return err
		}
		parsed, ok := ingest.ParseRaw(raw)
		if !ok {
			continue
		}
		canonical := ingest.CanonicalTitle(parsed.Title)
		if canonical == "" {
			continue
		}
		if prev, dup := first[canonical]; dup {
			r.add(Violation{
				Severity: SeverityError,
				Kind:     KindDuplicateTitle,
				Slug:     raw.Slug,
				File:     raw.Path,
				Message:  fmt.Sprintf("title %q duplicates %s (canonical %q)", parsed.Title, filepath.Base(prev), canonical),
			})
			continue
		}
		first[canonical] = raw.Path
	}
	return nil
}

func (c *Checker) checkLinks(ctx context.Context, r *Report, posts []postmill.BlogPost, redirects []postmill.Redirect) error {
	if _, err := os.Stat(c.cfg.SourceDir); errors.Is(err, fs.ErrNotExist) {
		c.log.Debug().Str("dir", c.cfg.SourceDir).Msg("no source directory, skipping link check")
		return nil
	}

	known := make(map[string]bool, len(posts))
	for _, p := range posts {
		known[p.Slug] = true
	}
	redirected := postmill.RedirectedSlugs(redirects)

	files, err := c.sourceFiles()
	if err != nil {
		return err
	}
	fsys := os.DirFS(c.cfg.SourceDir)
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("integrity: read %s: %w", name, err)
		}
		r.FilesScanned++

		path := filepath.Join(c.cfg.SourceDir, filepath.FromSlash(name))
		reported := make(map[string]bool)
		for _, m := range reBlogLink.FindAllSubmatch(data, -1) {
			slug := string(m[1])
			r.LinksChecked++
			if known[slug] || reported[slug] {
				continue
			}
			reported[slug] = true
			if to, ok := redirected[slug]; ok {
				r.add(Violation{
					Severity: SeverityWarning,
					Kind:     KindRedirectOnly,
					Slug:     slug,
					File:     path,
					Message:  fmt.Sprintf("/blog/%s only resolves through a redirect to %s", slug, to),
				})
				continue
			}
			r.add(Violation{
				Severity: SeverityError,
				Kind:     KindMissingSlug,
				Slug:     slug,
				File:     path,
				Message:  fmt.Sprintf("/blog/%s does not match any post or redirect", slug),
			})
		}
	}
	return nil
}

// sourceFiles expands LinkPatterns under SourceDir into a sorted, de-duplicated
// list of slash-separated relative paths.
func (c *Checker) sourceFiles() ([]string, error) {
	fsys := os.DirFS(c.cfg.SourceDir)
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range c.cfg.LinkPatterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("integrity: glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			if excluded, _ := doublestar.Match(excludePattern, m); excluded {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}
