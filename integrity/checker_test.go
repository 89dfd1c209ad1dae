package integrity

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/postmill"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func projectConfig(t *testing.T, dir string) postmill.Config {
	t.Helper()
	cfg := postmill.Config{
		BasePath:      filepath.Join(dir, "data", "base-posts.yaml"),
		GeneratedPath: filepath.Join(dir, "data", "generated-posts.json"),
		RedirectsPath: filepath.Join(dir, "data", "redirects.yaml"),
		ContentDir:    filepath.Join(dir, "content"),
		SourceDir:     filepath.Join(dir, "src"),
	}
	require.NoError(t, cfg.Prepare())
	return cfg
}

type finding struct {
	Severity Severity
	Kind     Kind
	Slug     string
}

func findings(r Report) []finding {
	out := make([]finding, 0, len(r.Violations))
	for _, v := range r.Violations {
		out = append(out, finding{v.Severity, v.Kind, v.Slug})
	}
	return out
}

func TestCheckerRun(t *testing.T) {
	dir := t.TempDir()
	cfg := projectConfig(t, dir)

	writeFile(t, cfg.BasePath, `- slug: braces-basics
  title: Braces Basics
  published: true
- slug: old-draft
  title: Old Draft
  published: false
- slug: braces-basics
  title: Braces Basics Again
  published: true
`)
	writeFile(t, cfg.GeneratedPath, `[
  {"slug": "kids-teeth", "title": "Kids Teeth", "published": true},
  {"slug": "old-draft", "title": "Old Draft Revisited", "published": true}
]`)
	writeFile(t, cfg.RedirectsPath, `- from: /blog/retired-post
  to: /blog/braces-basics/
`)
	writeFile(t, filepath.Join(cfg.ContentDir, "a.txt"), "Title: The Complete Guide to Dental Implants\n\nBody one.\n")
	writeFile(t, filepath.Join(cfg.ContentDir, "b.txt"), "Title: Dental Implants in 2024\n\nBody two.\n")
	writeFile(t, filepath.Join(cfg.ContentDir, "c.txt"), "Title: Something Else\n\nBody three.\n")
	writeFile(t, filepath.Join(cfg.SourceDir, "pages", "index.tsx"), `export default () => (
  <nav>
    <a href="/blog/">Blog</a>
    <a href="/blog/braces-basics/">Braces</a>
    <a href="/blog/retired-post">Old</a>
    <a href="/blog/ghost-post/">Ghost</a>
    <a href="/blog/ghost-post/">Ghost again</a>
  </nav>
);
`)
	writeFile(t, filepath.Join(cfg.SourceDir, "node_modules", "pkg", "index.js"), `"/blog/vendored"`)
	writeFile(t, filepath.Join(cfg.SourceDir, "notes.txt"), "/blog/not-scanned")

	report, err := NewChecker(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []finding{
		{SeverityError, KindDuplicateTitle, "b"},
		{SeverityError, KindMissingSlug, "ghost-post"},
		{SeverityError, KindSlugCollision, "braces-basics"},
		{SeverityError, KindSlugCollision, "old-draft"},
		{SeverityError, KindUnpublished, "old-draft"},
		{SeverityWarning, KindRedirectOnly, "retired-post"},
	}, findings(report))

	assert.True(t, report.HasErrors())
	assert.Len(t, report.Warnings(), 1)
	assert.Equal(t, 5, report.PostsChecked)
	assert.Equal(t, 1, report.FilesScanned)
	assert.Equal(t, 4, report.LinksChecked)
}

func TestCheckerRedirectOnlyIsWarning(t *testing.T) {
	dir := t.TempDir()
	cfg := projectConfig(t, dir)

	writeFile(t, cfg.BasePath, "- slug: new-slug\n  title: New\n  published: true\n")
	writeFile(t, cfg.RedirectsPath, "- from: /blog/old-slug\n  to: /blog/new-slug/\n")
	writeFile(t, filepath.Join(cfg.SourceDir, "post.md"), "See [the old post](/blog/old-slug).\n")

	report, err := NewChecker(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, report.HasErrors())
	require.Len(t, report.Warnings(), 1)
	v := report.Warnings()[0]
	assert.Equal(t, KindRedirectOnly, v.Kind)
	assert.Equal(t, "old-slug", v.Slug)
	assert.Equal(t, filepath.Join(cfg.SourceDir, "post.md"), v.File)
}

func TestCheckerCleanProject(t *testing.T) {
	dir := t.TempDir()
	cfg := projectConfig(t, dir)
	writeFile(t, cfg.BasePath, "- slug: braces-basics\n  title: Braces Basics\n  published: true\n")

	report, err := NewChecker(cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Violations)
	assert.False(t, report.HasErrors())
}

func TestCheckerMissingBase(t *testing.T) {
	cfg := projectConfig(t, t.TempDir())

	_, err := NewChecker(cfg).Run(context.Background())
	require.ErrorIs(t, err, postmill.ErrDatasetMissing)
}

func TestCheckerCustomPatterns(t *testing.T) {
	dir := t.TempDir()
	cfg := projectConfig(t, dir)
	cfg.LinkPatterns = []string{"**/*.txt"}
	writeFile(t, cfg.BasePath, "- slug: a\n  title: A\n  published: true\n")
	writeFile(t, filepath.Join(cfg.SourceDir, "deep", "er", "links.txt"), "/blog/nowhere")
	writeFile(t, filepath.Join(cfg.SourceDir, "page.tsx"), "/blog/also-nowhere")

	report, err := NewChecker(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Errors(), 1)
	assert.Equal(t, "nowhere", report.Errors()[0].Slug)
}

func TestReportWrite(t *testing.T) {
	r := Report{
		Violations: []Violation{
			{Severity: SeverityWarning, Kind: KindRedirectOnly, Slug: "old", File: "src/a.tsx", Message: "/blog/old only resolves through a redirect to /blog/new/"},
			{Severity: SeverityError, Kind: KindMissingSlug, Slug: "gone", File: "src/a.tsx", Message: "/blog/gone does not match any post or redirect"},
		},
		PostsChecked: 3,
		FilesScanned: 1,
		LinksChecked: 2,
	}
	r.sort()

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))
	assert.Equal(t, `errors (1):
  missing-slug
    src/a.tsx: /blog/gone does not match any post or redirect
warnings (1):
  redirect-only-slug
    src/a.tsx: /blog/old only resolves through a redirect to /blog/new/
checked 3 posts, 2 links in 1 files: 1 errors, 1 warnings
`, buf.String())
}
