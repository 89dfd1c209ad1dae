package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/postmill"
)

const testBase = `- id: "1"
  title: Why Flossing Matters
  slug: why-flossing-matters
  excerpt: Flossing removes plaque.
  content: "<p>Flossing removes plaque between teeth.</p>"
  date: "2019-06-01"
  category: Preventive Care
  tags: [Preventive Care, floss]
  published: true
`

func setupGenerator(t *testing.T, files map[string]string) postmill.Config {
	t.Helper()
	dir := t.TempDir()
	content := filepath.Join(dir, "exports")
	require.NoError(t, os.MkdirAll(content, 0o755))
	for name, text := range files {
		require.NoError(t, os.WriteFile(filepath.Join(content, name), []byte(text), 0o644))
	}
	base := filepath.Join(dir, "base-posts.yaml")
	require.NoError(t, os.WriteFile(base, []byte(testBase), 0o644))

	cfg := postmill.Config{
		ContentDir:    content,
		BasePath:      base,
		ModulePath:    filepath.Join(dir, "out", "generatedBlogPosts.ts"),
		GeneratedPath: filepath.Join(dir, "out", "generated-posts.json"),
	}
	require.NoError(t, cfg.Prepare())
	return cfg
}

func readSidecar(t *testing.T, path string) []postmill.BlogPost {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var posts []postmill.BlogPost
	require.NoError(t, json.Unmarshal(data, &posts))
	return posts
}

func TestGeneratorRun(t *testing.T) {
	cfg := setupGenerator(t, map[string]string{
		"braces-basics.txt":        "Title: Braces Basics\n\nBraces straighten teeth over time.\n",
		"copy-of-braces.txt":       "Title: Something Else Entirely\n\nBraces straighten teeth over time.\n",
		"draft-post.txt":           "---\ndraft: true\n---\nTitle: Not Yet\n\nStill writing this one.\n",
		"empty.txt":                "Title: Nothing Here\n",
		"flossing-again.txt":       "Title: Why Flossing Matters!\n\nA fresh take on an old habit.\n",
		"kids-teeth.txt":           "# Caring for Kids' Teeth\n\nStart brushing **early**.\n",
		"why-flossing-matters.txt": "Title: Flossing Again\n\nSame slug as a base post.\n",
		"notes.md":                 "Title: Ignored\n\nNot an export.\n",
	})

	report, err := NewGenerator(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, report.Files)
	assert.Equal(t, 2, report.Accepted)
	assert.Equal(t, 5, report.SkippedTotal())
	assert.Equal(t, map[Reason]int{
		ReasonDuplicateContent: 1,
		ReasonDraft:            1,
		ReasonUnparseable:      1,
		ReasonDuplicateTitle:   1,
		ReasonDuplicateSlug:    1,
	}, report.Skipped)

	posts := readSidecar(t, cfg.GeneratedPath)
	require.Len(t, posts, 2)
	assert.Equal(t, report.Posts, posts)

	braces := posts[0]
	assert.Equal(t, "2", braces.ID)
	assert.Equal(t, "braces-basics", braces.Slug)
	assert.Equal(t, "Braces Basics", braces.Title)
	assert.Equal(t, "<p>Braces straighten teeth over time.</p>", braces.Content)
	assert.Equal(t, "Braces straighten teeth over time.", braces.Excerpt)
	assert.Equal(t, "2020-01-01", braces.Date)
	assert.Equal(t, "1 min read", braces.ReadTime)
	assert.Equal(t, "Orthodontics", braces.Category)
	assert.Equal(t, []string{"Orthodontics", "braces"}, braces.Tags)
	assert.Equal(t, "Braces Basics | Bright Smile Dental", braces.SEOTitle)
	assert.Equal(t, braces.Excerpt, braces.SEODescription)
	assert.Equal(t, "Orthodontics, braces", braces.SEOKeywords)
	assert.Equal(t, cfg.Author, braces.Author)
	assert.True(t, braces.Published)

	kids := posts[1]
	assert.Equal(t, "3", kids.ID)
	assert.Equal(t, "Caring for Kids' Teeth", kids.Title)
	assert.Equal(t, "<p>Start brushing <strong>early</strong>.</p>", kids.Content)
	assert.Equal(t, "2025-11-08", kids.Date)
	assert.Equal(t, "Pediatric Dentistry", kids.Category)

	module, err := os.ReadFile(cfg.ModulePath)
	require.NoError(t, err)
	assert.Contains(t, string(module), `"slug": "kids-teeth"`)
	assert.NotContains(t, string(module), "why-flossing-matters")
}

func TestGeneratorFrontMatterOverrides(t *testing.T) {
	cfg := setupGenerator(t, map[string]string{
		"implant-aftercare.txt": "---\nauthor: Dr. Patel\ndate: 2022-05-04\ntags: [aftercare, implant]\n---\n# Implant Aftercare\n\nKeep the site clean.\n",
	})

	report, err := NewGenerator(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Posts, 1)

	p := report.Posts[0]
	assert.Equal(t, "Dr. Patel", p.Author)
	assert.Equal(t, "2022-05-04", p.Date)
	assert.Equal(t, "Dental Implants", p.Category)
	assert.Equal(t, []string{"Dental Implants", "implant", "aftercare"}, p.Tags)
}

func TestGeneratorConvertsHTMLExports(t *testing.T) {
	cfg := setupGenerator(t, map[string]string{
		"gum-health.txt": "Title: Gum Health\n\n<p>Healthy gums are <strong>pink</strong>.</p>\n<ul><li>Brush</li><li>Floss</li></ul>\n",
	})

	report, err := NewGenerator(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Posts, 1)

	content := report.Posts[0].Content
	assert.Contains(t, content, "<strong>pink</strong>")
	assert.Contains(t, content, "<li>Brush</li>")
	assert.Equal(t, "Periodontics", report.Posts[0].Category)
}

func TestGeneratorKeepsMarkdownWithInlineHTML(t *testing.T) {
	cfg := setupGenerator(t, map[string]string{
		"brushing-basics.txt": "Title: Brushing Basics\n\n## Why it matters\n\nBrush **twice** a day, see <em>this</em>.\n\n1. Morning\n2. Night\n",
		"flossing-links.txt":  "Title: Flossing Links\n\nRead <a href=\"/blog/why-flossing-matters\">our guide</a>.\n\n- one\n- two\n",
	})

	report, err := NewGenerator(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Posts, 2)

	brushing := report.Posts[0].Content
	assert.Contains(t, brushing, `<h2 id="why-it-matters">Why it matters</h2>`)
	assert.Contains(t, brushing, "<strong>twice</strong>")
	assert.Contains(t, brushing, "<em>this</em>")
	assert.Contains(t, brushing, "<li>Morning</li>")
	assert.NotContains(t, brushing, "## ")

	links := report.Posts[1].Content
	assert.Contains(t, links, `<a href="/blog/why-flossing-matters">our guide</a>`)
	assert.Contains(t, links, "<li>one</li>")
}

func TestGeneratorDemotesBodyTitleHeadings(t *testing.T) {
	cfg := setupGenerator(t, map[string]string{
		"whitening-at-home.txt": "Title: Whitening at Home\n\n# Before you start\n\nTalk to your dentist.\n",
	})

	report, err := NewGenerator(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Posts, 1)

	content := report.Posts[0].Content
	assert.NotContains(t, content, "<h1")
	assert.Contains(t, content, `<h2 id="before-you-start">Before you start</h2>`)
}

func TestGeneratorOnlyCollisionsEmitsEmpty(t *testing.T) {
	cfg := setupGenerator(t, map[string]string{
		"why-flossing-matters.txt": "Title: Why Flossing Matters\n\nDuplicate of the base post.\n",
	})

	report, err := NewGenerator(cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Accepted)
	assert.Equal(t, 1, report.Skipped[ReasonDuplicateSlug])

	data, err := os.ReadFile(cfg.GeneratedPath)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	module, err := os.ReadFile(cfg.ModulePath)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(module), "= [];\n"))
}

func TestGeneratorNoFiles(t *testing.T) {
	cfg := setupGenerator(t, nil)

	report, err := NewGenerator(cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Files)
	assert.Empty(t, readSidecar(t, cfg.GeneratedPath))
}

func TestGeneratorMissingInputs(t *testing.T) {
	t.Run("content dir", func(t *testing.T) {
		cfg := setupGenerator(t, nil)
		cfg.ContentDir = filepath.Join(t.TempDir(), "nope")

		_, err := NewGenerator(cfg).Run(context.Background())
		require.ErrorIs(t, err, ErrContentDirMissing)
		assert.NoFileExists(t, cfg.ModulePath)
	})

	t.Run("base dataset", func(t *testing.T) {
		cfg := setupGenerator(t, nil)
		cfg.BasePath = filepath.Join(t.TempDir(), "missing.yaml")

		_, err := NewGenerator(cfg).Run(context.Background())
		require.ErrorIs(t, err, postmill.ErrDatasetMissing)
		assert.NoFileExists(t, cfg.ModulePath)
	})
}

func TestGeneratorCancelled(t *testing.T) {
	cfg := setupGenerator(t, map[string]string{
		"braces-basics.txt": "Title: Braces Basics\n\nBraces straighten teeth.\n",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGenerator(cfg).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, cfg.ModulePath)
}

func TestGeneratorWatch(t *testing.T) {
	cfg := setupGenerator(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewGenerator(cfg).Watch(ctx, 50*time.Millisecond)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(cfg.GeneratedPath)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	path := filepath.Join(cfg.ContentDir, "retainer-care.txt")
	require.NoError(t, os.WriteFile(path, []byte("Title: Retainer Care\n\nRinse it every morning.\n"), 0o644))

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(cfg.GeneratedPath)
		return err == nil && strings.Contains(string(data), "retainer-care")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
