package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "postmill.yaml")
	writeFile(t, path, `site_name: Riverside Dental
content_dir: exports
link_patterns:
  - "**/*.tsx"
  - "**/*.md"
post_cache_ttl: 30s
excerpt_length: 120
`)
	t.Setenv("POSTMILL_SITE_URL", "https://riverside.example")
	t.Setenv("POSTMILL_MIN_DATE", "2021-03-01")

	cfg, v, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, v.ConfigFileUsed())
	assert.Equal(t, "Riverside Dental", cfg.SiteName)
	assert.Equal(t, "https://riverside.example", cfg.SiteURL)
	assert.Equal(t, "exports", cfg.ContentDir)
	assert.Equal(t, []string{"**/*.tsx", "**/*.md"}, cfg.LinkPatterns)
	assert.Equal(t, 30*time.Second, cfg.PostCacheTTL)
	assert.Equal(t, 120, cfg.ExcerptLength)
	assert.Equal(t, "2021-03-01", cfg.MinDate)

	require.NoError(t, cfg.Prepare())
	assert.Equal(t, "2025-11-08", cfg.MaxDate)
	assert.Equal(t, "data/base-posts.yaml", cfg.BasePath)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfigTestPort(t *testing.T) {
	_, v, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultTestPort, v.GetInt("test_port"))

	t.Setenv("POSTMILL_TEST_PORT", "5173")
	_, v, err = loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 5173, v.GetInt("test_port"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger("info", &buf)
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Str("file", "a.txt").Msg("visible")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "run_id=")

	_, err = newLogger("loud", &buf)
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "postmill dev\n", out.String())
}

// project lays out a minimal site and returns its config file.
func project(t *testing.T) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	configPath = filepath.Join(dir, "postmill.yaml")
	writeFile(t, configPath, `content_dir: `+filepath.Join(dir, "exports")+`
base_path: `+filepath.Join(dir, "data", "base-posts.yaml")+`
redirects_path: `+filepath.Join(dir, "data", "redirects.yaml")+`
module_path: `+filepath.Join(dir, "src", "data", "generatedBlogPosts.ts")+`
generated_path: `+filepath.Join(dir, "data", "generated-posts.json")+`
source_dir: `+filepath.Join(dir, "src")+`
database_path: `+filepath.Join(dir, "data", "preview.db")+`
log_level: error
`)
	writeFile(t, filepath.Join(dir, "data", "base-posts.yaml"), `- id: "1"
  title: Why Flossing Matters
  slug: why-flossing-matters
  content: "<p>Flossing removes plaque.</p>"
  published: true
`)
	writeFile(t, filepath.Join(dir, "exports", "invisalign-or-braces.txt"), "Title: Invisalign or Braces?\n\nBoth straighten teeth.\n")
	return dir, configPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPipelineCommands(t *testing.T) {
	dir, cfgPath := project(t)

	out, err := run(t, "generate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "generated 1 posts from 1 files (0 skipped)")
	assert.FileExists(t, filepath.Join(dir, "src", "data", "generatedBlogPosts.ts"))

	out, err = run(t, "check", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "0 errors, 0 warnings")

	out, err = run(t, "publish", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "published 2 posts")

	writeFile(t, filepath.Join(dir, "src", "pages", "home.tsx"), `<a href="/blog/no-such-post/">x</a>`)
	out, err = run(t, "check", "--config", cfgPath)
	require.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "missing-slug")
}

func TestInitScaffoldsWorkingProject(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "riverside-dental")

	out, err := run(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "created "+filepath.Join(dir, "postmill.yaml"))
	assert.FileExists(t, filepath.Join(dir, "data", "seo-targets.yaml"))
	assert.FileExists(t, filepath.Join(dir, "src", "data", "blogPosts.ts"))

	cfg, err := os.ReadFile(filepath.Join(dir, "postmill.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "site_name: Riverside Dental")

	out, err = run(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "skipped "+filepath.Join(dir, "postmill.yaml")+" (exists)")

	t.Chdir(dir)
	t.Setenv("POSTMILL_TEST_PORT", "0")
	t.Setenv("POSTMILL_LOG_LEVEL", "error")

	out, err = run(t, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "generated 1 posts from 1 files")

	out, err = run(t, "check")
	require.NoError(t, err, out)

	out, err = run(t, "acceptance")
	require.NoError(t, err, out)
	assert.Contains(t, out, "5 routes checked, 0 failures")
}
