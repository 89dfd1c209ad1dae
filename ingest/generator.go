package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eringen/postmill"
	"github.com/eringen/postmill/markdown"
)

// ErrContentDirMissing is returned when the export directory does not exist.
var ErrContentDirMissing = errors.New("ingest: content directory not found")

// Report summarises one generator run.
type Report struct {
	Files    int
	Accepted int
	Skipped  map[Reason]int
	Posts    []postmill.BlogPost
}

// SkippedTotal returns the number of files that did not produce a post.
func (r Report) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

// Generator runs the export-to-module pipeline.
type Generator struct {
	cfg       postmill.Config
	rules     Rules
	renderer  *markdown.Renderer
	converter *markdown.Converter
	log       zerolog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRules replaces DefaultRules.
func WithRules(rules Rules) GeneratorOption {
	return func(g *Generator) {
		g.rules = rules
	}
}

// WithLogger sets the run logger.
func WithLogger(log zerolog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.log = log
	}
}

// NewGenerator builds a Generator. cfg should already be prepared.
func NewGenerator(cfg postmill.Config, opts ...GeneratorOption) *Generator {
	g := &Generator{
		cfg:       cfg,
		rules:     DefaultRules,
		renderer:  markdown.NewRenderer(),
		converter: markdown.NewConverter(),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run reads every export, builds the accepted posts and emits them. A bad
// file is skipped; a missing directory or base dataset aborts the run
// before anything is written.
func (g *Generator) Run(ctx context.Context) (Report, error) {
	report := Report{Skipped: make(map[Reason]int)}

	start, end, err := g.cfg.DateWindow()
	if err != nil {
		return report, err
	}
	base, err := postmill.LoadPosts(g.cfg.BasePath)
	if err != nil {
		return report, err
	}
	raws, err := ReadExports(g.cfg.ContentDir)
	if err != nil {
		return report, err
	}
	report.Files = len(raws)

	state := NewDedupeState(base)
	var batch []acceptedPost
	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		a, reason := g.process(raw, state)
		if reason != "" {
			report.Skipped[reason]++
			g.log.Debug().Str("file", raw.Path).Str("reason", string(reason)).Msg("skipped export")
			continue
		}
		batch = append(batch, a)
	}

	posts := g.assemble(batch, base, start, end)
	emitter := Emitter{ModulePath: g.cfg.ModulePath, JSONPath: g.cfg.GeneratedPath}
	if err := emitter.Emit(posts); err != nil {
		return report, err
	}

	report.Accepted = len(posts)
	report.Posts = posts
	g.log.Info().
		Int("files", report.Files).
		Int("accepted", report.Accepted).
		Int("skipped", report.SkippedTotal()).
		Str("module", g.cfg.ModulePath).
		Msg("generated blog posts")
	return report, nil
}

type acceptedPost struct {
	parsed       Parsed
	slug         string
	html         string
	text         string
	explicitDate bool
}

func (g *Generator) process(raw RawPost, state *DedupeState) (acceptedPost, Reason) {
	parsed, ok := ParseRaw(raw)
	if !ok {
		return acceptedPost{}, ReasonUnparseable
	}
	if parsed.Draft {
		return acceptedPost{}, ReasonDraft
	}

	slug := postmill.Slugify(raw.Slug)
	if slug == "" {
		return acceptedPost{}, ReasonUnparseable
	}
	// Cheap identities first so duplicates skip rendering.
	if state.slugs[slug] {
		return acceptedPost{}, ReasonDuplicateSlug
	}
	if state.sourceSlugs[raw.Slug] {
		return acceptedPost{}, ReasonDuplicateSource
	}

	body := parsed.Body
	if markdown.LooksLikeHTML(body) {
		converted, err := g.converter.Convert(body)
		if err != nil {
			g.log.Warn().Err(err).Str("file", raw.Path).Msg("html conversion failed, rendering as-is")
		} else {
			body = converted
		}
	}
	html, err := g.renderer.Render(body)
	if err != nil {
		return acceptedPost{}, ReasonRenderFailed
	}

	fp := Fingerprints(Candidate{
		Slug:        slug,
		SourceSlug:  raw.Slug,
		Title:       parsed.Title,
		ContentHTML: html,
	})
	if reason := state.Check(fp); reason != "" {
		return acceptedPost{}, reason
	}
	state.Accept(fp)

	return acceptedPost{
		parsed:       parsed,
		slug:         slug,
		html:         html,
		text:         markdown.PlainText(html),
		explicitDate: !parsed.Date.IsZero(),
	}, ""
}

func (g *Generator) assemble(batch []acceptedPost, base []postmill.BlogPost, start, end time.Time) []postmill.BlogPost {
	dates := DistributeDates(len(batch), start, end)
	nextID := maxNumericID(base) + 1

	posts := make([]postmill.BlogPost, 0, len(batch))
	for i, a := range batch {
		category := g.rules.Classify(a.slug)
		tags := g.rules.Tags(a.slug, category)
		tags = appendUnique(tags, a.parsed.Tags...)

		date := dates[i]
		if a.explicitDate {
			date = a.parsed.Date
		}
		author := g.cfg.Author
		if a.parsed.Author != "" {
			author = a.parsed.Author
		}
		excerpt := markdown.Excerpt(a.text, g.cfg.ExcerptLength)

		posts = append(posts, postmill.BlogPost{
			ID:             strconv.Itoa(nextID + i),
			Title:          a.parsed.Title,
			Slug:           a.slug,
			Excerpt:        excerpt,
			Content:        a.html,
			Author:         author,
			AuthorBio:      g.cfg.AuthorBio,
			Date:           date.UTC().Format(postmill.DateLayout),
			ReadTime:       markdown.ReadTime(a.text),
			Category:       category,
			Tags:           tags,
			SEOTitle:       a.parsed.Title + " | " + g.cfg.SiteName,
			SEODescription: excerpt,
			SEOKeywords:    strings.Join(tags, ", "),
			Published:      true,
		})
	}
	return posts
}

func maxNumericID(posts []postmill.BlogPost) int {
	highest := 0
	for _, p := range posts {
		if n, err := strconv.Atoi(p.ID); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

func appendUnique(tags []string, extra ...string) []string {
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		seen[strings.ToLower(t)] = true
	}
	for _, t := range extra {
		if seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		tags = append(tags, t)
	}
	return tags
}

// ReadExports returns the *.txt files directly inside dir, sorted by file
// name, with their slugs derived from the file name.
func ReadExports(dir string) ([]RawPost, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrContentDirMissing, dir)
		}
		return nil, fmt.Errorf("ingest: read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	raws := make([]RawPost, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ingest: read %s: %w", path, err)
		}
		raws = append(raws, RawPost{
			Slug: strings.TrimSuffix(name, filepath.Ext(name)),
			Path: path,
			Text: string(data),
		})
	}
	return raws, nil
}
