// Package ingest turns raw blog exports into deduplicated, categorised and
// dated posts and emits the generated data module the web app imports.
package ingest

import (
	"regexp"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eringen/postmill"
)

// RawPost is one export file: its slug (file name without .txt) and text.
type RawPost struct {
	Slug string
	Path string
	Text string
}

// Parsed is the title/body split of a RawPost plus any front matter.
type Parsed struct {
	Slug   string
	Title  string
	Body   string
	Author string
	Tags   []string
	Date   time.Time
	Draft  bool
}

type frontMatter struct {
	Title  string    `yaml:"title"`
	Author string    `yaml:"author"`
	Tags   []string  `yaml:"tags"`
	Date   time.Time `yaml:"date"`
	Draft  bool      `yaml:"draft"`
}

var (
	reTitleLine = regexp.MustCompile(`(?i)^title:\s*(.*)$`)
	reHeading   = regexp.MustCompile(`^#{1,6}\s+(.*?)\s*#*$`)
)

// ParseRaw splits raw into title and body. It never fails: a file without a
// usable title or body yields ok=false and is skipped by the caller.
func ParseRaw(raw RawPost) (Parsed, bool) {
	text := strings.ReplaceAll(raw.Text, "\r\n", "\n")
	out := Parsed{Slug: raw.Slug}

	var fm frontMatter
	if rest, err := frontmatter.Parse(strings.NewReader(text), &fm); err == nil {
		text = string(rest)
		out.Author = strings.TrimSpace(fm.Author)
		out.Tags = postmill.FilterEmpty(fm.Tags)
		out.Date = fm.Date
		out.Draft = fm.Draft
	}

	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}

	title := strings.TrimSpace(fm.Title)
	explicit := false
	if i < len(lines) {
		first := strings.TrimSpace(lines[i])
		m := reTitleLine.FindStringSubmatch(first)
		if m == nil {
			m = reHeading.FindStringSubmatch(first)
		}
		if m != nil {
			explicit = true
			if title == "" {
				title = strings.TrimSpace(m[1])
			}
			i++
		}
	}
	// A blank title line resolves to an empty title; only a file with no
	// title line at all falls back to the slug.
	if title == "" && !explicit {
		title = FallbackTitle(raw.Slug)
	}

	body := make([]string, 0, len(lines)-i)
	for _, l := range lines[i:] {
		body = append(body, strings.TrimSpace(l))
	}
	out.Title = title
	out.Body = strings.TrimSpace(strings.Join(body, "\n"))

	if out.Title == "" || out.Body == "" {
		return Parsed{}, false
	}
	return out, true
}

// FallbackTitle derives a title from a slug: words split on '-' and '_',
// first letter of each capitalised.
func FallbackTitle(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})
	caser := cases.Title(language.English, cases.NoLower)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}
