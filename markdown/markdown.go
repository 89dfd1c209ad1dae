// Package markdown renders post bodies to HTML and derives the plain-text
// views (excerpt, read time, fingerprint input) the pipeline needs.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"
)

// WordsPerMinute is the reading speed used by ReadTime.
const WordsPerMinute = 200

// Renderer converts markdown to HTML. It is stateless and safe to share.
type Renderer struct {
	engine goldmark.Markdown
}

// NewRenderer builds a goldmark-backed renderer with GFM tables, linkify and
// heading IDs. Raw HTML in the source is passed through since WordPress
// exports routinely embed it. Level-1 headings come out as h2: the page
// template owns the only h1.
func NewRenderer() *Renderer {
	return &Renderer{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
				parser.WithASTTransformers(util.Prioritized(demoteTitleHeadings{}, 100)),
			),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

type demoteTitleHeadings struct{}

func (demoteTitleHeadings) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering && h.Level == 1 {
			h.Level = 2
		}
		return ast.WalkContinue, nil
	})
}

// Render returns the HTML for md.
func (r *Renderer) Render(md string) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// HTML returns a templ.Component that writes already-rendered HTML verbatim.
func HTML(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, content)
		return err
	})
}

// DemoteHeadings rewrites h1 elements in an HTML fragment to h2, keeping
// their attributes. Hand-authored content is not rendered by Renderer, so
// the post page applies this before embedding it.
func DemoteHeadings(fragment string) string {
	if !strings.Contains(strings.ToLower(fragment), "<h1") {
		return fragment
	}
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return b.String()
		}
		raw := string(z.Raw())
		if tt == html.StartTagToken || tt == html.EndTagToken {
			if name, _ := z.TagName(); string(name) == "h1" {
				if tt == html.StartTagToken {
					raw = "<h2" + raw[len("<h1"):]
				} else {
					raw = "</h2" + raw[len("</h1"):]
				}
			}
		}
		b.WriteString(raw)
	}
}

// StripTags removes markup from an HTML fragment and leaves the text exactly
// as written: entities stay encoded and whitespace is untouched.
func StripTags(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Raw())
		}
	}
}

// PlainText strips tags from an HTML fragment, decodes entities and
// collapses whitespace. Script and style bodies are dropped.
func PlainText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseSpace(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if isRawTextTag(name) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawTextTag(name) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Excerpt returns at most max runes of text, cut at a word boundary with an
// ellipsis when truncated.
func Excerpt(text string, max int) string {
	text = collapseSpace(text)
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}
	cut := string(runes[:max])
	if i := strings.LastIndexFunc(cut, unicode.IsSpace); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(cut, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) + "..."
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ReadTime formats the estimated reading time of text, e.g. "4 min read".
func ReadTime(text string) string {
	minutes := (WordCount(text) + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return strconv.Itoa(minutes) + " min read"
}

var (
	reLeadingBlockTag = regexp.MustCompile(`(?i)^<(p|div|h[1-6]|ul|ol|blockquote|table|figure|section|article|pre)[\s>/]`)
	reMarkdownBlock   = regexp.MustCompile(`(?m)^(#{1,6}\s|[-*+]\s|\d+[.)]\s|>\s|\x60{3})`)
)

// LooksLikeHTML reports whether body is an HTML document rather than markdown
// with inline tags: it must open with a block element and contain no markdown
// block syntax.
func LooksLikeHTML(body string) bool {
	body = strings.TrimSpace(body)
	return reLeadingBlockTag.MatchString(body) && !reMarkdownBlock.MatchString(body)
}
