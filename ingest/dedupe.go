package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/eringen/postmill"
	"github.com/eringen/postmill/markdown"
)

// HashWindow is the number of UTF-16 code units of plain text fed to ContentHash.
const HashWindow = 5000

// Reason names why a candidate was not accepted. The empty Reason means accepted.
type Reason string

const (
	ReasonUnparseable      Reason = "unparseable"
	ReasonDraft            Reason = "draft"
	ReasonRenderFailed     Reason = "render-failed"
	ReasonDuplicateSlug    Reason = "duplicate-slug"
	ReasonDuplicateSource  Reason = "duplicate-source-slug"
	ReasonDuplicateTitle   Reason = "duplicate-title"
	ReasonDuplicateCanon   Reason = "duplicate-canonical-title"
	ReasonDuplicateContent Reason = "duplicate-content"
)

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reYear     = regexp.MustCompile(`^(19|20)\d{2}$`)

	stopwords = map[string]bool{
		"a": true, "an": true, "the": true,
		"and": true, "or": true, "of": true, "for": true, "to": true, "in": true,
		"on": true, "at": true, "with": true, "from": true, "by": true, "about": true,
		"is": true, "are": true, "vs": true, "versus": true,
		"your": true, "you": true, "our": true, "my": true,
		"how": true, "what": true, "why": true, "when": true,
		"best": true, "top": true, "ultimate": true, "complete": true, "essential": true,
		"guide": true, "tips": true, "tricks": true, "everything": true, "need": true,
		"know": true, "things": true, "ways": true, "reasons": true, "facts": true,
		"really": true, "new": true, "updated": true,
	}
)

// NormalizeTitle lowercases title and collapses every non-alphanumeric run to '-'.
func NormalizeTitle(title string) string {
	return strings.Trim(reNonAlnum.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

// CanonicalTitle is NormalizeTitle with stopwords and years removed.
// Titles consisting only of stopwords canonicalise to "".
func CanonicalTitle(title string) string {
	words := strings.Fields(reNonAlnum.ReplaceAllString(strings.ToLower(title), " "))
	kept := words[:0]
	for _, w := range words {
		if stopwords[w] || reYear.MatchString(w) {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, "-")
}

// ContentHash fingerprints the first HashWindow UTF-16 code units of the
// lowercased, tag-stripped HTML body with a 32-bit h*31+c rolling hash.
// Entities and whitespace are hashed as written.
func ContentHash(contentHTML string) string {
	text := strings.ToLower(markdown.StripTags(contentHTML))
	units := utf16.Encode([]rune(text))
	if len(units) > HashWindow {
		units = units[:HashWindow]
	}
	var h int32
	for _, u := range units {
		h = h*31 + int32(u)
	}
	return strconv.FormatInt(int64(h), 10)
}

// Candidate is a rendered post awaiting the duplicate checks.
type Candidate struct {
	Slug        string
	SourceSlug  string
	Title       string
	ContentHTML string
}

// Fingerprint is the set of identities a candidate is checked against.
type Fingerprint struct {
	Slug        string
	SourceSlug  string
	Title       string
	Canonical   string
	ContentHash string
}

// Fingerprints computes every identity of c.
func Fingerprints(c Candidate) Fingerprint {
	return Fingerprint{
		Slug:        c.Slug,
		SourceSlug:  c.SourceSlug,
		Title:       NormalizeTitle(c.Title),
		Canonical:   CanonicalTitle(c.Title),
		ContentHash: ContentHash(c.ContentHTML),
	}
}

// DedupeState is the working set of identities seen during one run. It is
// seeded from the base dataset and grows as candidates are accepted, so later
// candidates are checked against earlier ones in the same batch.
type DedupeState struct {
	slugs           map[string]bool
	sourceSlugs     map[string]bool
	titles          map[string]bool
	canonicalTitles map[string]bool
	contentHashes   map[string]bool
}

// NewDedupeState seeds a state with the identities of base.
func NewDedupeState(base []postmill.BlogPost) *DedupeState {
	s := &DedupeState{
		slugs:           make(map[string]bool),
		sourceSlugs:     make(map[string]bool),
		titles:          make(map[string]bool),
		canonicalTitles: make(map[string]bool),
		contentHashes:   make(map[string]bool),
	}
	for _, p := range base {
		s.Accept(Fingerprints(Candidate{
			Slug:        p.Slug,
			SourceSlug:  p.Slug,
			Title:       p.Title,
			ContentHTML: p.Content,
		}))
	}
	return s
}

// Check returns the first identity of fp already seen, or "" if none.
func (s *DedupeState) Check(fp Fingerprint) Reason {
	switch {
	case fp.Slug != "" && s.slugs[fp.Slug]:
		return ReasonDuplicateSlug
	case fp.SourceSlug != "" && s.sourceSlugs[fp.SourceSlug]:
		return ReasonDuplicateSource
	case fp.Title != "" && s.titles[fp.Title]:
		return ReasonDuplicateTitle
	case fp.Canonical != "" && s.canonicalTitles[fp.Canonical]:
		return ReasonDuplicateCanon
	case s.contentHashes[fp.ContentHash]:
		return ReasonDuplicateContent
	}
	return ""
}

// Accept records every identity of fp.
func (s *DedupeState) Accept(fp Fingerprint) {
	if fp.Slug != "" {
		s.slugs[fp.Slug] = true
	}
	if fp.SourceSlug != "" {
		s.sourceSlugs[fp.SourceSlug] = true
	}
	if fp.Title != "" {
		s.titles[fp.Title] = true
	}
	if fp.Canonical != "" {
		s.canonicalTitles[fp.Canonical] = true
	}
	s.contentHashes[fp.ContentHash] = true
}

// Len returns the number of distinct slugs known to the state.
func (s *DedupeState) Len() int {
	return len(s.slugs)
}
