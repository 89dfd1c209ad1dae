package integrity

import (
	"fmt"
	"io"
	"sort"
)

// Severity separates violations that fail the check from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Kind identifies the check that produced a violation.
type Kind string

const (
	KindUnpublished    Kind = "unpublished"
	KindSlugCollision  Kind = "slug-collision"
	KindDuplicateTitle Kind = "duplicate-title"
	KindMissingSlug    Kind = "missing-slug"
	KindRedirectOnly   Kind = "redirect-only-slug"
)

// Violation is one finding of the checker.
type Violation struct {
	Severity Severity
	Kind     Kind
	Slug     string
	File     string
	Message  string
}

// Report is the outcome of a Checker run.
type Report struct {
	Violations   []Violation
	PostsChecked int
	FilesScanned int
	LinksChecked int
}

func (r *Report) add(v Violation) {
	r.Violations = append(r.Violations, v)
}

func (r *Report) sort() {
	sort.SliceStable(r.Violations, func(i, j int) bool {
		a, b := r.Violations[i], r.Violations[j]
		if a.Severity != b.Severity {
			return a.Severity == SeverityError
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Slug < b.Slug
	})
}

// Errors returns the violations that fail the check.
func (r Report) Errors() []Violation {
	return r.filter(SeverityError)
}

// Warnings returns the advisory violations.
func (r Report) Warnings() []Violation {
	return r.filter(SeverityWarning)
}

// HasErrors reports whether the check failed.
func (r Report) HasErrors() bool {
	return len(r.Errors()) > 0
}

func (r Report) filter(s Severity) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == s {
			out = append(out, v)
		}
	}
	return out
}

// Write prints the violations grouped by severity and kind, followed by a
// one-line summary.
func (r Report) Write(w io.Writer) error {
	groups := []struct {
		label      string
		violations []Violation
	}{
		{"errors", r.Errors()},
		{"warnings", r.Warnings()},
	}
	for _, g := range groups {
		if len(g.violations) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s (%d):\n", g.label, len(g.violations)); err != nil {
			return err
		}
		var kind Kind
		for _, v := range g.violations {
			if v.Kind != kind {
				kind = v.Kind
				if _, err := fmt.Fprintf(w, "  %s\n", kind); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "    %s: %s\n", v.File, v.Message); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "checked %d posts, %d links in %d files: %d errors, %d warnings\n",
		r.PostsChecked, r.LinksChecked, r.FilesScanned, len(r.Errors()), len(r.Warnings()))
	return err
}
