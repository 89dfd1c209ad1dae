package acceptance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// Failure is one unmet expectation.
type Failure struct {
	Route string
	Check string
	Want  string
	Got   string
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %s: want %q, got %q", f.Route, f.Check, f.Want, f.Got)
}

// Result accumulates every failure of a run instead of stopping at the first.
type Result struct {
	Checked  int
	Failures []Failure
}

// Passed reports whether every expectation held.
func (r Result) Passed() bool {
	return len(r.Failures) == 0
}

// Write prints the failures and a summary line.
func (r Result) Write(w io.Writer) error {
	for _, f := range r.Failures {
		if _, err := fmt.Fprintf(w, "FAIL %s\n", f); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d routes checked, %d failures\n", r.Checked, len(r.Failures))
	return err
}

func (r *Result) fail(route, check, want, got string) {
	r.Failures = append(r.Failures, Failure{Route: route, Check: check, Want: want, Got: got})
}

// Runner fetches target routes from a base URL. Redirects are never followed
// so their status and Location can be asserted.
type Runner struct {
	client *http.Client
	log    zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.client.Timeout = d
	}
}

// NewRunner builds a Runner with a 10s per-request timeout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run checks every page and redirect in t against baseURL. Transport errors
// are recorded as failures; only an unusable baseURL or a cancelled context
// aborts the run.
func (r *Runner) Run(ctx context.Context, baseURL string, t Targets) (Result, error) {
	var res Result
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return res, fmt.Errorf("acceptance: invalid base url %q", baseURL)
	}

	for _, p := range t.Pages {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++
		r.checkPage(ctx, base, p, &res)
	}
	for _, rd := range t.Redirects {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++
		r.checkRedirect(ctx, base, rd, &res)
	}

	r.log.Info().Int("checked", res.Checked).Int("failures", len(res.Failures)).Msg("acceptance run finished")
	return res, nil
}

func (r *Runner) get(ctx context.Context, base *url.URL, route string) (*http.Response, error) {
	ref, err := url.Parse(route)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, err
	}
	return r.client.Do(req)
}

func (r *Runner) checkPage(ctx context.Context, base *url.URL, p Page, res *Result) {
	resp, err := r.get(ctx, base, p.Route)
	if err != nil {
		res.fail(p.Route, "request", "response", err.Error())
		return
	}
	defer resp.Body.Close()
	r.log.Debug().Str("route", p.Route).Int("status", resp.StatusCode).Msg("fetched page")

	if resp.StatusCode != p.Status {
		res.fail(p.Route, "status", fmt.Sprint(p.Status), fmt.Sprint(resp.StatusCode))
		return
	}
	if resp.StatusCode != http.StatusOK {
		return
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		res.fail(p.Route, "parse", "html document", err.Error())
		return
	}

	if title := strings.TrimSpace(doc.Find("head title").First().Text()); title == "" {
		res.fail(p.Route, "title", "non-empty <title>", "")
	}
	if desc, _ := doc.Find(`meta[name="description"]`).Attr("content"); strings.TrimSpace(desc) == "" {
		res.fail(p.Route, "description", "non-empty meta description", "")
	}

	h1 := doc.Find("h1")
	if h1.Length() != 1 {
		res.fail(p.Route, "h1 count", "1", fmt.Sprint(h1.Length()))
	}
	if p.H1 != "" {
		if got := strings.TrimSpace(h1.First().Text()); got != p.H1 {
			res.fail(p.Route, "h1", p.H1, got)
		}
	}

	if p.Canonical != "" {
		href, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
		if got := canonicalFor(p.Canonical, href); got != p.Canonical {
			res.fail(p.Route, "canonical", p.Canonical, href)
		}
	}

	if len(p.SchemaTypes) > 0 {
		types := SchemaTypes(doc)
		for _, want := range p.SchemaTypes {
			if !types[want] {
				res.fail(p.Route, "schema type", want, strings.Join(sortedKeys(types), ","))
			}
		}
	}
}

func (r *Runner) checkRedirect(ctx context.Context, base *url.URL, rd Redirect, res *Result) {
	resp, err := r.get(ctx, base, rd.From)
	if err != nil {
		res.fail(rd.From, "request", "response", err.Error())
		return
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused; the body itself is not checked.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != rd.Status {
		res.fail(rd.From, "redirect status", fmt.Sprint(rd.Status), fmt.Sprint(resp.StatusCode))
	}
	location := resp.Header.Get("Location")
	if got := canonicalFor(rd.To, location); got != rd.To {
		res.fail(rd.From, "location", rd.To, location)
	}
}

// canonicalFor reduces an absolute href to its path (plus query) when want is
// site-relative, so tables stay valid against any host and port.
func canonicalFor(want, href string) string {
	if !strings.HasPrefix(want, "/") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}

// SchemaTypes collects every JSON-LD @type on the page, including nested
// objects and @graph members. Blocks that are not valid JSON are ignored.
func SchemaTypes(doc *goquery.Document) map[string]bool {
	types := make(map[string]bool)
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return
		}
		collectTypes(v, types)
	})
	return types
}

func collectTypes(v any, types map[string]bool) {
	switch x := v.(type) {
	case map[string]any:
		switch t := x["@type"].(type) {
		case string:
			types[t] = true
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok {
					types[s] = true
				}
			}
		}
		for k, child := range x {
			if k != "@type" {
				collectTypes(child, types)
			}
		}
	case []any:
		for _, item := range x {
			collectTypes(item, types)
		}
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
