// Package acceptance checks a running preview server against a table of SEO
// expectations: status codes, redirects, H1 text, canonical links and
// structured-data types.
package acceptance

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// ErrTargetsMissing is returned when the target table does not exist.
var ErrTargetsMissing = errors.New("acceptance: target table not found")

// Page is the expected SEO shape of one route.
type Page struct {
	Route       string   `yaml:"route"`
	Status      int      `yaml:"status"`
	H1          string   `yaml:"h1"`
	Canonical   string   `yaml:"canonical"`
	SchemaTypes []string `yaml:"schemaTypes"`
}

// Redirect is an expected redirect response.
type Redirect struct {
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Status int    `yaml:"status"`
}

// Targets is the full acceptance table.
type Targets struct {
	Pages     []Page     `yaml:"pages"`
	Redirects []Redirect `yaml:"redirects"`
}

func sitePath(value any) error {
	s, _ := value.(string)
	if s != "" && !strings.HasPrefix(s, "/") {
		return errors.New("must start with /")
	}
	return nil
}

// Validate reports malformed entries.
func (p Page) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Route, validation.Required, validation.By(sitePath)),
		validation.Field(&p.Status, validation.Min(100), validation.Max(599)),
	)
}

// Validate reports malformed entries.
func (r Redirect) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.Required, validation.By(sitePath)),
		validation.Field(&r.To, validation.Required),
		validation.Field(&r.Status, validation.Min(300), validation.Max(399)),
	)
}

// Validate checks every page and redirect.
func (t Targets) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Pages),
		validation.Field(&t.Redirects),
	)
}

// LoadTargets reads the YAML target table at path. Pages without a status
// expect 200 and redirects without one expect 301.
func LoadTargets(path string) (Targets, error) {
	var t Targets
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return t, fmt.Errorf("%w: %s", ErrTargetsMissing, path)
		}
		return t, fmt.Errorf("acceptance: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("acceptance: decode %s: %w", path, err)
	}
	t.applyDefaults()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("acceptance: invalid targets in %s: %w", path, err)
	}
	return t, nil
}

func (t *Targets) applyDefaults() {
	for i := range t.Pages {
		if t.Pages[i].Status == 0 {
			t.Pages[i].Status = http.StatusOK
		}
	}
	for i := range t.Redirects {
		if t.Redirects[i].Status == 0 {
			t.Redirects[i].Status = http.StatusMovedPermanently
		}
	}
}
