package postmill

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrDatasetMissing is returned when a required data file does not exist.
var ErrDatasetMissing = errors.New("postmill: dataset not found")

// LoadPosts reads a post dataset from a YAML (.yaml, .yml) or JSON file.
// The document is a top-level array of posts.
func LoadPosts(path string) ([]BlogPost, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetMissing, path)
		}
		return nil, fmt.Errorf("postmill: read %s: %w", path, err)
	}
	var posts []BlogPost
	if err := decodeData(path, data, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// LoadRedirects reads the redirects file. A missing file yields no redirects.
// Entries without a status default to 301.
func LoadRedirects(path string) ([]Redirect, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("postmill: read %s: %w", path, err)
	}
	var redirects []Redirect
	if err := decodeData(path, data, &redirects); err != nil {
		return nil, err
	}
	out := redirects[:0]
	for _, r := range redirects {
		r.From = strings.TrimSpace(r.From)
		r.To = strings.TrimSpace(r.To)
		if r.From == "" || r.To == "" {
			continue
		}
		if r.Status == 0 {
			r.Status = http.StatusMovedPermanently
		}
		out = append(out, r)
	}
	return out, nil
}

func decodeData(path string, data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("postmill: decode %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("postmill: decode %s: %w", path, err)
		}
	default:
		return fmt.Errorf("postmill: unsupported data file %s", path)
	}
	return nil
}

// BlogSlug extracts the slug from a /blog/<slug> path. Trailing slashes,
// query strings and fragments are ignored.
func BlogSlug(path string) (string, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	rest, ok := strings.CutPrefix(path, "/blog/")
	if !ok {
		return "", false
	}
	rest = strings.Trim(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

// RedirectedSlugs returns the set of blog slugs that are the source of a redirect.
func RedirectedSlugs(redirects []Redirect) map[string]string {
	out := make(map[string]string)
	for _, r := range redirects {
		if slug, ok := BlogSlug(r.From); ok {
			out[slug] = r.To
		}
	}
	return out
}

// LoadPublished returns the base dataset followed by the generated dataset.
// The base file is required; a generated file that has not been written yet
// contributes nothing.
func LoadPublished(cfg Config) ([]BlogPost, error) {
	base, err := LoadPosts(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	generated, err := LoadPosts(cfg.GeneratedPath)
	if err != nil && !errors.Is(err, ErrDatasetMissing) {
		return nil, err
	}
	return append(base, generated...), nil
}

// Publish replaces the store's post set with the base and generated datasets.
func Publish(store *Store, cfg Config) (int, error) {
	posts, err := LoadPublished(cfg)
	if err != nil {
		return 0, err
	}
	if err := store.ReplaceAll(posts); err != nil {
		return 0, fmt.Errorf("postmill: publish: %w", err)
	}
	return len(posts), nil
}
