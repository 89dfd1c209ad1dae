package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eringen/postmill"
)

const moduleHeader = `// Code generated by postmill generate. DO NOT EDIT.
// Regenerate from the blog exports instead of editing this file; every run
// replaces its contents.

import type { BlogPost } from "./blogPosts";

export const generatedBlogPosts: BlogPost[] = `

// Emitter writes the accepted posts as a TypeScript module for the web app
// and as a JSON sidecar for the integrity checker and preview server.
type Emitter struct {
	ModulePath string
	JSONPath   string
}

// Emit overwrites both outputs with posts. An empty batch still writes an
// empty array so downstream imports stay valid.
func (e Emitter) Emit(posts []postmill.BlogPost) error {
	if posts == nil {
		posts = []postmill.BlogPost{}
	}
	data, err := marshalPosts(posts)
	if err != nil {
		return err
	}

	var module bytes.Buffer
	module.WriteString(moduleHeader)
	module.Write(data)
	module.WriteString(";\n")

	if err := writeFileAtomic(e.ModulePath, module.Bytes()); err != nil {
		return err
	}
	if e.JSONPath != "" {
		if err := writeFileAtomic(e.JSONPath, append(data, '\n')); err != nil {
			return err
		}
	}
	return nil
}

func marshalPosts(posts []postmill.BlogPost) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(posts); err != nil {
		return nil, fmt.Errorf("encode posts: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// writeFileAtomic replaces path via a temp file in the same directory so a
// failed run never leaves a truncated module behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
