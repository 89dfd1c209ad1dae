package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/eringen/postmill/ingest"
	"github.com/eringen/postmill/scaffold"
)

func initCmd() *cobra.Command {
	var data scaffold.Data
	cmd := &cobra.Command{
		Use:   "init <dir>",
		Short: "Create a starter project: config, datasets, SEO targets and a sample export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if data.SiteName == "" {
				data.SiteName = ingest.FallbackTitle(filepath.Base(filepath.Clean(dir)))
			}
			if err := runInit(dir, data, cmd.OutOrStdout()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nNext steps:\n\n  cd %s\n  postmill generate\n  postmill check\n  postmill serve\n", dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&data.SiteName, "site-name", "", "site name (default derived from the directory)")
	cmd.Flags().StringVar(&data.SiteURL, "site-url", "http://localhost:4173", "public site URL used for canonical links")
	cmd.Flags().StringVar(&data.Author, "author", "Bright Smile Dental Team", "byline on generated posts")
	return cmd
}

// runInit renders every scaffold template into dir. Existing files are never
// overwritten.
func runInit(dir string, data scaffold.Data, out io.Writer) error {
	const root = "templates"
	return fs.WalkDir(scaffold.Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		outPath := strings.TrimSuffix(filepath.Join(dir, rel), ".tmpl")
		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}

		content, err := scaffold.Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				fmt.Fprintf(out, "  skipped %s (exists)\n", outPath)
				return nil
			}
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()

		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}
		fmt.Fprintf(out, "  created %s\n", outPath)
		return nil
	})
}
