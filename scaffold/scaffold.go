// Package scaffold holds the starter files written by postmill init: a
// config file, the data files the pipeline reads, an SEO target table and
// a sample export.
package scaffold

import "embed"

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS

// Data is passed to every template.
type Data struct {
	SiteName string
	SiteURL  string
	Author   string
}
