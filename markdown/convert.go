package markdown

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

var excessiveLines = regexp.MustCompile(`\n{3,}`)

// Converter turns HTML bodies from WordPress exports into markdown so every
// post goes through the same rendering path.
type Converter struct {
	converter *md.Converter
}

// NewConverter creates an HTML to markdown converter with GitHub-flavored output.
func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Converter{converter: converter}
}

// Convert returns the markdown equivalent of an HTML fragment.
func (c *Converter) Convert(fragment string) (string, error) {
	out, err := c.converter.ConvertString(fragment)
	if err != nil {
		return "", fmt.Errorf("html to markdown: %w", err)
	}
	out = excessiveLines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out), nil
}
