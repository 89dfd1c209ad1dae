package postmill

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Best Invisalign Aligner Guide", "best-invisalign-aligner-guide"},
		{"  all_on_4 -- implants!! ", "all-on-4-implants"},
		{"café", "caf"},
		{"---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestBuildURL(t *testing.T) {
	assert.Equal(t, "https://example.com/", BuildURL("https://example.com"))
	assert.Equal(t, "https://example.com/blog/", BuildURL("https://example.com/", "blog"))
	assert.Equal(t, "https://example.com/blog/braces-basics/", BuildURL("https://example.com", "blog", "braces-basics"))
}

func TestFilterRelatedPosts(t *testing.T) {
	current := BlogPost{Slug: "a", Category: "Orthodontics", Tags: []string{"braces"}}
	posts := []BlogPost{
		current,
		{Slug: "b", Category: "Dental Implants", Tags: []string{"Braces "}},
		{Slug: "c", Category: "Orthodontics"},
		{Slug: "d", Category: "Preventive Care"},
		{Slug: "e", Category: "Orthodontics"},
	}
	assert.Equal(t, []string{"c", "e", "b"}, slugs(FilterRelatedPosts(current, posts, 0)))
	assert.Equal(t, []string{"c", "e"}, slugs(FilterRelatedPosts(current, posts, 2)))
}

func TestBlogPostingJsonLD(t *testing.T) {
	cfg := Config{SiteName: "Bright Smile Dental", SiteURL: "https://example.com"}
	post := BlogPost{
		Slug: "braces-basics", Title: "Braces <Basics>", Excerpt: "How braces work.",
		Author: "Dr. Lee", Date: "2024-03-01", Category: "Orthodontics", SEOKeywords: "braces",
	}

	raw := BlogPostingJsonLD(post, cfg)
	assert.NotContains(t, raw, "<Basics>", "markup is escaped inside script blocks")

	var ld map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &ld))
	assert.Equal(t, "BlogPosting", ld["@type"])
	assert.Equal(t, "Braces <Basics>", ld["headline"])
	assert.Equal(t, "https://example.com/blog/braces-basics/", ld["url"])
	assert.Equal(t, "Orthodontics", ld["articleSection"])
	assert.Equal(t, "Dr. Lee", ld["author"].(map[string]any)["name"])
	assert.Equal(t, "braces", ld["keywords"])
}

func TestBreadcrumbJsonLD(t *testing.T) {
	raw := BreadcrumbJsonLD([]Crumb{{Name: "Home", URL: "https://example.com/"}, {Name: "Blog", URL: "https://example.com/blog/"}})

	var ld struct {
		Type  string `json:"@type"`
		Items []struct {
			Position int    `json:"position"`
			Name     string `json:"name"`
		} `json:"itemListElement"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &ld))
	assert.Equal(t, "BreadcrumbList", ld.Type)
	require.Len(t, ld.Items, 2)
	assert.Equal(t, 2, ld.Items[1].Position)
	assert.Equal(t, "Blog", ld.Items[1].Name)
}
