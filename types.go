package postmill

// BlogPost is the core content type emitted by the generator, stored in
// SQLite for previews, and rendered by the page components. Field names on
// the wire match the web app's BlogPost interface.
type BlogPost struct {
	ID             string   `json:"id" yaml:"id"`
	Title          string   `json:"title" yaml:"title"`
	Slug           string   `json:"slug" yaml:"slug"`
	Excerpt        string   `json:"excerpt" yaml:"excerpt"`
	Content        string   `json:"content" yaml:"content"`
	Author         string   `json:"author" yaml:"author"`
	AuthorBio      string   `json:"authorBio" yaml:"authorBio"`
	Date           string   `json:"date" yaml:"date"`
	ReadTime       string   `json:"readTime" yaml:"readTime"`
	Category       string   `json:"category" yaml:"category"`
	Tags           []string `json:"tags" yaml:"tags"`
	SEOTitle       string   `json:"seoTitle" yaml:"seoTitle"`
	SEODescription string   `json:"seoDescription" yaml:"seoDescription"`
	SEOKeywords    string   `json:"seoKeywords" yaml:"seoKeywords"`
	Published      bool     `json:"published" yaml:"published"`
}

// Link returns the site-relative path of the post.
func (p BlogPost) Link() string {
	return "/blog/" + p.Slug + "/"
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> component.
type PageMeta struct {
	Title       string
	Description string
	Keywords    string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

// Redirect maps a retired site path to its replacement.
type Redirect struct {
	From   string `json:"from" yaml:"from"`
	To     string `json:"to" yaml:"to"`
	Status int    `json:"status,omitempty" yaml:"status,omitempty"`
}
