package postmill

import (
	"database/sql"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = sql.ErrNoRows

// snapshot is one load of the published set, indexed for the preview routes.
type snapshot struct {
	posts      []BlogPost
	bySlug     map[string]int
	byCategory map[string][]int
	categories []string
	loaded     time.Time
}

func newSnapshot(posts []BlogPost, categories []string) *snapshot {
	snap := &snapshot{
		posts:      posts,
		bySlug:     make(map[string]int, len(posts)),
		byCategory: make(map[string][]int),
		categories: categories,
		loaded:     time.Now(),
	}
	for i, p := range posts {
		snap.bySlug[p.Slug] = i
		key := normalizeCategory(p.Category)
		snap.byCategory[key] = append(snap.byCategory[key], i)
	}
	return snap
}

// PostCache holds the published posts read from the preview store for ttl.
// Publishing replaces the store's contents, so callers Invalidate after it.
type PostCache struct {
	mu    sync.RWMutex
	snap  *snapshot
	ttl   time.Duration
	store *Store
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s *Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

// Invalidate drops the current snapshot; the next read reloads.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

func (c *PostCache) fresh() *snapshot {
	if c.snap != nil && time.Since(c.snap.loaded) < c.ttl {
		return c.snap
	}
	return nil
}

func (c *PostCache) current() (*snapshot, error) {
	c.mu.RLock()
	snap := c.fresh()
	c.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if snap := c.fresh(); snap != nil {
		return snap, nil
	}
	posts, err := c.store.ListPosts("")
	if err != nil {
		return nil, err
	}
	categories, err := c.store.ListCategories()
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []BlogPost{}
	}
	c.snap = newSnapshot(posts, categories)
	return c.snap, nil
}

// ListPosts returns published posts, newest first, optionally limited to one
// category (matched case-insensitively).
func (c *PostCache) ListPosts(category string) ([]BlogPost, error) {
	snap, err := c.current()
	if err != nil {
		return nil, err
	}
	if category == "" {
		return snap.posts, nil
	}
	idx := snap.byCategory[normalizeCategory(category)]
	filtered := make([]BlogPost, 0, len(idx))
	for _, i := range idx {
		filtered = append(filtered, snap.posts[i])
	}
	return filtered, nil
}

// ListCategories returns all distinct categories of published posts.
func (c *PostCache) ListCategories() ([]string, error) {
	snap, err := c.current()
	if err != nil {
		return nil, err
	}
	return snap.categories, nil
}

// Count returns the number of published posts, or 0 if the store fails.
func (c *PostCache) Count() int {
	snap, err := c.current()
	if err != nil {
		return 0
	}
	return len(snap.posts)
}

// GetPost returns a published post by slug.
func (c *PostCache) GetPost(slug string) (BlogPost, error) {
	snap, err := c.current()
	if err != nil {
		return BlogPost{}, err
	}
	i, ok := snap.bySlug[slug]
	if !ok {
		return BlogPost{}, ErrNotFound
	}
	return snap.posts[i], nil
}

func normalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
