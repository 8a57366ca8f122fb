package catalog

import (
	"strings"
	"unicode"
)

// SearchLimit caps the number of articles Search returns.
const SearchLimit = 200

// Catalog is a read-only, indexed list of articles.
type Catalog struct {
	articles []Article
	byID     map[string]int
	byCode   map[string]int
}

// New indexes articles. On duplicate ids or normalized codes the first wins.
func New(articles []Article) *Catalog {
	c := &Catalog{
		articles: append([]Article(nil), articles...),
		byID:     make(map[string]int, len(articles)),
		byCode:   make(map[string]int, len(articles)),
	}
	for i, a := range c.articles {
		if _, dup := c.byID[a.ID]; !dup && a.ID != "" {
			c.byID[a.ID] = i
		}
		code := NormalizeCode(a.Code)
		if _, dup := c.byCode[code]; !dup && code != "" {
			c.byCode[code] = i
		}
	}
	return c
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.articles)
}

// ByID returns the article with the given id.
func (c *Catalog) ByID(id string) (*Article, bool) {
	if c == nil {
		return nil, false
	}
	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, false
	}
	return &c.articles[i], true
}

// ByCode returns the article whose merchant code matches ignoring case,
// spacing and punctuation.
func (c *Catalog) ByCode(code string) (*Article, bool) {
	if c == nil {
		return nil, false
	}
	i, ok := c.byCode[NormalizeCode(code)]
	if !ok {
		return nil, false
	}
	return &c.articles[i], true
}

// Search returns up to limit articles whose code, name, brand or tags
// contain q, case-insensitively. An empty query lists the first articles.
func (c *Catalog) Search(q string, limit int) []Article {
	if c == nil {
		return nil
	}
	if limit <= 0 || limit > SearchLimit {
		limit = SearchLimit
	}
	t := strings.ToLower(strings.TrimSpace(q))
	out := make([]Article, 0, min(limit, len(c.articles)))
	for _, a := range c.articles {
		if len(out) == limit {
			break
		}
		if t == "" || matches(a, t) {
			out = append(out, a)
		}
	}
	return out
}

func matches(a Article, t string) bool {
	return strings.Contains(strings.ToLower(a.Code), t) ||
		strings.Contains(strings.ToLower(a.Name), t) ||
		strings.Contains(strings.ToLower(a.Brand), t) ||
		strings.Contains(strings.ToLower(strings.Join(a.Tags, " ")), t)
}

// NormalizeCode lowercases a code and drops everything but letters and digits.
func NormalizeCode(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range strings.ToLower(code) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
