// Package query filters and paginates product listings.
package query

import (
	"math"
	"net/url"
	"strings"
	"unicode"

	"github.com/abgdnv/productapi/internal/product/store"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Params are the listing options read from the query string.
// Empty Search or Category means no filtering on that field.
type Params struct {
	Search   string
	Category string
	Page     int
	Limit    int
}

// Page is one page of a filtered listing. Total counts the filtered items, not only the page.
type Page[T any] struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Data  []T `json:"data"`
}

// ParseParams reads search, category, page and limit from q.
// Parsing never fails: page and limit take the leading integer of their value,
// anything non-numeric or below 1 becomes 1 and values above math.MaxInt32 are capped.
func ParseParams(q url.Values) Params {
	return Params{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Page:     parsePositive(q, "page", DefaultPage),
		Limit:    parsePositive(q, "limit", DefaultLimit),
	}
}

func parsePositive(q url.Values, key string, def int) int {
	if !q.Has(key) {
		return def
	}
	n, ok := leadingInt(q.Get(key))
	if !ok || n < 1 {
		return 1
	}
	return n
}

// leadingInt parses an optionally signed integer prefix of s after leading whitespace,
// ignoring whatever follows it. The magnitude saturates at math.MaxInt32.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}
	var n int64
	digits := 0
	for ; digits < len(s) && s[digits] >= '0' && s[digits] <= '9'; digits++ {
		if n < math.MaxInt32 {
			n = n*10 + int64(s[digits]-'0')
		}
	}
	if digits == 0 {
		return 0, false
	}
	n = min(n, math.MaxInt32)
	if negative {
		n = -n
	}
	return int(n), true
}

// Apply filters items by p.Search (case-insensitive substring of the name) and
// p.Category (exact match), then returns the requested page.
func Apply(items []store.Product, p Params) Page[store.Product] {
	filtered := make([]store.Product, 0, len(items))
	search := strings.ToLower(p.Search)
	for _, item := range items {
		if p.Search != "" && !strings.Contains(strings.ToLower(item.Name), search) {
			continue
		}
		if p.Category != "" && item.Category != p.Category {
			continue
		}
		filtered = append(filtered, item)
	}
	return Paginate(filtered, p.Page, p.Limit)
}

// Paginate returns the items of page (1-based) with limit items per page.
// A page past the end is empty, never nil.
func Paginate[T any](items []T, page, limit int) Page[T] {
	page, limit = max(page, 1), max(limit, 1)
	total := int64(len(items))
	start := int64(page-1) * int64(limit)
	data := make([]T, 0)
	if start < total {
		end := min(start+int64(limit), total)
		data = append(data, items[start:end]...)
	}
	return Page[T]{Total: len(items), Page: page, Limit: limit, Data: data}
}

// Map converts the items of a page, keeping its counters.
func Map[T, R any](p Page[T], fn func(T) R) Page[R] {
	data := make([]R, len(p.Data))
	for i, item := range p.Data {
		data[i] = fn(item)
	}
	return Page[R]{Total: p.Total, Page: p.Page, Limit: p.Limit, Data: data}
}
