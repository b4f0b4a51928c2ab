// Package catalog provides read-only access to the grocery product table.
//
// The assistant only consumes the Accessor contract; the in-memory, SQLite and
// Redis-cached implementations below are interchangeable behind it.
package catalog

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable is returned when the catalog cannot be read at all.
var ErrUnavailable = errors.New("catalog unavailable")

// Product is one catalog row.
type Product struct {
	ProductType string  `json:"product_type"`
	Brand       string  `json:"product_brand"`
	Price       float64 `json:"product_price"`
	Rating      float64 `json:"product_rating"`
	ReviewCount int     `json:"product_review"`
	Category    string  `json:"category_type"`
}

// Filter narrows a lookup. Empty fields match everything; non-empty fields
// match case-insensitively after trimming.
type Filter struct {
	Category    string
	ProductType string
	Brand       string
}

// Key returns a normalised representation suitable for cache keys.
func (f Filter) Key() string {
	return normalize(f.Category) + "|" + normalize(f.ProductType) + "|" + normalize(f.Brand)
}

// Matches reports whether p satisfies the filter.
func (f Filter) Matches(p Product) bool {
	return fieldMatches(f.Category, p.Category) &&
		fieldMatches(f.ProductType, p.ProductType) &&
		fieldMatches(f.Brand, p.Brand)
}

// Accessor is the query contract the tool registry depends on.
type Accessor interface {
	// Lookup returns every row matching the filter, in catalog order.
	Lookup(ctx context.Context, f Filter) ([]Product, error)
	// ListCategories returns the distinct categories, lowercased and trimmed,
	// in order of first appearance.
	ListCategories(ctx context.Context) ([]string, error)
}

func fieldMatches(want, got string) bool {
	want = normalize(want)
	return want == "" || want == normalize(got)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Distinct returns the unique values produced by field over rows, keeping the
// first spelling seen and the order of first appearance.
func Distinct(rows []Product, field func(Product) string) []string {
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		v := strings.TrimSpace(field(r))
		k := strings.ToLower(v)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ProductTypes is a Distinct helper for product types.
func ProductTypes(rows []Product) []string {
	return Distinct(rows, func(p Product) string { return p.ProductType })
}

// Brands is a Distinct helper for brands.
func Brands(rows []Product) []string {
	return Distinct(rows, func(p Product) string { return p.Brand })
}

func categoriesOf(rows []Product) []string {
	cats := Distinct(rows, func(p Product) string { return p.Category })
	for i := range cats {
		cats[i] = strings.ToLower(cats[i])
	}
	return cats
}
