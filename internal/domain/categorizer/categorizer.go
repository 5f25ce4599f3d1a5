// Package categorizer maps Amazon report categories to ledger categories.
//
// Two resolvers are provided:
//   - StandardResolver: exact lookup in the static table, default on a miss
//   - FallbackResolver: exact lookup, then nearest key by edit distance,
//     then keyword containment, then the default
//
// Both are pure: the same raw string always resolves to the same category.
package categorizer

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Resolver maps a raw item category to a ledger category.
type Resolver interface {
	Resolve(raw string) string
}

// StandardResolver looks categories up in a fixed table.
type StandardResolver struct {
	table *Table
}

// NewStandardResolver creates a resolver over table.
func NewStandardResolver(table *Table) *StandardResolver {
	return &StandardResolver{table: table}
}

// Resolve returns the mapped category or the table default.
func (r *StandardResolver) Resolve(raw string) string {
	if c, ok := r.table.Lookup(Normalize(raw)); ok {
		return c
	}
	return r.table.Default()
}

// Table exposes the underlying table.
func (r *StandardResolver) Table() *Table { return r.table }

// Cache interface for resolved categories
type Cache interface {
	Get(key string) (string, bool)
	Set(key string, value string)
}

// FallbackResolver tries harder than StandardResolver before giving up.
type FallbackResolver struct {
	table       *Table
	maxDistance int
	cache       Cache
}

// DefaultMaxDistance is the largest edit distance accepted as a typo match.
const DefaultMaxDistance = 2

// NewFallbackResolver creates a fuzzy resolver. A nil cache disables memoization.
func NewFallbackResolver(table *Table, maxDistance int, cache Cache) *FallbackResolver {
	if maxDistance < 0 {
		maxDistance = DefaultMaxDistance
	}
	return &FallbackResolver{
		table:       table,
		maxDistance: maxDistance,
		cache:       cache,
	}
}

// Resolve returns the best category for raw.
func (r *FallbackResolver) Resolve(raw string) string {
	key := Normalize(raw)
	if c, ok := r.table.Lookup(key); ok {
		return c
	}
	if key == "" {
		return r.table.Default()
	}

	if r.cache != nil {
		if c, ok := r.cache.Get(key); ok {
			return c
		}
	}

	category := r.resolveMiss(key)
	if r.cache != nil {
		r.cache.Set(key, category)
	}
	return category
}

func (r *FallbackResolver) resolveMiss(key string) string {
	// Nearest key by edit distance; ties go to the alphabetically first key.
	bestKey := ""
	bestDistance := r.maxDistance + 1
	for _, candidate := range r.table.keys {
		d := levenshtein.ComputeDistance(key, candidate)
		if d < bestDistance && d*4 <= len(candidate) {
			bestKey, bestDistance = candidate, d
		}
	}
	if bestKey != "" {
		c, _ := r.table.Lookup(bestKey)
		return c
	}

	// Longest table key contained in the raw string, or containing it.
	bestKey = ""
	for _, candidate := range r.table.keys {
		if len(candidate) < 4 {
			continue
		}
		if strings.Contains(key, candidate) || (len(key) >= 4 && strings.Contains(candidate, key)) {
			if len(candidate) > len(bestKey) {
				bestKey = candidate
			}
		}
	}
	if bestKey != "" {
		c, _ := r.table.Lookup(bestKey)
		return c
	}

	return r.table.Default()
}

// Compile-time checks
var (
	_ Resolver = (*StandardResolver)(nil)
	_ Resolver = (*FallbackResolver)(nil)
)
