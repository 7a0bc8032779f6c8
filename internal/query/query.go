// Package query is the read model used by the list endpoints: a pure
// projection from an ordered collection through filter predicates into
// a paginated page. Filters AND across dimensions; text search ORs
// across its fields. Input order is preserved.
package query

import (
	"strings"
	"time"
)

// Page is one window over a filtered collection.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalItems int   `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Predicate is one filter dimension over T.
type Predicate[T any] func(T) bool

// Filter returns the items matching every predicate, preserving order.
// Nil predicates are skipped so callers can pass optional dimensions
// unconditionally.
func Filter[T any](items []T, preds ...Predicate[T]) []T {
	out := make([]T, 0, len(items))
next:
	for _, it := range items {
		for _, p := range preds {
			if p != nil && !p(it) {
				continue next
			}
		}
		out = append(out, it)
	}
	return out
}

// Paginate slices items into the requested zero-based page. A page
// beyond the end clamps to the last valid page instead of returning an
// empty window.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if page < 0 {
		page = 0
	}

	total := len(items)
	totalPages := (total + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}

	start := page * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page[T]{
		Items:      items[start:end],
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

// List filters then paginates in one step.
func List[T any](items []T, page, size int, preds ...Predicate[T]) Page[T] {
	return Paginate(Filter(items, preds...), page, size)
}

// TextSearch builds a case-insensitive substring predicate ORed across
// the values produced by fields. An empty query matches everything.
func TextSearch[T any](q string, fields ...func(T) string) Predicate[T] {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}
	return func(it T) bool {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f(it)), q) {
				return true
			}
		}
		return false
	}
}

// DateRange is a half-open-ended range; a zero bound is unconstrained.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) Empty() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// InRange builds a predicate over the date produced by field. Records
// whose field yields a zero time never match a constrained range.
func InRange[T any](r DateRange, field func(T) time.Time) Predicate[T] {
	if r.Empty() {
		return nil
	}
	return func(it T) bool {
		t := field(it)
		if t.IsZero() {
			return false
		}
		if !r.From.IsZero() && t.Before(r.From) {
			return false
		}
		if !r.To.IsZero() && t.After(r.To) {
			return false
		}
		return true
	}
}

// OneOf builds a set-membership predicate; an empty set matches all.
func OneOf[T any, K comparable](allowed []K, key func(T) K) Predicate[T] {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[K]struct{}, len(allowed))
	for _, k := range allowed {
		set[k] = struct{}{}
	}
	return func(it T) bool {
		_, ok := set[key(it)]
		return ok
	}
}
