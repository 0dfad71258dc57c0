// Package pagination slices ordered lists into fixed-size pages.
// It backs both the filter-option keyboards (teams, roles, levels) and the
// search-result lists.
package pagination

// Page is one window into an ordered list.
type Page[T any] struct {
	// Index is the zero-based page number, clamped to the valid range.
	Index      int
	Items      []T
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// Paginate returns the requested page of items. An out-of-range index is
// clamped rather than rejected; an empty list yields an empty page 0.
func Paginate[T any](items []T, index, size int) Page[T] {
	if size <= 0 {
		size = 1
	}
	total := (len(items) + size - 1) / size
	if total == 0 {
		return Page[T]{Index: 0, Items: nil, TotalPages: 0}
	}
	if index < 0 {
		index = 0
	}
	if index > total-1 {
		index = total - 1
	}
	start := index * size
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return Page[T]{
		Index:      index,
		Items:      items[start:end],
		TotalPages: total,
		HasPrev:    index > 0,
		HasNext:    index < total-1,
	}
}
