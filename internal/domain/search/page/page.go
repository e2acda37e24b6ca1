package page

// Page is one window of an ordered result list.
type Page[T any] struct {
	items      []T
	number     int
	size       int
	totalCount int
	totalPages int
	truncated  bool
}

// Paginate slices items into the 1-indexed page of the given size.
// totalPages is at least 1; a page past the end yields no items.
// number and size must already be validated as >= 1.
func Paginate[T any](items []T, number, size int) Page[T] {
	total := len(items)
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}

	p := Page[T]{
		items:      []T{},
		number:     number,
		size:       size,
		totalCount: total,
		totalPages: pages,
	}

	// checked before multiplying so huge page numbers cannot overflow the offset
	if number > pages {
		return p
	}
	offset := (number - 1) * size
	if offset >= total {
		return p
	}
	end := min(offset+size, total)
	p.items = items[offset:end]
	return p
}

// Items returns the results on this page.
func (p Page[T]) Items() []T { return p.items }

// Number returns the 1-indexed page number.
func (p Page[T]) Number() int { return p.number }

// Size returns the requested page size.
func (p Page[T]) Size() int { return p.size }

// TotalCount returns the number of results across all pages.
func (p Page[T]) TotalCount() int { return p.totalCount }

// TotalPages returns the page count, at least 1.
func (p Page[T]) TotalPages() int { return p.totalPages }

// Truncated reports whether the list was capped before paging.
// TotalCount is then a lower bound.
func (p Page[T]) Truncated() bool { return p.truncated }

// MarkTruncated returns a copy of p flagged as built from a capped list.
func (p Page[T]) MarkTruncated() Page[T] {
	p.truncated = true
	return p
}
