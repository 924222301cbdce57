package dispatch

import (
	"errors"
	"strconv"
)

// Page is a single page of list results with an optional cursor for fetching
// the next page.
//
// Items is never nil; NewPage normalizes nil input to an empty slice.
type Page[T any] struct {
	Items      []T
	NextCursor *string
}

// PageOption configures a Page constructed via NewPage.
type PageOption[T any] func(*Page[T])

// WithNextCursor marks that more results are available.
func WithNextCursor[T any](cursor string) PageOption[T] {
	return func(p *Page[T]) {
		p.NextCursor = &cursor
	}
}

// NewPage constructs a Page. If items is nil, it is replaced with an empty
// slice.
func NewPage[T any](items []T, opts ...PageOption[T]) Page[T] {
	if items == nil {
		items = make([]T, 0)
	}
	p := Page[T]{Items: items}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

var errInvalidCursor = errors.New("invalid cursor")

// paginate slices items according to an offset cursor. The cursor is the
// decimal offset of the first item; an empty cursor starts at zero. A size of
// zero or less returns everything.
func paginate[T any](items []T, cursor string, size int) (Page[T], error) {
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 || n > len(items) {
			return Page[T]{}, errInvalidCursor
		}
		offset = n
	}
	if size <= 0 {
		return NewPage(items[offset:]), nil
	}

	end := offset + size
	if end >= len(items) {
		return NewPage(items[offset:]), nil
	}
	return NewPage(items[offset:end], WithNextCursor[T](strconv.Itoa(end))), nil
}
