package rest

import (
	"context"
)

// FetchFunc retrieves one page starting at cursor and returns the items and the next cursor.
type FetchFunc[T any] func(ctx context.Context, cursor string) ([]T, string, error)

// Pager walks a cursor-paginated route. An empty next cursor ends iteration. A Pager is not
// safe for concurrent use.
type Pager[T any] struct {
	fetch  FetchFunc[T]
	cursor string
	done   bool
}

// NewPager starts at cursor; an empty cursor requests the first page.
func NewPager[T any](cursor string, fetch FetchFunc[T]) *Pager[T] {
	return &Pager[T]{fetch: fetch, cursor: cursor}
}

// NextPage fetches the next page. ok is false once the last page has been returned. A failed
// fetch leaves the cursor in place so the call can be retried.
func (p *Pager[T]) NextPage(ctx context.Context) ([]T, bool, error) {
	if p.done {
		return nil, false, nil
	}
	items, next, err := p.fetch(ctx, p.cursor)
	if err != nil {
		return nil, false, err
	}
	p.cursor = next
	if next == "" {
		p.done = true
	}
	return items, true, nil
}

// Cursor returns the cursor of the next page, usable to resume with NewPager.
func (p *Pager[T]) Cursor() string { return p.cursor }

// Done reports whether the final page has been fetched.
func (p *Pager[T]) Done() bool { return p.done }

// Collect gathers items until the pages run out or max items are held. max <= 0 collects all.
func (p *Pager[T]) Collect(ctx context.Context, max int) ([]T, error) {
	var out []T
	for {
		if max > 0 && len(out) >= max {
			return out[:max], nil
		}
		items, ok, err := p.NextPage(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, items...)
	}
}

// ForEach calls fn for each item in order, stopping at the first error.
func (p *Pager[T]) ForEach(ctx context.Context, fn func(T) error) error {
	for {
		items, ok, err := p.NextPage(ctx)
		if err != nil || !ok {
			return err
		}
		for _, item := range items {
			if err := fn(item); err != nil {
				return err
			}
		}
	}
}
