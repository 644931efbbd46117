package hosting

import "context"

// perPage is the page size requested from both services.
const perPage = 100

// PageFetcher fetches one page of items. page starts at 1. next is the page
// to fetch afterwards, or 0 when the listing is exhausted.
type PageFetcher[T any] func(ctx context.Context, page int) (items []T, next int, err error)

// PageIterator walks a paginated listing, fetching pages lazily.
type PageIterator[T any] struct {
	fetch   PageFetcher[T]
	page    int
	buffer  []T
	done    bool
	err     error
	fetched int
}

// NewPageIterator creates an iterator starting at page 1.
func NewPageIterator[T any](fetch PageFetcher[T]) *PageIterator[T] {
	return &PageIterator[T]{fetch: fetch, page: 1}
}

// Next returns the next item. When the listing is exhausted it returns
// (zero, false, nil).
func (p *PageIterator[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if p.err != nil {
		return zero, false, p.err
	}

	for len(p.buffer) == 0 && !p.done {
		if err := ctx.Err(); err != nil {
			p.err = err
			return zero, false, err
		}
		items, next, err := p.fetch(ctx, p.page)
		if err != nil {
			p.err = err
			return zero, false, err
		}
		p.buffer = items
		p.done = next == 0
		p.page = next
	}

	if len(p.buffer) == 0 {
		return zero, false, nil
	}
	item := p.buffer[0]
	p.buffer = p.buffer[1:]
	p.fetched++
	return item, true, nil
}

// All collects every remaining item.
func (p *PageIterator[T]) All(ctx context.Context) ([]T, error) {
	var all []T
	for {
		item, ok, err := p.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return all, nil
		}
		all = append(all, item)
	}
}

// Fetched returns the number of items returned so far.
func (p *PageIterator[T]) Fetched() int {
	return p.fetched
}
