package govinfo

import (
	"context"
	"net/url"
	"strconv"
)

// CollectionCREC is the Congressional Record collection identifier.
const CollectionCREC = "CREC"

// PaceFunc blocks until the next upstream request may be issued. A nil
// PaceFunc means no pacing.
type PaceFunc func(ctx context.Context) error

// fetchPageFunc retrieves one page of items at the given offset.
type fetchPageFunc[T any] func(ctx context.Context, offset, pageSize int) ([]T, error)

// Walker lazily pulls items from an offset-paginated endpoint. It is
// single-pass: once exhausted it keeps reporting no more items. The last
// page is detected by its own size, so a collection whose length is an
// exact multiple of the page size costs one extra (empty) page fetch.
type Walker[T any] struct {
	fetch    fetchPageFunc[T]
	pace     PaceFunc
	pageSize int
	offset   int
	buf      []T
	started  bool
	done     bool
}

func newWalker[T any](pageSize int, pace PaceFunc, fetch fetchPageFunc[T]) *Walker[T] {
	return &Walker[T]{
		fetch:    fetch,
		pace:     pace,
		pageSize: pageSize,
	}
}

// Next returns the next item. The second return is false when the
// collection is exhausted. Page fetches happen only on demand, so callers
// stopping early never trigger further requests.
func (w *Walker[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	for len(w.buf) == 0 {
		if w.done {
			return zero, false, nil
		}
		if w.started && w.pace != nil {
			if err := w.pace(ctx); err != nil {
				return zero, false, err
			}
		}
		items, err := w.fetch(ctx, w.offset, w.pageSize)
		if err != nil {
			return zero, false, err
		}
		w.started = true
		w.offset += w.pageSize
		if len(items) < w.pageSize {
			w.done = true
		}
		if len(items) == 0 {
			return zero, false, nil
		}
		w.buf = items
	}
	item := w.buf[0]
	w.buf = w.buf[1:]
	return item, true, nil
}

// Packages walks every package in a collection between two inclusive dates.
func (c *Client) Packages(collection, startDate, endDate string, pace PaceFunc) *Walker[PackageMeta] {
	path := "/collections/" + collection
	return newWalker(c.pageSize, pace, func(ctx context.Context, offset, pageSize int) ([]PackageMeta, error) {
		q := url.Values{}
		q.Set("startDate", startDate)
		q.Set("endDate", endDate)
		q.Set("pageSize", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(offset))
		var page packagesPage
		if err := c.GetJSON(ctx, path, q, &page); err != nil {
			return nil, err
		}
		return page.Packages, nil
	})
}

// Granules walks every granule of one package.
func (c *Client) Granules(packageID string, pace PaceFunc) *Walker[GranuleMeta] {
	path := "/packages/" + packageID + "/granules"
	return newWalker(c.pageSize, pace, func(ctx context.Context, offset, pageSize int) ([]GranuleMeta, error) {
		q := url.Values{}
		q.Set("pageSize", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(offset))
		var page granulesPage
		if err := c.GetJSON(ctx, path, q, &page); err != nil {
			return nil, err
		}
		return page.Granules, nil
	})
}
