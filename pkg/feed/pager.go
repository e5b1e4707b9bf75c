package feed

import "iter"

// PageSize is the number of items fetched per page.
const PageSize = 40

// Pager enumerates a large result set page by page, prefetching the next
// page while the caller consumes the current one so network latency
// overlaps with consumption.
//
// Enumeration is forward-only and single-pass: All may be ranged over once.
// A fetch error ends the sequence; check Err after the range completes.
type Pager struct {
	fetch   func(skip, take int) ([]Package, error)
	started bool
	err     error
}

// NewPager creates a Pager over fetch, which returns up to take packages
// starting at offset skip. A short or empty page ends the sequence.
func NewPager(fetch func(skip, take int) ([]Package, error)) *Pager {
	return &Pager{fetch: fetch}
}

// PagerOf returns a Pager over an in-memory slice, for feeds that already
// hold their full result set.
func PagerOf(packages []Package) *Pager {
	return NewPager(func(skip, take int) ([]Package, error) {
		if skip >= len(packages) {
			return nil, nil
		}
		end := min(skip+take, len(packages))
		return packages[skip:end], nil
	})
}

// PagerError returns a Pager whose enumeration fails immediately with err.
func PagerError(err error) *Pager {
	return NewPager(func(skip, take int) ([]Package, error) {
		return nil, err
	})
}

// All returns the lazy item sequence. The next page is requested in the
// background as soon as the current one arrives; abandoning the range early
// leaks no goroutine.
func (p *Pager) All() iter.Seq[Package] {
	return func(yield func(Package) bool) {
		if p.started {
			return
		}
		p.started = true

		type page struct {
			items []Package
			err   error
		}
		// Buffered so an abandoned prefetch can complete its send and exit.
		next := make(chan page, 1)
		prefetch := func(skip int) {
			go func() {
				items, err := p.fetch(skip, PageSize)
				next <- page{items: items, err: err}
			}()
		}

		prefetch(0)
		skip := 0
		for {
			pg := <-next
			if pg.err != nil {
				p.err = pg.err
				return
			}
			skip += len(pg.items)
			last := len(pg.items) < PageSize
			if !last {
				prefetch(skip)
			}
			for _, item := range pg.items {
				if !yield(item) {
					return
				}
			}
			if last {
				return
			}
		}
	}
}

// Err returns the fetch error that ended enumeration, if any.
func (p *Pager) Err() error {
	return p.err
}
