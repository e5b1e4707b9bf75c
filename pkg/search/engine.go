// Package search implements the multi-source package search engine.
//
// Queries fan out one goroutine per selected source and merge into a
// single lazy sequence. A source that fails contributes no results and a
// warning; it never aborts its siblings. Results carry no cross-source
// ordering guarantee.
package search

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/feed"
	"github.com/packraft/packraft/pkg/observability"
	"github.com/packraft/packraft/pkg/semver"
	"github.com/packraft/packraft/pkg/source"
)

// Query carries the caller's constraints through a search.
type Query struct {
	// Required pins an exact version, or holds an opaque bracketed range
	// expression that short-circuits to the feed's own range query.
	Required string
	// Min and Max bound the acceptable versions, inclusive.
	Min, Max string
	// AllVersions disables the latest-only collapse.
	AllVersions bool
	// Prerelease includes prerelease versions.
	Prerelease bool
	// Unlisted includes delisted packages.
	Unlisted bool
	// Tags keeps only packages carrying every listed tag.
	Tags []string
	// Contains keeps only packages whose id, summary, or description
	// contains the text.
	Contains string
	// Warn receives per-source failures. Nil discards them.
	Warn func(format string, args ...any)
}

// Validate checks the version constraints. An unsatisfiable min/max pair is
// a user error identifying both bounds.
func (q Query) Validate() error {
	if q.Required == "" && !semver.IsValidRange(q.Min, q.Max) {
		return errors.New(errors.ErrCodeInvalidVersion,
			"invalid version range: minimum %q is above maximum %q", q.Min, q.Max)
	}
	return nil
}

func (q Query) warn(format string, args ...any) {
	if q.Warn != nil {
		q.Warn(format, args...)
	}
}

// hasVersionConstraint reports whether any explicit version constraint was
// given; without one, only each id's latest version survives.
func (q Query) hasVersionConstraint() bool {
	return q.Required != "" || q.Min != "" || q.Max != ""
}

func (q Query) lookupOptions() feed.LookupOptions {
	return feed.LookupOptions{Prerelease: q.Prerelease, Unlisted: q.Unlisted}
}

// Opener turns a source into a queryable feed.
type Opener func(ctx context.Context, src *source.Source) (feed.Feed, error)

// Engine fans queries out across sources.
type Engine struct {
	// Open connects to one source's feed.
	Open Opener
}

// New creates an Engine using open to reach each source.
func New(open Opener) *Engine {
	return &Engine{Open: open}
}

// FindByID looks id up on every source concurrently and merges the
// results. See Search for the merge contract.
func (e *Engine) FindByID(ctx context.Context, sources []*source.Source, id string, q Query) iter.Seq[*feed.Item] {
	return e.fanOut(ctx, sources, id, q.warn, func(ctx context.Context, f feed.Feed, emit func(feed.Package) bool) error {
		return e.findByID(ctx, f, id, q, emit)
	})
}

// Search runs a free-text or wildcard query on every source concurrently.
// The returned sequence is lazy: producers stop once the consumer does.
func (e *Engine) Search(ctx context.Context, sources []*source.Source, term string, q Query) iter.Seq[*feed.Item] {
	return e.fanOut(ctx, sources, term, q.warn, func(ctx context.Context, f feed.Feed, emit func(feed.Package) bool) error {
		if hasWildcard(term) {
			return e.searchWildcard(ctx, f, term, q, emit)
		}
		return e.searchTerm(ctx, f, term, q, emit)
	})
}

// findByID is the per-source id lookup pipeline.
func (e *Engine) findByID(ctx context.Context, f feed.Feed, id string, q Query, emit func(feed.Package) bool) error {
	// A range expression delegates to the feed's range query verbatim and
	// skips every client-side filter, preserving exact range semantics.
	if semver.IsRangeExpr(q.Required) {
		pkgs, err := f.FindByRange(ctx, id, q.Required, q.lookupOptions())
		if err != nil {
			return err
		}
		for _, p := range pkgs {
			if !emit(p) {
				return nil
			}
		}
		return nil
	}

	pkgs, err := f.FindByID(ctx, id, q.lookupOptions())
	if err != nil {
		return err
	}
	for _, p := range applyPipeline(pkgs, "", q) {
		if !emit(p) {
			return nil
		}
	}
	return nil
}

// searchTerm is the per-source free-text pipeline. Queries that skip the
// latest-only collapse have only per-package filters left, so their
// results stream off the pager as pages arrive; a collapsing query has to
// see the full set before it can pick each id's highest version.
func (e *Engine) searchTerm(ctx context.Context, f feed.Feed, term string, q Query, emit func(feed.Package) bool) error {
	pager := f.Search(ctx, term, q.lookupOptions())

	if q.hasVersionConstraint() || q.AllVersions {
		for p := range pager.All() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !q.keeps(p, term) {
				continue
			}
			if !emit(p) {
				return nil
			}
		}
		return pager.Err()
	}

	var pkgs []feed.Package
	for p := range pager.All() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		pkgs = append(pkgs, p)
	}
	if err := pager.Err(); err != nil {
		return err
	}

	for _, p := range applyPipeline(pkgs, term, q) {
		if !emit(p) {
			return nil
		}
	}
	return nil
}

// searchWildcard handles terms with shell-style wildcards. Feeds cannot
// match wildcards, so the flattened literal is queried, ids re-filtered
// client-side with full wildcard semantics, and each surviving id resolved
// through the id pipeline so version constraints still apply.
func (e *Engine) searchWildcard(ctx context.Context, f feed.Feed, term string, q Query, emit func(feed.Package) bool) error {
	pager := f.Search(ctx, feedHint(term), q.lookupOptions())
	seen := make(map[string]bool)
	var ids []string
	for p := range pager.All() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		key := lower(p.ID)
		if seen[key] || !wildcardMatch(term, p.ID) {
			continue
		}
		seen[key] = true
		ids = append(ids, p.ID)
	}
	if err := pager.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		if err := e.findByID(ctx, f, id, q, emit); err != nil {
			return err
		}
	}
	return nil
}

// fanOut runs produce once per source on its own goroutine, merging
// everything into one sequence. Early consumer exit cancels the producers.
func (e *Engine) fanOut(ctx context.Context, sources []*source.Source, term string, warn func(string, ...any), produce func(context.Context, feed.Feed, func(feed.Package) bool) error) iter.Seq[*feed.Item] {
	hints := sourceHints(sources)

	return func(yield func(*feed.Item) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		merged := make(chan *feed.Item)
		var wg sync.WaitGroup
		for _, src := range sources {
			wg.Add(1)
			go func() {
				defer wg.Done()
				obs := observability.Search()
				obs.OnSourceQueryStart(ctx, src.Key(), term)
				started := time.Now()

				f, err := e.Open(ctx, src)
				if err != nil {
					warn("source %s failed: %v", src.Key(), err)
					obs.OnSourceQueryComplete(ctx, src.Key(), term, 0, time.Since(started), err)
					return
				}
				var produced int
				emit := func(p feed.Package) bool {
					item := feed.NewItem(p, src, hints)
					select {
					case merged <- item:
						produced++
						return true
					case <-ctx.Done():
						return false
					}
				}
				err = produce(ctx, f, emit)
				if err != nil && ctx.Err() == nil {
					warn("source %s failed: %v", src.Key(), err)
				}
				obs.OnSourceQueryComplete(ctx, src.Key(), term, produced, time.Since(started), err)
			}()
		}
		go func() {
			wg.Wait()
			close(merged)
		}()

		for item := range merged {
			if !yield(item) {
				cancel()
				// Drain so producers blocked on send observe cancellation
				// and the closer goroutine finishes.
				for range merged {
				}
				return
			}
		}
	}
}

// sourceHints builds the fastpath source-hint list: every selected
// source's location, in selection order.
func sourceHints(sources []*source.Source) []string {
	hints := make([]string, 0, len(sources))
	for _, s := range sources {
		hints = append(hints, s.Location)
	}
	return hints
}
