package search

import (
	"strings"

	"github.com/packraft/packraft/pkg/feed"
	"github.com/packraft/packraft/pkg/semver"
)

// applyPipeline runs the client-side post-filters over one source's raw
// results, in the fixed order: latest-only collapse, then the per-package
// filters of keeps.
func applyPipeline(pkgs []feed.Package, term string, q Query) []feed.Package {
	if !q.hasVersionConstraint() && !q.AllVersions {
		pkgs = collapseLatest(pkgs)
	}
	return keep(pkgs, func(p feed.Package) bool { return q.keeps(p, term) })
}

// keeps applies every per-package filter: the id-substring term filter
// (free-text searches only), tag filter, contains filter, version filter.
func (q Query) keeps(p feed.Package, term string) bool {
	if term != "" && !strings.Contains(lower(p.ID), lower(term)) {
		return false
	}
	for _, tag := range q.Tags {
		if !p.HasTag(tag) {
			return false
		}
	}
	if q.Contains != "" {
		needle := lower(q.Contains)
		if !strings.Contains(lower(p.ID), needle) &&
			!strings.Contains(lower(p.Summary), needle) &&
			!strings.Contains(lower(p.Description), needle) {
			return false
		}
	}
	if q.hasVersionConstraint() && !semver.Satisfies(p.Version, q.Required, q.Min, q.Max) {
		return false
	}
	return true
}

// collapseLatest keeps only the highest version of each id, preserving
// first-seen id order.
func collapseLatest(pkgs []feed.Package) []feed.Package {
	best := make(map[string]int)
	var order []string
	for i, p := range pkgs {
		key := lower(p.ID)
		j, ok := best[key]
		if !ok {
			best[key] = i
			order = append(order, key)
			continue
		}
		if semver.CompareStrings(p.Version, pkgs[j].Version) > 0 {
			best[key] = i
		}
	}

	out := make([]feed.Package, 0, len(order))
	for _, key := range order {
		out = append(out, pkgs[best[key]])
	}
	return out
}

func keep(pkgs []feed.Package, pred func(feed.Package) bool) []feed.Package {
	out := pkgs[:0]
	for _, p := range pkgs {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}

func lower(s string) string { return strings.ToLower(s) }
