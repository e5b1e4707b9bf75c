// Package depwalk computes the ordered set of uninstalled prerequisites
// for a package install.
//
// The walk is an explicit stack-based depth-first traversal. Emission
// order is parent-before-child; the final install order is the reversal,
// so the deepest prerequisite installs first. The walk is deliberately not
// memoized: a diamond dependency is probed once per path, and each probe
// re-checks installed state freshly. The installer's already-present
// classification absorbs any duplicate that survives to install time.
package depwalk

import (
	"context"
	"sort"

	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/feed"
	"github.com/packraft/packraft/pkg/search"
	"github.com/packraft/packraft/pkg/semver"
	"github.com/packraft/packraft/pkg/source"
)

// DefaultMaxDepth bounds the walk; hitting it means a dependency cycle.
const DefaultMaxDepth = 64

// Walker resolves dependency closures across a fixed set of sources.
type Walker struct {
	// Engine resolves dependency candidates.
	Engine *search.Engine
	// Sources are queried for every dependency.
	Sources []*source.Source
	// Installed probes whether an exact package version is already on
	// disk. A satisfied dependency is neither emitted nor descended into.
	Installed func(id, version string) bool
	// Prerelease and Unlisted widen candidate resolution.
	Prerelease, Unlisted bool
	// MaxDepth overrides DefaultMaxDepth when positive.
	MaxDepth int
	// Warn receives per-source resolution warnings. Nil discards them.
	Warn func(format string, args ...any)
}

// Plan is the outcome of a walk.
type Plan struct {
	// Root is the package the plan was computed for. It is not part of
	// Steps.
	Root *feed.Item
	// Steps are the uninstalled prerequisites in install order:
	// dependencies first, the root's direct dependencies last.
	Steps []*feed.Item

	graph *Graph
}

// Graph returns the walked dependency graph for rendering.
func (p *Plan) Graph() *Graph { return p.graph }

// frame is one pending node on the walk stack.
type frame struct {
	item  *feed.Item
	depth int
}

// Plan walks root's dependency graph and returns the ordered prerequisite
// plan. A dependency with zero candidates is fatal: the whole plan fails
// rather than attempting a partial install.
func (w *Walker) Plan(ctx context.Context, root *feed.Item) (*Plan, error) {
	maxDepth := w.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	g := newGraph()
	g.addNode(root, w.isInstalled(root.ID, root.Version))

	var emitted []*feed.Item
	stack := []frame{{item: root, depth: 0}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCanceled, err, "dependency walk canceled")
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.item != root {
			emitted = append(emitted, f.item)
		}
		if f.depth >= maxDepth {
			return nil, errors.New(errors.ErrCodeDependencyCycle,
				"dependency chain below %s exceeds depth %d; cycle suspected", f.item.FullName(), maxDepth)
		}

		needed, err := w.expand(ctx, f.item, g)
		if err != nil {
			return nil, err
		}
		// Reverse push so the first declared dependency's subtree walks
		// first.
		for i := len(needed) - 1; i >= 0; i-- {
			stack = append(stack, frame{item: needed[i], depth: f.depth + 1})
		}
	}

	// Install order is the reversed emission: dependencies before
	// dependents.
	steps := make([]*feed.Item, len(emitted))
	for i, it := range emitted {
		steps[len(emitted)-1-i] = it
	}
	return &Plan{Root: root, Steps: steps, graph: g}, nil
}

// expand resolves item's direct dependencies, returning the uninstalled
// ones that the walk must descend into.
func (w *Walker) expand(ctx context.Context, item *feed.Item, g *Graph) ([]*feed.Item, error) {
	var needed []*feed.Item
	for _, dep := range item.Dependencies() {
		candidates, err := w.resolve(ctx, dep)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			return nil, errors.New(errors.ErrCodeDependencyNotFound,
				"dependency %q %s of %s has no candidates on any selected source",
				dep.ID, specOrAny(dep.Spec), item.FullName())
		}

		// Freshly re-checked on every probe, even for a diamond.
		if satisfied := w.firstInstalled(candidates); satisfied != nil {
			g.addNode(satisfied, true)
			g.addEdge(item, satisfied)
			continue
		}

		best := candidates[0]
		g.addNode(best, false)
		g.addEdge(item, best)
		needed = append(needed, best)
	}
	return needed, nil
}

// resolve finds dep's candidates across the walker's sources, highest
// version first.
func (w *Walker) resolve(ctx context.Context, dep feed.Dependency) ([]*feed.Item, error) {
	q := search.Query{
		Required:    dep.Spec,
		AllVersions: true,
		Prerelease:  w.Prerelease,
		Unlisted:    w.Unlisted,
		Warn:        w.Warn,
	}
	if dep.Spec != "" && !semver.IsRangeExpr(dep.Spec) {
		// An exact spec resolves through the exact-match path.
		q.AllVersions = false
	}

	var candidates []*feed.Item
	for it := range w.Engine.FindByID(ctx, w.Sources, dep.ID, q) {
		candidates = append(candidates, it)
	}
	sortByVersionDesc(candidates)
	return candidates, nil
}

// firstInstalled returns the first candidate whose exact version is
// already installed, or nil.
func (w *Walker) firstInstalled(candidates []*feed.Item) *feed.Item {
	for _, c := range candidates {
		if w.isInstalled(c.ID, c.Version) {
			return c
		}
	}
	return nil
}

func (w *Walker) isInstalled(id, version string) bool {
	return w.Installed != nil && w.Installed(id, version)
}

func sortByVersionDesc(items []*feed.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return semver.CompareStrings(items[i].Version, items[j].Version) > 0
	})
}

func specOrAny(spec string) string {
	if spec == "" {
		return "(any version)"
	}
	return spec
}
