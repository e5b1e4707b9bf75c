package depwalk

import (
	"context"
	"strings"
	"testing"

	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/feed"
	"github.com/packraft/packraft/pkg/search"
	"github.com/packraft/packraft/pkg/source"
)

// depsOf builds a single default dependency set.
func depsOf(deps ...feed.Dependency) []feed.DependencySet {
	return []feed.DependencySet{{Name: "default", Dependencies: deps}}
}

// memFeed is a minimal in-memory feed for walker tests.
type memFeed struct{ packages []feed.Package }

func (f *memFeed) FindByID(ctx context.Context, id string, opts feed.LookupOptions) ([]feed.Package, error) {
	var out []feed.Package
	for _, p := range f.packages {
		if strings.EqualFold(p.ID, id) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *memFeed) FindByRange(ctx context.Context, id, spec string, opts feed.LookupOptions) ([]feed.Package, error) {
	return f.FindByID(ctx, id, opts)
}

func (f *memFeed) Search(ctx context.Context, term string, opts feed.LookupOptions) *feed.Pager {
	return feed.PagerOf(f.packages)
}

// testWalker wires a walker over one in-memory source. installed maps
// "id version" to true.
func testWalker(packages []feed.Package, installed map[string]bool) *Walker {
	f := &memFeed{packages: packages}
	src := &source.Source{Name: "main", Location: "https://main"}
	return &Walker{
		Engine: search.New(func(ctx context.Context, s *source.Source) (feed.Feed, error) {
			return f, nil
		}),
		Sources: []*source.Source{src},
		Installed: func(id, version string) bool {
			return installed[id+" "+version]
		},
	}
}

func rootItem(pkg feed.Package) *feed.Item {
	return feed.NewItem(pkg, &source.Source{Name: "main", Location: "https://main"}, nil)
}

func stepNames(p *Plan) []string {
	out := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		out = append(out, s.FullName())
	}
	return out
}

func TestPlanSkipsInstalledSubtree(t *testing.T) {
	// A depends on B (not installed), B depends on C (installed).
	// The walk yields [B]; C is satisfied and never emitted.
	packages := []feed.Package{
		{ID: "B", Version: "1.0", DependencySets: depsOf(feed.Dependency{ID: "C"})},
		{ID: "C", Version: "1.0"},
	}
	w := testWalker(packages, map[string]bool{"C 1.0": true})
	root := rootItem(feed.Package{ID: "A", Version: "1.0", DependencySets: depsOf(feed.Dependency{ID: "B"})})

	plan, err := w.Plan(context.Background(), root)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if got := stepNames(plan); len(got) != 1 || got[0] != "B.1.0" {
		t.Errorf("Steps = %v, want [B.1.0]", got)
	}
}

func TestPlanInstallOrderIsDependenciesFirst(t *testing.T) {
	// A -> B -> C, nothing installed: emission is [B C], install order [C B].
	packages := []feed.Package{
		{ID: "B", Version: "1.0", DependencySets: depsOf(feed.Dependency{ID: "C"})},
		{ID: "C", Version: "1.0"},
	}
	w := testWalker(packages, nil)
	root := rootItem(feed.Package{ID: "A", Version: "1.0", DependencySets: depsOf(feed.Dependency{ID: "B"})})

	plan, err := w.Plan(context.Background(), root)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	got := stepNames(plan)
	if len(got) != 2 || got[0] != "C.1.0" || got[1] != "B.1.0" {
		t.Errorf("Steps = %v, want [C.1.0 B.1.0]", got)
	}
}

func TestPlanDiamondProbedTwice(t *testing.T) {
	// A -> {B, C}, both -> D (not installed): D appears twice, once per
	// path, because the walk does not memoize.
	packages := []feed.Package{
		{ID: "B", Version: "1.0", DependencySets: depsOf(feed.Dependency{ID: "D"})},
		{ID: "C", Version: "1.0", DependencySets: depsOf(feed.Dependency{ID: "D"})},
		{ID: "D", Version: "1.0"},
	}
	var probes int
	w := testWalker(packages, nil)
	inner := w.Installed
	w.Installed = func(id, version string) bool {
		if id == "D" {
			probes++
		}
		return inner(id, version)
	}
	root := rootItem(feed.Package{ID: "A", Version: "1.0",
		DependencySets: depsOf(feed.Dependency{ID: "B"}, feed.Dependency{ID: "C"})})

	plan, err := w.Plan(context.Background(), root)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	var dCount int
	for _, name := range stepNames(plan) {
		if name == "D.1.0" {
			dCount++
		}
	}
	if dCount != 2 {
		t.Errorf("D emitted %d times, want 2 (diamond not deduplicated)", dCount)
	}
	if probes != 2 {
		t.Errorf("D probed %d times, want 2 independent probes", probes)
	}
	// The rendering graph still deduplicates.
	if g := plan.Graph(); len(g.Nodes) != 4 {
		t.Errorf("graph has %d nodes, want 4 (A B C D, diamond deduplicated)", len(g.Nodes))
	}
}

func TestPlanPicksHighestCandidate(t *testing.T) {
	packages := []feed.Package{
		{ID: "B", Version: "1.0"},
		{ID: "B", Version: "2.0"},
		{ID: "B", Version: "1.5"},
	}
	w := testWalker(packages, nil)
	root := rootItem(feed.Package{ID: "A", Version: "1.0",
		DependencySets: depsOf(feed.Dependency{ID: "B", Spec: "[1.0,]"})})

	plan, err := w.Plan(context.Background(), root)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if got := stepNames(plan); len(got) != 1 || got[0] != "B.2.0" {
		t.Errorf("Steps = %v, want highest candidate [B.2.0]", got)
	}
}

func TestPlanMissingDependencyIsFatal(t *testing.T) {
	w := testWalker(nil, nil)
	root := rootItem(feed.Package{ID: "A", Version: "1.0", DependencySets: depsOf(feed.Dependency{ID: "ghost"})})

	if _, err := w.Plan(context.Background(), root); !errors.Is(err, errors.ErrCodeDependencyNotFound) {
		t.Errorf("Plan() error = %v, want DEPENDENCY_NOT_FOUND", err)
	}
}

func TestPlanCycleDetection(t *testing.T) {
	packages := []feed.Package{
		{ID: "B", Version: "1.0", DependencySets: depsOf(feed.Dependency{ID: "C"})},
		{ID: "C", Version: "1.0", DependencySets: depsOf(feed.Dependency{ID: "B"})},
	}
	w := testWalker(packages, nil)
	w.MaxDepth = 8
	root := rootItem(feed.Package{ID: "A", Version: "1.0", DependencySets: depsOf(feed.Dependency{ID: "B"})})

	if _, err := w.Plan(context.Background(), root); !errors.Is(err, errors.ErrCodeDependencyCycle) {
		t.Errorf("Plan() error = %v, want DEPENDENCY_CYCLE", err)
	}
}
