package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/packraft/packraft/pkg/fastpath"
	"github.com/packraft/packraft/pkg/source"
)

func TestItemNames(t *testing.T) {
	it := NewItem(Package{ID: "foo", Version: "1.2.0"}, nil, nil)

	if got := it.FullName(); got != "foo.1.2.0" {
		t.Errorf("FullName() = %q, want %q", got, "foo.1.2.0")
	}
	if got := it.ArchiveName(); got != "foo.1.2.0.raft" {
		t.Errorf("ArchiveName() = %q, want %q", got, "foo.1.2.0.raft")
	}
}

func TestItemFastPathRoundTrip(t *testing.T) {
	src := &source.Source{Name: "main", Location: "https://feed.example.com"}
	it := NewItem(Package{ID: "foo", Version: "1.0"}, src, []string{"https://a", "https://b"})

	decoded, ok := fastpath.Decode(it.FastPath())
	if !ok {
		t.Fatal("FastPath() did not decode")
	}
	if decoded.Source != "main" || decoded.ID != "foo" || decoded.Version != "1.0" {
		t.Errorf("decoded = %+v, want main/foo/1.0", decoded)
	}
	if len(decoded.Sources) != 2 || decoded.Sources[0] != "https://a" {
		t.Errorf("decoded sources = %v, want hint list preserved", decoded.Sources)
	}

	// Memoized: same string on every call.
	if it.FastPath() != it.FastPath() {
		t.Error("FastPath() not stable across calls")
	}
}

func TestItemInstalledDirectory(t *testing.T) {
	dest := t.TempDir()
	it := NewItem(Package{ID: "foo", Version: "1.0"}, nil, nil)

	if got := it.InstalledDirectory(dest); got != "" {
		t.Errorf("InstalledDirectory() = %q before install, want empty", got)
	}
	if it.IsInstalled(dest) {
		t.Error("IsInstalled() = true before install")
	}

	dir := filepath.Join(dest, "foo.1.0")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := it.InstalledDirectory(dest); got != dir {
		t.Errorf("InstalledDirectory() = %q, want %q", got, dir)
	}
	if !it.IsInstalled(dest) {
		t.Error("IsInstalled() = false with directory present")
	}
}

func TestItemCanonicalID(t *testing.T) {
	src := &source.Source{Name: "main", Location: "https://feed.example.com"}
	it := NewItem(Package{ID: "foo", Version: "1.0"}, src, nil)

	id := it.CanonicalID()
	if id == "" {
		t.Fatal("CanonicalID() empty")
	}
	if id != it.CanonicalID() {
		t.Error("CanonicalID() not memoized")
	}

	other := NewItem(Package{ID: "foo", Version: "1.0"}, &source.Source{Location: "https://other"}, nil)
	if other.CanonicalID() == id {
		t.Error("items from different sources share a canonical id")
	}
}

func TestPackageDependencies(t *testing.T) {
	p := Package{
		DependencySets: []DependencySet{
			{Name: "default", Dependencies: []Dependency{{ID: "a"}, {ID: "b", Spec: "1.0"}}},
			{Name: "extra", Dependencies: []Dependency{{ID: "c", Spec: "[1.0,2.0)"}}},
		},
	}
	deps := p.Dependencies()
	if len(deps) != 3 {
		t.Fatalf("Dependencies() returned %d, want 3 flattened in order", len(deps))
	}
	if deps[0].ID != "a" || deps[2].ID != "c" {
		t.Errorf("Dependencies() order = %v, want declaration order", deps)
	}
}
