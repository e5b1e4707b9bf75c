package source

import (
	"path/filepath"
	"testing"

	"github.com/packraft/packraft/pkg/errors"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(filepath.Join(t.TempDir(), "sources.toml"))
}

func TestRegistryAddListRoundTrip(t *testing.T) {
	r := testRegistry(t)

	if err := r.Add(Source{Name: "main", Location: "https://feed.example.com", Trusted: true}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := r.Add(Source{Name: "local", Location: "/var/packages"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	// Re-open from disk to prove persistence.
	reopened := NewRegistry(r.path)
	sources, err := reopened.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("List() returned %d sources, want 2", len(sources))
	}
	if sources[0].Name != "main" || !sources[0].Trusted {
		t.Errorf("first source = %+v, want main/trusted", sources[0])
	}
	if !sources[0].Registered {
		t.Error("listed sources should be marked registered")
	}
}

func TestRegistryAddReplacesSameName(t *testing.T) {
	r := testRegistry(t)

	if err := r.Add(Source{Name: "main", Location: "https://old.example.com"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := r.Add(Source{Name: "MAIN", Location: "https://new.example.com", Trusted: true}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	sources, err := r.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("List() returned %d sources, want 1 after replace", len(sources))
	}
	if sources[0].Location != "https://new.example.com" {
		t.Errorf("location = %q, want replacement to win", sources[0].Location)
	}
}

func TestRegistryRemove(t *testing.T) {
	r := testRegistry(t)

	if err := r.Add(Source{Name: "main", Location: "https://feed.example.com"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := r.Remove("main"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	sources, err := r.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sources) != 0 {
		t.Errorf("List() returned %d sources after remove, want 0", len(sources))
	}

	err = r.Remove("main")
	if !errors.Is(err, errors.ErrCodeSourceNotFound) {
		t.Errorf("Remove(missing) error = %v, want SOURCE_NOT_FOUND", err)
	}
}

func TestRegistryFind(t *testing.T) {
	r := testRegistry(t)

	if err := r.Add(Source{Name: "main", Location: "https://feed.example.com"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	s, err := r.Find("MAIN")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if s == nil || s.Name != "main" {
		t.Errorf("Find(MAIN) = %+v, want case-insensitive match", s)
	}

	s, err = r.FindByLocation("https://feed.example.com/")
	if err != nil {
		t.Fatalf("FindByLocation() error = %v", err)
	}
	if s == nil {
		t.Error("FindByLocation with trailing slash should match")
	}

	s, err = r.Find("missing")
	if err != nil || s != nil {
		t.Errorf("Find(missing) = %v, %v, want nil, nil", s, err)
	}
}
