package httpfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/packraft/packraft/pkg/cache"
	"github.com/packraft/packraft/pkg/feed"
	"github.com/packraft/packraft/pkg/feed/archive"
	"github.com/packraft/packraft/pkg/feedserver"
)

// testFeed serves a real feed server over a temp archive directory and
// returns a client pointed at it.
func testFeed(t *testing.T, c cache.Cache) (*Feed, *atomic.Int32) {
	t.Helper()
	dir := t.TempDir()
	for _, pkg := range []feed.Package{
		{ID: "foo", Version: "1.0", Summary: "first"},
		{ID: "foo", Version: "1.5"},
		{ID: "foo", Version: "2.0-rc.1"},
	} {
		path := filepath.Join(dir, pkg.ID+"."+pkg.Version+".raft")
		if err := archive.Write(path, pkg, nil); err != nil {
			t.Fatal(err)
		}
	}
	index, err := feedserver.NewDirIndex(dir)
	if err != nil {
		t.Fatal(err)
	}

	var requests atomic.Int32
	handler := feedserver.New(index, t.Logf).Handler()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	return New(srv.URL, c, time.Minute), &requests
}

func TestFindByID(t *testing.T) {
	f, _ := testFeed(t, nil)

	pkgs, err := f.FindByID(context.Background(), "foo", feed.LookupOptions{})
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if len(pkgs) != 2 {
		t.Fatalf("FindByID(foo) = %d packages, want 2 releases", len(pkgs))
	}
	if pkgs[0].ContentURL == "" {
		t.Error("ContentURL should be derived from the feed base")
	}

	pkgs, err = f.FindByID(context.Background(), "foo", feed.LookupOptions{Prerelease: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 3 {
		t.Errorf("FindByID(foo, prerelease) = %d packages, want 3", len(pkgs))
	}
}

func TestFindByIDUnknown(t *testing.T) {
	f, _ := testFeed(t, nil)

	pkgs, err := f.FindByID(context.Background(), "missing", feed.LookupOptions{})
	if err != nil {
		t.Fatalf("FindByID(missing) error = %v, want empty result", err)
	}
	if len(pkgs) != 0 {
		t.Errorf("FindByID(missing) = %d packages, want 0", len(pkgs))
	}
}

func TestFindByRange(t *testing.T) {
	f, _ := testFeed(t, nil)

	pkgs, err := f.FindByRange(context.Background(), "foo", "[1.2,2.0)", feed.LookupOptions{})
	if err != nil {
		t.Fatalf("FindByRange() error = %v", err)
	}
	if len(pkgs) != 1 || pkgs[0].Version != "1.5" {
		t.Errorf("FindByRange([1.2,2.0)) = %+v, want just 1.5", pkgs)
	}
}

func TestSearch(t *testing.T) {
	f, _ := testFeed(t, nil)

	p := f.Search(context.Background(), "foo", feed.LookupOptions{})
	var versions []string
	for pkg := range p.All() {
		versions = append(versions, pkg.Version)
	}
	if err := p.Err(); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(versions) != 2 {
		t.Errorf("Search(foo) = %v, want the 2 releases", versions)
	}
}

func TestCaching(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f, requests := testFeed(t, c)

	if _, err := f.FindByID(context.Background(), "foo", feed.LookupOptions{}); err != nil {
		t.Fatal(err)
	}
	first := requests.Load()
	if _, err := f.FindByID(context.Background(), "foo", feed.LookupOptions{}); err != nil {
		t.Fatal(err)
	}
	if requests.Load() != first {
		t.Errorf("second FindByID hit the network (%d -> %d requests), want cache hit", first, requests.Load())
	}
}

func TestPing(t *testing.T) {
	f, _ := testFeed(t, nil)
	if err := f.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	down := New("http://127.0.0.1:1", nil, time.Minute)
	if err := down.Ping(context.Background()); err == nil {
		t.Error("Ping() against a closed port should fail")
	}
}
