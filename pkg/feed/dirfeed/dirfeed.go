// Package dirfeed serves package metadata from a directory of .raft
// archives (or from a single archive file).
//
// The directory is scanned lazily: manifests are read in parallel on first
// query and the in-memory index is reused until the directory's
// modification time changes.
package dirfeed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/feed"
	"github.com/packraft/packraft/pkg/feed/archive"
	"github.com/packraft/packraft/pkg/semver"
)

// scanConcurrency bounds parallel manifest reads during a directory scan.
const scanConcurrency = 8

// Feed is a feed.Feed backed by a local directory (or single file) of
// archives.
type Feed struct {
	path   string
	isFile bool

	mu       sync.Mutex
	packages []feed.Package
	scanned  time.Time
}

var _ feed.Feed = (*Feed)(nil)

// New creates a feed over path, which must be an existing directory of
// .raft archives or a single .raft file.
func New(path string) (*Feed, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceNotFound, err, "open feed path %s", path)
	}
	if !info.IsDir() && !archive.IsArchive(path) {
		return nil, errors.New(errors.ErrCodeSourceNotFound, "%s is not a package archive", path)
	}
	return &Feed{path: path, isFile: !info.IsDir()}, nil
}

// FindByID returns every archived version of id.
func (f *Feed) FindByID(ctx context.Context, id string, opts feed.LookupOptions) ([]feed.Package, error) {
	packages, err := f.load(ctx)
	if err != nil {
		return nil, err
	}

	var out []feed.Package
	for _, p := range packages {
		if strings.EqualFold(p.ID, id) && visible(p, opts) {
			out = append(out, p)
		}
	}
	return out, nil
}

// FindByRange returns the versions of id within the bracketed range spec.
// Local feeds evaluate the range themselves.
func (f *Feed) FindByRange(ctx context.Context, id, spec string, opts feed.LookupOptions) ([]feed.Package, error) {
	rng, err := semver.ParseRange(spec)
	if err != nil {
		return nil, err
	}

	all, err := f.FindByID(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	var out []feed.Package
	for _, p := range all {
		if rng.Contains(p.Version) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Search matches term as a case-insensitive substring of id, summary, or
// tags. An empty term matches everything.
func (f *Feed) Search(ctx context.Context, term string, opts feed.LookupOptions) *feed.Pager {
	packages, err := f.load(ctx)
	if err != nil {
		return feed.PagerError(err)
	}

	term = strings.ToLower(term)
	var out []feed.Package
	for _, p := range packages {
		if visible(p, opts) && matches(p, term) {
			out = append(out, p)
		}
	}
	return feed.PagerOf(out)
}

// load returns the indexed packages, rescanning when the directory has
// changed since the last scan.
func (f *Feed) load(ctx context.Context) ([]feed.Package, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := os.Stat(f.path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceNotFound, err, "stat feed path %s", f.path)
	}
	if f.packages != nil && !info.ModTime().After(f.scanned) {
		return f.packages, nil
	}

	var paths []string
	if f.isFile {
		paths = []string{f.path}
	} else {
		entries, err := os.ReadDir(f.path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeSourceNotFound, err, "read feed directory %s", f.path)
		}
		for _, e := range entries {
			if !e.IsDir() && archive.IsArchive(e.Name()) {
				paths = append(paths, filepath.Join(f.path, e.Name()))
			}
		}
	}

	packages := make([]feed.Package, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			pkg, err := archive.ReadManifest(path)
			if err != nil {
				return err
			}
			pkg.IsListed = true
			packages[i] = pkg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	markLatest(packages)
	f.packages = packages
	f.scanned = info.ModTime()
	return packages, nil
}

// markLatest flags the highest release version of each id. Prereleases are
// only flagged when an id has no release at all.
func markLatest(packages []feed.Package) {
	best := make(map[string]int)
	for i, p := range packages {
		id := strings.ToLower(p.ID)
		j, ok := best[id]
		if !ok {
			best[id] = i
			continue
		}
		havePre, wantPre := isPrerelease(packages[j].Version), isPrerelease(p.Version)
		if havePre != wantPre {
			if havePre {
				best[id] = i
			}
			continue
		}
		if semver.CompareStrings(p.Version, packages[j].Version) > 0 {
			best[id] = i
		}
	}
	for _, i := range best {
		packages[i].IsLatest = true
	}
}

func visible(p feed.Package, opts feed.LookupOptions) bool {
	if !opts.Unlisted && !p.IsListed {
		return false
	}
	if !opts.Prerelease && isPrerelease(p.Version) {
		return false
	}
	return true
}

func isPrerelease(version string) bool {
	v, err := semver.Parse(version)
	return err == nil && v.Prerelease != ""
}

func matches(p feed.Package, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.ID), term) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Summary), term) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}
