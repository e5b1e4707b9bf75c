package feedserver

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/feed"
	"github.com/packraft/packraft/pkg/feed/dirfeed"
)

// DirIndex serves a directory of .raft archives. It delegates scanning and
// modification-time invalidation to the directory feed and adds the paging
// and content access the server needs.
type DirIndex struct {
	dir  string
	feed *dirfeed.Feed
}

var _ Index = (*DirIndex)(nil)

// NewDirIndex creates an index over dir.
func NewDirIndex(dir string) (*DirIndex, error) {
	f, err := dirfeed.New(dir)
	if err != nil {
		return nil, err
	}
	return &DirIndex{dir: dir, feed: f}, nil
}

// Ping verifies the archive directory still exists.
func (x *DirIndex) Ping(ctx context.Context) error {
	if _, err := os.Stat(x.dir); err != nil {
		return errors.Wrap(errors.ErrCodeSourceNotFound, err, "feed directory %s", x.dir)
	}
	return nil
}

// Versions returns all archived versions of id.
func (x *DirIndex) Versions(ctx context.Context, id string) ([]feed.Package, error) {
	return x.feed.FindByID(ctx, id, feed.LookupOptions{Prerelease: true, Unlisted: true})
}

// Get returns one exact record, or nil.
func (x *DirIndex) Get(ctx context.Context, id, version string) (*feed.Package, error) {
	pkgs, err := x.Versions(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range pkgs {
		if strings.EqualFold(pkgs[i].Version, version) {
			return &pkgs[i], nil
		}
	}
	return nil, nil
}

// Search pages through substring matches on id, summary, and tags.
func (x *DirIndex) Search(ctx context.Context, q string, prerelease bool, skip, take int) (int, []feed.Package, error) {
	pager := x.feed.Search(ctx, q, feed.LookupOptions{Prerelease: prerelease})
	var all []feed.Package
	for p := range pager.All() {
		all = append(all, p)
	}
	if err := pager.Err(); err != nil {
		return 0, nil, err
	}

	total := len(all)
	if skip >= total {
		return total, nil, nil
	}
	end := min(skip+take, total)
	return total, all[skip:end], nil
}

// Content opens the archive file for one package.
func (x *DirIndex) Content(ctx context.Context, id, version string) (io.ReadCloser, error) {
	pkg, err := x.Get(ctx, id, version)
	if err != nil {
		return nil, err
	}
	if pkg == nil || pkg.ArchivePath == "" {
		return nil, errors.New(errors.ErrCodePackageNotFound, "no archive for %s %s", id, version)
	}
	f, err := os.Open(pkg.ArchivePath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeArchive, err, "open archive for %s %s", id, version)
	}
	return f, nil
}
