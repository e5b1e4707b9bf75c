package feed

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/packraft/packraft/pkg/fastpath"
	"github.com/packraft/packraft/pkg/source"
)

// ProviderName tags canonical ids produced by this provider.
const ProviderName = "packraft"

// ArchiveExt is the package archive file extension.
const ArchiveExt = ".raft"

// Item is a package resolved in the context of a source: the feed metadata
// plus where it came from and how to find it again.
//
// The Source pointer is shared by reference among all items drawn from the
// same source within one request. FastPath and CanonicalID are derived data,
// computed at most once per item; build a new Item instead of mutating one.
type Item struct {
	Package

	// Source the item was resolved from. Shared, not owned.
	Source *source.Source
	// Sources are the alternate source identifiers carried through the
	// fastpath, used to bias dependency lookups.
	Sources []string
	// IsPackageFile is true when the item was resolved directly from a
	// local archive rather than a feed query.
	IsPackageFile bool

	fastpathOnce  sync.Once
	fastpathValue string
	canonicalOnce sync.Once
	canonicalID   string
}

// NewItem builds an Item for pkg as resolved from src.
func NewItem(pkg Package, src *source.Source, hints []string) *Item {
	return &Item{Package: pkg, Source: src, Sources: hints}
}

// FullName is the canonical `<id>.<version>` name.
func (it *Item) FullName() string {
	return it.ID + "." + it.Version
}

// ArchiveName is the canonical archive file name for the item.
func (it *Item) ArchiveName() string {
	return it.FullName() + ArchiveExt
}

// InstalledName is the directory stem an installed copy of the item uses.
func (it *Item) InstalledName() string {
	return it.FullName()
}

// InstalledDirectory returns the path under destination holding an
// installed copy of the item, or "" when none exists. The directory's
// existence IS the installed predicate.
func (it *Item) InstalledDirectory(destination string) string {
	if destination == "" {
		return ""
	}
	dir := filepath.Join(destination, it.InstalledName())
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}

// IsInstalled reports whether the item is installed under destination.
func (it *Item) IsInstalled(destination string) bool {
	return it.InstalledDirectory(destination) != ""
}

// SourceKey returns the source identifier encoded into the fastpath.
func (it *Item) SourceKey() string {
	if it.Source == nil {
		return ""
	}
	return it.Source.Key()
}

// SourceLocation returns the location of the item's source, or "".
func (it *Item) SourceLocation() string {
	if it.Source == nil {
		return ""
	}
	return it.Source.Location
}

// FastPath returns the opaque handle that re-identifies the item without
// re-searching. Computed once per item.
func (it *Item) FastPath() string {
	it.fastpathOnce.Do(func() {
		it.fastpathValue = fastpath.Encode(it.SourceKey(), it.ID, it.Version, it.Sources)
	})
	return it.fastpathValue
}

// CanonicalID returns the globally unique identifier for the item,
// composed from provider, id, version, and source location. Memoized.
func (it *Item) CanonicalID() string {
	it.canonicalOnce.Do(func() {
		it.canonicalID = fmt.Sprintf("%s:%s/%s#%s", ProviderName, it.ID, it.Version, it.SourceLocation())
	})
	return it.canonicalID
}
