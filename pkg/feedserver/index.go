// Package feedserver implements the HTTP package feed: the wire protocol
// the httpfeed client speaks and the `packraft serve` command exposes.
//
// The server is a thin HTTP layer over an [Index], which answers metadata
// queries and serves archive content. Two indexes ship: [DirIndex] over a
// directory of .raft archives, and [MongoIndex] over a MongoDB collection
// with archives in a blob directory.
package feedserver

import (
	"context"
	"io"

	"github.com/packraft/packraft/pkg/feed"
)

// Index answers feed queries for the server.
type Index interface {
	// Ping verifies the index is usable.
	Ping(ctx context.Context) error
	// Versions returns every known version of id, including prereleases
	// and unlisted packages; the server applies visibility policy.
	Versions(ctx context.Context, id string) ([]feed.Package, error)
	// Get returns one exact record, or nil when absent.
	Get(ctx context.Context, id, version string) (*feed.Package, error)
	// Search returns the total match count and one page of matches.
	Search(ctx context.Context, q string, prerelease bool, skip, take int) (int, []feed.Package, error)
	// Content opens the archive bytes for one package.
	Content(ctx context.Context, id, version string) (io.ReadCloser, error)
}

// SearchResult is the wire shape of one search page.
type SearchResult struct {
	Total int            `json:"total"`
	Items []feed.Package `json:"items"`
}
