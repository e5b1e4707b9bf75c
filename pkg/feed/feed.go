// Package feed defines the package metadata model and the contract every
// package feed implements.
//
// A feed is anything that can be queried for package metadata: an HTTP feed
// server (httpfeed), a directory of archives (dirfeed), or a single archive
// file. The search engine and dependency walker consume feeds only through
// the [Feed] interface, so per-feed failures and transports stay isolated.
package feed

import (
	"context"
	"strings"
	"time"
)

// Dependency names one prerequisite of a package. Spec is empty (any
// version), an exact version, or an opaque bracketed range expression that
// feeds evaluate server-side.
type Dependency struct {
	ID   string `json:"id" yaml:"id"`
	Spec string `json:"spec,omitempty" yaml:"spec,omitempty"`
}

// DependencySet is a named group of dependencies, e.g. per target platform.
type DependencySet struct {
	Name         string       `json:"name,omitempty" yaml:"name,omitempty"`
	Dependencies []Dependency `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// Package is one version of one package as described by a feed.
type Package struct {
	ID          string    `json:"id" yaml:"id"`
	Version     string    `json:"version" yaml:"version"`
	Summary     string    `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Authors     []string  `json:"authors,omitempty" yaml:"authors,omitempty"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	LicenseURL  string    `json:"license_url,omitempty" yaml:"license_url,omitempty"`
	ProjectURL  string    `json:"project_url,omitempty" yaml:"project_url,omitempty"`
	Published   time.Time `json:"published,omitempty" yaml:"published,omitempty"`
	IsListed    bool      `json:"is_listed" yaml:"is_listed"`
	IsLatest    bool      `json:"is_latest,omitempty" yaml:"is_latest,omitempty"`

	DependencySets []DependencySet `json:"dependency_sets,omitempty" yaml:"dependency_sets,omitempty"`

	// ContentURL is where the archive downloads from (HTTP feeds).
	ContentURL string `json:"content_url,omitempty" yaml:"-"`
	// ArchivePath is the local archive location (directory and file feeds).
	ArchivePath string `json:"-" yaml:"-"`
}

// Dependencies flattens all dependency sets in declaration order.
func (p *Package) Dependencies() []Dependency {
	var out []Dependency
	for _, set := range p.DependencySets {
		out = append(out, set.Dependencies...)
	}
	return out
}

// HasTag reports whether the package carries tag (case-insensitive).
func (p *Package) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// LookupOptions carry the prerelease and unlisted policies through feed
// queries.
type LookupOptions struct {
	// Prerelease includes prerelease versions in results.
	Prerelease bool
	// Unlisted includes packages the feed has delisted.
	Unlisted bool
}

// Feed is the query contract the orchestrator requires from a package
// source.
type Feed interface {
	// FindByID returns every version of the package with the given id.
	// An unknown id yields an empty slice, not an error.
	FindByID(ctx context.Context, id string, opts LookupOptions) ([]Package, error)

	// FindByRange returns the versions of id satisfying an opaque range
	// expression, evaluated by the feed itself.
	FindByRange(ctx context.Context, id, spec string, opts LookupOptions) ([]Package, error)

	// Search issues a free-text query and returns a lazy, paged result
	// sequence.
	Search(ctx context.Context, term string, opts LookupOptions) *Pager
}
