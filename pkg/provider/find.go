package provider

import (
	"context"
	"iter"

	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/fastpath"
	"github.com/packraft/packraft/pkg/feed"
	"github.com/packraft/packraft/pkg/host"
	"github.com/packraft/packraft/pkg/install"
	"github.com/packraft/packraft/pkg/search"
)

// PackageFilters narrows find and search operations. The zero value means
// "latest listed release of everything matching".
type PackageFilters struct {
	Required string
	Min      string
	Max      string

	AllVersions bool
	Prerelease  bool
	Unlisted    bool

	Tags     []string
	Contains string

	// Sources restricts the operation to these source tokens. Empty means
	// every registered source.
	Sources []string
}

func (f PackageFilters) query(ses host.Session) search.Query {
	return search.Query{
		Required:    f.Required,
		Min:         f.Min,
		Max:         f.Max,
		AllVersions: f.AllVersions,
		Prerelease:  f.Prerelease,
		Unlisted:    f.Unlisted,
		Tags:        f.Tags,
		Contains:    f.Contains,
		Warn:        ses.Warning,
	}
}

// FindPackage looks name up across the selected sources and yields every
// match. An empty name turns into a search for everything the sources
// list.
func (p *Provider) FindPackage(ctx context.Context, ses host.Session, name string, f PackageFilters) error {
	ses = host.OrNop(ses)
	q := f.query(ses)
	if err := q.Validate(); err != nil {
		ses.Error(host.InvalidArgument, name, "%s", errors.UserMessage(err))
		return err
	}

	sources, err := p.selected(ctx, ses, f.Sources)
	if err != nil {
		ses.Error(host.ResourceUnavailable, name, "%s", errors.UserMessage(err))
		return err
	}

	var seq iter.Seq[*feed.Item]
	if name == "" {
		seq = p.engine.Search(ctx, sources, "", q)
	} else {
		seq = p.engine.FindByID(ctx, sources, name, q)
	}
	p.yieldAll(ses, seq)
	return nil
}

// SearchPackage runs a free-text or wildcard search across the selected
// sources.
func (p *Provider) SearchPackage(ctx context.Context, ses host.Session, term string, f PackageFilters) error {
	ses = host.OrNop(ses)
	q := f.query(ses)
	if err := q.Validate(); err != nil {
		ses.Error(host.InvalidArgument, term, "%s", errors.UserMessage(err))
		return err
	}

	sources, err := p.selected(ctx, ses, f.Sources)
	if err != nil {
		ses.Error(host.ResourceUnavailable, term, "%s", errors.UserMessage(err))
		return err
	}
	p.yieldAll(ses, p.engine.Search(ctx, sources, term, q))
	return nil
}

// FindPackageByFile reads a local archive's manifest and yields it as a
// single-package result.
func (p *Provider) FindPackageByFile(ctx context.Context, ses host.Session, path string) error {
	ses = host.OrNop(ses)
	it, err := p.fileItem(path)
	if err != nil {
		ses.Error(host.InvalidData, path, "%s", errors.UserMessage(err))
		return err
	}
	p.yieldItem(ses, it)
	return nil
}

// FindPackageByFastpath re-resolves a handle produced by an earlier find
// and yields the located package.
func (p *Provider) FindPackageByFastpath(ctx context.Context, ses host.Session, fp string) error {
	ses = host.OrNop(ses)
	d, ok := fastpath.Decode(fp)
	if !ok {
		err := errors.New(errors.ErrCodeInvalidFastpath, "not a valid package handle: %q", fp)
		ses.Error(host.InvalidArgument, fp, "%s", errors.UserMessage(err))
		return err
	}
	it, err := p.locate(ctx, ses, d)
	if err != nil {
		ses.Error(host.ResourceUnavailable, d.ID, "%s", errors.UserMessage(err))
		return err
	}
	p.yieldItem(ses, it)
	return nil
}

// GetInstalledPackages scans the install destination and yields matching
// installed packages. The max bound is exclusive here; see pkg/install.
func (p *Provider) GetInstalledPackages(ctx context.Context, ses host.Session, name string, f PackageFilters) error {
	ses = host.OrNop(ses)
	pkgs, err := install.Installed(p.cfg.Destination)
	if err != nil {
		ses.Error(host.ResourceUnavailable, p.cfg.Destination, "%s", errors.UserMessage(err))
		return err
	}

	for _, ip := range install.FilterInstalled(pkgs, name, f.Required, f.Min, f.Max) {
		if ses.IsCanceled() {
			return nil
		}
		ok := ses.YieldPackage(host.Package{
			ID:             ip.ID,
			Version:        ip.Version,
			SourceName:     p.cfg.Destination,
			SourceLocation: ip.Directory,
			FastPath:       fastpath.Encode(p.cfg.Destination, ip.ID, ip.Version, nil),
			Installed:      true,
		})
		if !ok {
			return nil
		}
	}
	return nil
}

func (p *Provider) yieldAll(ses host.Session, seq iter.Seq[*feed.Item]) {
	for it := range seq {
		if ses.IsCanceled() || !p.yieldItem(ses, it) {
			return
		}
	}
}
