package provider

import (
	"context"
	"os"
	"path/filepath"

	"github.com/packraft/packraft/pkg/depwalk"
	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/fastpath"
	"github.com/packraft/packraft/pkg/feed"
	"github.com/packraft/packraft/pkg/feed/archive"
	"github.com/packraft/packraft/pkg/host"
	"github.com/packraft/packraft/pkg/install"
	"github.com/packraft/packraft/pkg/search"
	"github.com/packraft/packraft/pkg/semver"
	"github.com/packraft/packraft/pkg/source"
)

// InstallOptions tune one install operation on top of the provider's
// configuration. Zero-value fields fall back to the configured defaults.
type InstallOptions struct {
	Destination      string
	SaveMode         string
	Force            bool
	SkipDependencies bool
	Sources          []string
}

func (p *Provider) orchestratorFor(opts InstallOptions) *install.Orchestrator {
	o := *p.orch
	if opts.Destination != "" {
		o.Destination = opts.Destination
	}
	if opts.SaveMode != "" {
		o.SaveMode = opts.SaveMode
	}
	return &o
}

// InstallPackage resolves ref (fastpath handle, local archive path, or
// package id), plans its dependency closure, and runs the install.
// Installing from an untrusted source requires Force.
func (p *Provider) InstallPackage(ctx context.Context, ses host.Session, ref string, opts InstallOptions) error {
	ses = host.OrNop(ses)

	item, err := p.resolveRef(ctx, ses, ref, opts.Sources)
	if err != nil {
		return err
	}

	if item.Source != nil && !item.Source.Trusted && !opts.Force && !p.cfg.Force {
		err := errors.New(errors.ErrCodeInvalidOperation,
			"source %s is not trusted; pass force to install anyway", item.Source.Key())
		ses.Error(host.InvalidOperation, item.FullName(), "%s", errors.UserMessage(err))
		return err
	}

	orch := p.orchestratorFor(opts)

	var steps []*feed.Item
	if !opts.SkipDependencies {
		sources, err := p.selected(ctx, ses, opts.Sources)
		if err != nil {
			ses.Error(host.ResourceUnavailable, item.FullName(), "%s", errors.UserMessage(err))
			return err
		}
		w := &depwalk.Walker{
			Engine:     p.engine,
			Sources:    sources,
			Installed:  orch.InstalledProbe(),
			Prerelease: p.cfg.Prerelease,
			Unlisted:   p.cfg.Unlisted,
			Warn:       ses.Warning,
		}
		plan, err := w.Plan(ctx, item)
		if err != nil {
			ses.Error(host.ResourceUnavailable, item.FullName(), "%s", errors.UserMessage(err))
			return err
		}
		steps = plan.Steps
	}

	if _, err := orch.Install(ctx, ses, item, steps); err != nil {
		cat := host.InvalidOperation
		if errors.Is(err, errors.ErrCodeCanceled) {
			cat = host.OperationStopped
		}
		ses.Error(cat, item.FullName(), "%s", errors.UserMessage(err))
		return err
	}
	p.yieldItem(ses, item)
	return nil
}

// UninstallPackage removes the installed copy of the package a fastpath
// identifies. A package that is not installed is a no-op success.
func (p *Provider) UninstallPackage(ctx context.Context, ses host.Session, fp string) error {
	ses = host.OrNop(ses)
	d, ok := fastpath.Decode(fp)
	if !ok {
		err := errors.New(errors.ErrCodeInvalidFastpath, "not a valid package handle: %q", fp)
		ses.Error(host.InvalidArgument, fp, "%s", errors.UserMessage(err))
		return err
	}

	// Uninstall needs only the identity; no feed round-trip.
	it := feed.NewItem(
		feed.Package{ID: d.ID, Version: d.Version},
		&source.Source{Name: d.Source, Location: d.Source},
		d.Sources,
	)
	if err := p.orch.Uninstall(ctx, ses, it); err != nil {
		ses.Error(host.InvalidOperation, it.FullName(), "%s", errors.UserMessage(err))
		return err
	}
	return nil
}

// DownloadPackage fetches the archive a fastpath identifies to target. A
// target that is an existing directory receives the canonical archive
// name inside it.
func (p *Provider) DownloadPackage(ctx context.Context, ses host.Session, fp, target string) error {
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

	if info, statErr := os.Stat(target); statErr == nil && info.IsDir() {
		target = filepath.Join(target, it.ArchiveName())
	}
	if err := p.orch.Download(ctx, ses, it, target); err != nil {
		ses.Error(host.ResourceUnavailable, it.FullName(), "%s", errors.UserMessage(err))
		return err
	}
	ses.Verbose("downloaded %s to %s", it.FullName(), target)
	return nil
}

// resolveRef turns an install reference into a concrete item. Order:
// fastpath handle, local archive file, package id looked up across the
// selected sources (highest version wins).
func (p *Provider) resolveRef(ctx context.Context, ses host.Session, ref string, sourceTokens []string) (*feed.Item, error) {
	if fastpath.IsFastpath(ref) {
		d, ok := fastpath.Decode(ref)
		if !ok {
			err := errors.New(errors.ErrCodeInvalidFastpath, "not a valid package handle: %q", ref)
			ses.Error(host.InvalidArgument, ref, "%s", errors.UserMessage(err))
			return nil, err
		}
		it, err := p.locate(ctx, ses, d)
		if err != nil {
			ses.Error(host.ResourceUnavailable, d.ID, "%s", errors.UserMessage(err))
			return nil, err
		}
		return it, nil
	}

	if archive.IsArchive(ref) {
		if _, err := os.Stat(ref); err == nil {
			it, err := p.fileItem(ref)
			if err != nil {
				ses.Error(host.InvalidData, ref, "%s", errors.UserMessage(err))
				return nil, err
			}
			return it, nil
		}
	}

	sources, err := p.selected(ctx, ses, sourceTokens)
	if err != nil {
		ses.Error(host.ResourceUnavailable, ref, "%s", errors.UserMessage(err))
		return nil, err
	}
	q := search.Query{
		Prerelease: p.cfg.Prerelease,
		Unlisted:   p.cfg.Unlisted,
		Warn:       ses.Warning,
	}
	var best *feed.Item
	for it := range p.engine.FindByID(ctx, sources, ref, q) {
		if best == nil || semver.CompareStrings(it.Version, best.Version) > 0 {
			best = it
		}
	}
	if best == nil {
		err := errors.New(errors.ErrCodePackageNotFound, "package %q not found on any selected source", ref)
		ses.Error(host.ResourceUnavailable, ref, "%s", errors.UserMessage(err))
		return nil, err
	}
	return best, nil
}
