package provider

import (
	"context"

	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/host"
	"github.com/packraft/packraft/pkg/source"
)

// AddPackageSource registers a source after validating the location
// resolves (and, for URLs, answers the feed ping unless validation is
// disabled). Re-adding an existing name replaces it.
func (p *Provider) AddPackageSource(ctx context.Context, ses host.Session, name, location string, trusted bool) error {
	ses = host.OrNop(ses)

	// Resolution without the registry: the new location must stand on its
	// own, not match an already-registered entry.
	r := &source.Resolver{SkipValidation: p.cfg.SkipValidate}
	resolved, err := r.Resolve(ctx, location)
	if err != nil {
		ses.Error(host.ResourceUnavailable, location, "%s", errors.UserMessage(err))
		return err
	}

	s := source.Source{
		Name:       name,
		Location:   resolved.Location,
		Trusted:    trusted || resolved.Trusted,
		Registered: true,
		Validated:  resolved.Validated,
	}
	if err := p.registry.Add(s); err != nil {
		ses.Error(host.InvalidArgument, name, "%s", errors.UserMessage(err))
		return err
	}
	ses.Verbose("registered source %s -> %s", name, s.Location)
	return nil
}

// RemovePackageSource removes a registered source by name.
func (p *Provider) RemovePackageSource(ctx context.Context, ses host.Session, name string) error {
	ses = host.OrNop(ses)
	if err := p.registry.Remove(name); err != nil {
		ses.Error(host.InvalidArgument, name, "%s", errors.UserMessage(err))
		return err
	}
	ses.Verbose("removed source %s", name)
	return nil
}

// ResolvePackageSources yields the sources an operation with the given
// tokens would query. Unresolvable tokens warn and are skipped.
func (p *Provider) ResolvePackageSources(ctx context.Context, ses host.Session, requested []string) error {
	ses = host.OrNop(ses)
	sources, err := p.selected(ctx, ses, requested)
	if err != nil {
		ses.Error(host.ResourceUnavailable, "", "%s", errors.UserMessage(err))
		return err
	}
	for _, s := range sources {
		ok := ses.YieldSource(host.Source{
			Name:       s.Name,
			Location:   s.Location,
			Trusted:    s.Trusted,
			Registered: s.Registered,
			Validated:  s.Validated,
		})
		if !ok {
			return nil
		}
	}
	return nil
}
