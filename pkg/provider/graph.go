package provider

import (
	"context"

	"github.com/packraft/packraft/pkg/depwalk"
	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/host"
)

// DependencyGraph resolves ref and walks its dependency closure, returning
// the node/edge graph for rendering. Installed packages appear as nodes but
// their subtrees are not expanded.
func (p *Provider) DependencyGraph(ctx context.Context, ses host.Session, ref string, sourceTokens []string) (*depwalk.Graph, error) {
	ses = host.OrNop(ses)

	item, err := p.resolveRef(ctx, ses, ref, sourceTokens)
	if err != nil {
		return nil, err
	}
	sources, err := p.selected(ctx, ses, sourceTokens)
	if err != nil {
		ses.Error(host.ResourceUnavailable, item.FullName(), "%s", errors.UserMessage(err))
		return nil, err
	}

	w := &depwalk.Walker{
		Engine:     p.engine,
		Sources:    sources,
		Installed:  p.orch.InstalledProbe(),
		Prerelease: p.cfg.Prerelease,
		Unlisted:   p.cfg.Unlisted,
		Warn:       ses.Warning,
	}
	plan, err := w.Plan(ctx, item)
	if err != nil {
		ses.Error(host.ResourceUnavailable, item.FullName(), "%s", errors.UserMessage(err))
		return nil, err
	}
	return plan.Graph(), nil
}
