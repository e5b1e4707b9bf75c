// Package provider is the operation surface hosts call into: package
// search, fastpath resolution, install/uninstall/download orchestration,
// and source registry management.
//
// A Provider owns the wiring between configuration, the source registry
// and resolver, the multi-source search engine, the dependency walker, and
// the install orchestrator. Every operation reports diagnostics and results
// exclusively through the host session it is handed; user-input failures
// additionally surface on the session error channel before the structured
// error returns.
package provider

import (
	"context"
	"os"
	"strings"

	"github.com/packraft/packraft/pkg/cache"
	"github.com/packraft/packraft/pkg/config"
	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/fastpath"
	"github.com/packraft/packraft/pkg/feed"
	"github.com/packraft/packraft/pkg/feed/archive"
	"github.com/packraft/packraft/pkg/feed/dirfeed"
	"github.com/packraft/packraft/pkg/feed/httpfeed"
	"github.com/packraft/packraft/pkg/host"
	"github.com/packraft/packraft/pkg/install"
	"github.com/packraft/packraft/pkg/search"
	"github.com/packraft/packraft/pkg/source"
)

// Provider wires the core packages behind the host-facing operations.
type Provider struct {
	cfg      config.Config
	registry *source.Registry
	resolver *source.Resolver
	engine   *search.Engine
	cache    cache.Cache
	orch     *install.Orchestrator
}

// New builds a provider from resolved configuration. The cache backend is
// connected eagerly so misconfiguration fails here, not mid-search.
func New(ctx context.Context, cfg config.Config) (*Provider, error) {
	c, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		cfg:      cfg,
		registry: source.NewRegistry(cfg.RegistryPath),
		cache:    c,
		orch: &install.Orchestrator{
			Destination:    cfg.Destination,
			SaveMode:       cfg.SaveMode,
			ExecutablePath: cfg.ExecutablePath,
			ArgsTemplate:   cfg.ArgsTemplate,
		},
	}
	p.resolver = &source.Resolver{
		Registry:       p.registry,
		SkipValidation: cfg.SkipValidate,
	}
	p.engine = search.New(p.openFeed)
	return p, nil
}

// Close releases the provider's cache backend.
func (p *Provider) Close() error {
	return p.cache.Close()
}

func newCache(ctx context.Context, cc config.CacheConfig) (cache.Cache, error) {
	switch cc.Backend {
	case config.CacheBackendNone:
		return cache.NewNullCache(), nil
	case config.CacheBackendRedis:
		return cache.NewRedisCache(ctx, cc.RedisAddr, "", 0)
	default:
		return cache.NewFileCache(cc.Dir)
	}
}

// openFeed connects one resolved source to its feed implementation: local
// paths become directory (or single-archive) feeds, everything else goes
// through the HTTP client with a per-source cache namespace.
func (p *Provider) openFeed(ctx context.Context, src *source.Source) (feed.Feed, error) {
	if _, err := os.Stat(src.Location); err == nil {
		return dirfeed.New(src.Location)
	}
	return httpfeed.New(src.Location, cache.NewScoped(p.cache, src.Key()), p.cfg.Cache.TTL), nil
}

// resolverFor copies the resolver with warnings routed to ses.
func (p *Provider) resolverFor(ses host.Session) *source.Resolver {
	r := *p.resolver
	r.Warn = ses.Warning
	return &r
}

// selected resolves the sources an operation should query, yielding
// per-token failures as warnings.
func (p *Provider) selected(ctx context.Context, ses host.Session, requested []string) ([]*source.Source, error) {
	return p.resolverFor(ses).Selected(ctx, requested)
}

// yieldItem delivers one resolved package with its detail records. Returns
// false when the host wants no more results.
func (p *Provider) yieldItem(ses host.Session, it *feed.Item) bool {
	name := ""
	if it.Source != nil {
		name = it.Source.Name
	}
	ok := ses.YieldPackage(host.Package{
		ID:             it.ID,
		Version:        it.Version,
		Summary:        it.Summary,
		SourceName:     name,
		SourceLocation: it.SourceLocation(),
		FastPath:       it.FastPath(),
		IsPackageFile:  it.IsPackageFile,
		Installed:      it.IsInstalled(p.cfg.Destination),
	})
	if !ok {
		return false
	}
	for _, dep := range it.Dependencies() {
		if !ses.AddDependency(dep.ID, dep.Spec, it.SourceLocation()) {
			return false
		}
	}
	if it.ProjectURL != "" {
		ses.AddLink("project", it.ProjectURL)
	}
	if it.LicenseURL != "" {
		ses.AddLink("license", it.LicenseURL)
	}
	for _, a := range it.Authors {
		ses.AddEntity(a, "author")
	}
	if len(it.Tags) > 0 {
		ses.AddMetadata("tags", strings.Join(it.Tags, ", "))
	}
	return true
}

// fileItem builds the item for a local archive file.
func (p *Provider) fileItem(path string) (*feed.Item, error) {
	pkg, err := archive.ReadManifest(path)
	if err != nil {
		return nil, err
	}
	src := &source.Source{Name: path, Location: path, Trusted: true, Validated: true}
	it := feed.NewItem(pkg, src, nil)
	it.IsPackageFile = true
	return it, nil
}

// locate re-finds the exact package a fastpath identifies. Hinted sources
// are tried first, in handle order, then the full registered selection.
func (p *Provider) locate(ctx context.Context, ses host.Session, d fastpath.Decoded) (*feed.Item, error) {
	q := search.Query{
		Required:   d.Version,
		Prerelease: true,
		Unlisted:   true,
		Warn:       ses.Warning,
	}

	var tokens []string
	if d.Source != "" {
		tokens = append(tokens, d.Source)
	}
	tokens = append(tokens, d.Sources...)

	tried := map[string]bool{}
	for _, token := range tokens {
		if tried[token] {
			continue
		}
		tried[token] = true
		src, err := p.resolverFor(ses).Resolve(ctx, token)
		if err != nil {
			ses.Debug("fastpath source %q unavailable: %v", token, err)
			continue
		}
		if it := firstItem(p.engine.FindByID(ctx, []*source.Source{src}, d.ID, q)); it != nil {
			return it, nil
		}
	}

	sources, err := p.selected(ctx, ses, nil)
	if err != nil {
		return nil, err
	}
	if it := firstItem(p.engine.FindByID(ctx, sources, d.ID, q)); it != nil {
		return it, nil
	}
	return nil, errors.New(errors.ErrCodePackageNotFound,
		"package %s %s is no longer available on any known source", d.ID, d.Version)
}

func firstItem(seq func(func(*feed.Item) bool)) *feed.Item {
	var found *feed.Item
	seq(func(it *feed.Item) bool {
		found = it
		return false
	})
	return found
}
