package source

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/packraft/packraft/pkg/errors"
)

// DefaultSchemes are the URI schemes a resolver accepts when none are
// configured.
var DefaultSchemes = []string{"http", "https", "file"}

// Resolver turns user-supplied source tokens into Source records.
//
// A token may be a registered source's name, a registered source's location,
// an absolute URI with a supported scheme, or an existing local directory or
// file, tried in that order.
type Resolver struct {
	// Registry is consulted for name and location matches. Nil means no
	// registered sources.
	Registry *Registry
	// Schemes lists the accepted URI schemes; empty means DefaultSchemes.
	Schemes []string
	// SkipValidation disables the reachability probe for URI tokens.
	SkipValidation bool
	// Probe checks that a feed location is reachable. Nil means the
	// default HTTP ping probe.
	Probe func(ctx context.Context, location string) error
	// Warn receives per-token resolution failures during Selected.
	// Nil discards them.
	Warn func(format string, args ...any)
}

// Resolve resolves a single token to a source. Unresolvable tokens return a
// SOURCE_NOT_FOUND error naming the token.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Source, error) {
	if token == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty source")
	}

	if r.Registry != nil {
		if s, err := r.Registry.Find(token); err != nil {
			return nil, err
		} else if s != nil {
			return s, nil
		}
		if s, err := r.Registry.FindByLocation(token); err != nil {
			return nil, err
		} else if s != nil {
			return s, nil
		}
	}

	if u, err := url.Parse(token); err == nil && u.IsAbs() && r.supportedScheme(u.Scheme) {
		s := &Source{Name: token, Location: token}
		if u.Scheme == "file" {
			return r.resolveFileURI(u, s)
		}
		if !r.SkipValidation {
			if err := r.probe(ctx, token); err != nil {
				return nil, errors.Wrap(errors.ErrCodeSourceNotFound, err, "source %q is not reachable", token)
			}
			s.Validated = true
		}
		return s, nil
	}

	if _, err := os.Stat(token); err == nil {
		return &Source{Name: token, Location: token, Trusted: true, Validated: true}, nil
	}

	return nil, errors.New(errors.ErrCodeSourceNotFound, "unable to resolve source %q", token)
}

// Selected resolves the sources a multi-source operation should query.
// An empty request selects all registered sources. Tokens resolve
// independently: failures are reported through Warn and skipped, and the
// result preserves request order with duplicates removed.
func (r *Resolver) Selected(ctx context.Context, requested []string) ([]*Source, error) {
	if len(requested) == 0 {
		if r.Registry == nil {
			return nil, nil
		}
		registered, err := r.Registry.List()
		if err != nil {
			return nil, err
		}
		out := make([]*Source, 0, len(registered))
		for i := range registered {
			out = append(out, &registered[i])
		}
		return out, nil
	}

	var out []*Source
	for _, token := range requested {
		s, err := r.Resolve(ctx, token)
		if err != nil {
			r.warn("skipping source %q: %v", token, err)
			continue
		}
		duplicate := false
		for _, have := range out {
			if have.Equal(s) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *Resolver) resolveFileURI(u *url.URL, s *Source) (*Source, error) {
	path := u.Path
	if _, err := os.Stat(path); err != nil {
		if !r.SkipValidation {
			return nil, errors.New(errors.ErrCodeSourceNotFound, "source path %q does not exist", path)
		}
		return s, nil
	}
	s.Trusted = true
	s.Validated = true
	s.Location = path
	return s, nil
}

func (r *Resolver) supportedScheme(scheme string) bool {
	schemes := r.Schemes
	if len(schemes) == 0 {
		schemes = DefaultSchemes
	}
	for _, s := range schemes {
		if strings.EqualFold(s, scheme) {
			return true
		}
	}
	return false
}

func (r *Resolver) probe(ctx context.Context, location string) error {
	if r.Probe != nil {
		return r.Probe(ctx, location)
	}
	return PingProbe(ctx, location)
}

func (r *Resolver) warn(format string, args ...any) {
	if r.Warn != nil {
		r.Warn(format, args...)
	}
}

// PingProbe checks feed reachability with a HEAD against the feed ping
// endpoint, retrying as GET when the server rejects HEAD.
func PingProbe(ctx context.Context, location string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	pingURL := strings.TrimSuffix(location, "/") + "/v1/ping"

	status, err := probeOnce(ctx, client, http.MethodHead, pingURL)
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = probeOnce(ctx, client, http.MethodGet, pingURL)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "probe %s", pingURL)
	}
	if status >= 400 {
		return errors.New(errors.ErrCodeNetwork, "probe %s: status %d", pingURL, status)
	}
	return nil
}

func probeOnce(ctx context.Context, client *http.Client, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
