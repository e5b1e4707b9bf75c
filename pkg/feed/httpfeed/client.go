// Package httpfeed is the client for HTTP package feeds speaking the
// packraft feed protocol (see pkg/feedserver).
//
// Responses are cached per source through pkg/cache and transient failures
// retried with backoff, so repeated searches against the same feed stay
// cheap and flaky networks do not surface as per-source errors more than
// necessary.
package httpfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/packraft/packraft/pkg/cache"
	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/feed"
	"github.com/packraft/packraft/pkg/httputil"
	"github.com/packraft/packraft/pkg/observability"
	"github.com/packraft/packraft/pkg/semver"
)

// DefaultTTL is how long cached feed responses stay fresh.
const DefaultTTL = 15 * time.Minute

// Feed queries one HTTP package feed.
type Feed struct {
	base  string
	http  *http.Client
	cache cache.Cache
	ttl   time.Duration
}

var _ feed.Feed = (*Feed)(nil)

// New creates a feed client for the feed rooted at base. The cache may be
// nil to disable caching.
func New(base string, c cache.Cache, ttl time.Duration) *Feed {
	if c == nil {
		c = cache.NewNullCache()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Feed{
		base:  strings.TrimSuffix(base, "/"),
		http:  &http.Client{Timeout: 30 * time.Second},
		cache: c,
		ttl:   ttl,
	}
}

// Ping verifies the feed is reachable.
func (f *Feed) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.base+"/v1/ping", nil)
	if err != nil {
		return err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "ping %s", f.base)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.ErrCodeNetwork, "ping %s: status %d", f.base, resp.StatusCode)
	}
	return nil
}

// FindByID returns every version of id, with content URLs filled in.
func (f *Feed) FindByID(ctx context.Context, id string, opts feed.LookupOptions) ([]feed.Package, error) {
	var pkgs []feed.Package
	u := fmt.Sprintf("%s/v1/packages/%s", f.base, url.PathEscape(id))
	if err := f.getJSON(ctx, u, &pkgs); err != nil {
		if errors.Is(err, errors.ErrCodePackageNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return f.finish(filterVisible(pkgs, opts)), nil
}

// FindByRange asks the feed to evaluate a bracketed range expression.
func (f *Feed) FindByRange(ctx context.Context, id, spec string, opts feed.LookupOptions) ([]feed.Package, error) {
	var pkgs []feed.Package
	q := url.Values{"spec": {spec}}
	if opts.Prerelease {
		q.Set("prerelease", "true")
	}
	if opts.Unlisted {
		q.Set("unlisted", "true")
	}
	u := fmt.Sprintf("%s/v1/range/%s?%s", f.base, url.PathEscape(id), q.Encode())
	if err := f.getJSON(ctx, u, &pkgs); err != nil {
		if errors.Is(err, errors.ErrCodePackageNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return f.finish(pkgs), nil
}

// searchPage mirrors the server's search response shape.
type searchPage struct {
	Total int            `json:"total"`
	Items []feed.Package `json:"items"`
}

// Search pages through the feed's free-text search lazily, prefetching one
// page ahead of consumption.
func (f *Feed) Search(ctx context.Context, term string, opts feed.LookupOptions) *feed.Pager {
	return feed.NewPager(func(skip, take int) ([]feed.Package, error) {
		q := url.Values{
			"q":    {term},
			"skip": {fmt.Sprint(skip)},
			"take": {fmt.Sprint(take)},
		}
		if opts.Prerelease {
			q.Set("prerelease", "true")
		}
		var page searchPage
		if err := f.getJSON(ctx, f.base+"/v1/search?"+q.Encode(), &page); err != nil {
			return nil, err
		}
		return f.finish(page.Items), nil
	})
}

// Download streams the archive for one package. The caller owns the
// returned body.
func (f *Feed) Download(ctx context.Context, contentURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "download %s", contentURL)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.New(errors.ErrCodeDownloadFailed, "download %s: status %d", contentURL, resp.StatusCode)
	}
	return resp, nil
}

// getJSON fetches url into v through the cache, retrying transient
// failures with backoff.
func (f *Feed) getJSON(ctx context.Context, url string, v any) error {
	key := cache.Hash([]byte(url))
	if data, hit, err := f.cache.Get(ctx, key); err == nil && hit {
		if json.Unmarshal(data, v) == nil {
			observability.Cache().OnCacheHit(ctx, "feed")
			return nil
		}
		// Corrupt entry: drop it and refetch.
		_ = f.cache.Delete(ctx, key)
	}
	observability.Cache().OnCacheMiss(ctx, "feed")

	var body []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		observability.HTTP().OnRequest(ctx, http.MethodGet, req.URL.Host, req.URL.Path)
		start := time.Now()
		resp, err := f.http.Do(req)
		if err != nil {
			observability.HTTP().OnError(ctx, http.MethodGet, req.URL.Host, req.URL.Path, err)
			return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "get %s", url)}
		}
		defer resp.Body.Close()
		observability.HTTP().OnResponse(ctx, http.MethodGet, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))
		if err := checkStatus(url, resp.StatusCode); err != nil {
			return err
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "decode response from %s", url)
	}
	_ = f.cache.Set(ctx, key, body, f.ttl)
	observability.Cache().OnCacheSet(ctx, "feed", len(body))
	return nil
}

// finish fills derived fields the wire format omits.
func (f *Feed) finish(pkgs []feed.Package) []feed.Package {
	for i := range pkgs {
		if pkgs[i].ContentURL == "" {
			pkgs[i].ContentURL = fmt.Sprintf("%s/v1/packages/%s/%s/content",
				f.base, url.PathEscape(pkgs[i].ID), url.PathEscape(pkgs[i].Version))
		}
	}
	return pkgs
}

// filterVisible applies the prerelease and unlisted policies client-side;
// the versions endpoint always returns everything it knows.
func filterVisible(pkgs []feed.Package, opts feed.LookupOptions) []feed.Package {
	out := pkgs[:0]
	for _, p := range pkgs {
		if !opts.Unlisted && !p.IsListed {
			continue
		}
		if !opts.Prerelease {
			if v, err := semver.Parse(p.Version); err == nil && v.Prerelease != "" {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func checkStatus(url string, code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodePackageNotFound, "not found: %s", url)
	case code >= 500:
		return &httputil.RetryableError{Err: errors.New(errors.ErrCodeNetwork, "get %s: status %d", url, code)}
	default:
		return errors.New(errors.ErrCodeNetwork, "get %s: status %d", url, code)
	}
}
