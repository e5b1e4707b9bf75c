package feedserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/feed"
	"github.com/packraft/packraft/pkg/semver"
)

// maxPageSize caps the take parameter on search requests.
const maxPageSize = 200

// Server serves the feed protocol over an Index.
type Server struct {
	index Index
	log   func(format string, args ...any)
}

// New creates a Server over index. Log receives request failures; nil
// discards them.
func New(index Index, log func(format string, args ...any)) *Server {
	if log == nil {
		log = func(string, ...any) {}
	}
	return &Server{index: index, log: log}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/v1/ping", s.handlePing)
	r.Get("/v1/packages/{id}", s.handleVersions)
	r.Get("/v1/packages/{id}/{version}", s.handleGet)
	r.Get("/v1/packages/{id}/{version}/content", s.handleContent)
	r.Get("/v1/range/{id}", s.handleRange)
	r.Get("/v1/search", s.handleSearch)

	return r
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	if err := s.index.Ping(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	pkgs, err := s.index.Versions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, pkgs)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	pkg, err := s.index.Get(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "version"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if pkg == nil {
		http.Error(w, "package not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, pkg)
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	rc, err := s.index.Content(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "version"))
	if err != nil {
		if errors.Is(err, errors.ErrCodePackageNotFound) {
			http.Error(w, "package not found", http.StatusNotFound)
			return
		}
		s.fail(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/zip")
	if _, err := io.Copy(w, rc); err != nil {
		s.log("content stream: %v", err)
	}
}

// handleRange evaluates a bracketed range expression server-side and
// returns the matching versions.
func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	spec := r.URL.Query().Get("spec")
	rng, err := semver.ParseRange(spec)
	if err != nil {
		http.Error(w, errors.UserMessage(err), http.StatusBadRequest)
		return
	}
	prerelease := r.URL.Query().Get("prerelease") == "true"
	unlisted := r.URL.Query().Get("unlisted") == "true"

	pkgs, err := s.index.Versions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}

	out := pkgs[:0]
	for _, p := range pkgs {
		if !unlisted && !p.IsListed {
			continue
		}
		if !prerelease && hasPrerelease(p.Version) {
			continue
		}
		if rng.Contains(p.Version) {
			out = append(out, p)
		}
	}
	s.writeJSON(w, out)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skip := parseIntDefault(q.Get("skip"), 0)
	take := parseIntDefault(q.Get("take"), feed.PageSize)
	if take <= 0 || take > maxPageSize {
		take = feed.PageSize
	}
	prerelease := q.Get("prerelease") == "true"

	total, items, err := s.index.Search(r.Context(), q.Get("q"), prerelease, skip, take)
	if err != nil {
		s.fail(w, err)
		return
	}
	if items == nil {
		items = []feed.Package{}
	}
	s.writeJSON(w, SearchResult{Total: total, Items: items})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log("encode response: %v", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.log("request failed: %v", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func hasPrerelease(version string) bool {
	v, err := semver.Parse(version)
	return err == nil && v.Prerelease != ""
}
