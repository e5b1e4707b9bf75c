package provider

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/packraft/packraft/pkg/config"
	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/fastpath"
	"github.com/packraft/packraft/pkg/feed"
	"github.com/packraft/packraft/pkg/feed/archive"
	"github.com/packraft/packraft/pkg/host"
	"github.com/packraft/packraft/pkg/install"
	"github.com/packraft/packraft/pkg/source"
)

// recSession records everything an operation reports.
type recSession struct {
	host.NopSession
	mu       sync.Mutex
	packages []host.Package
	sources  []host.Source
	errCats  []host.ErrorCategory
	warns    []string
}

func (s *recSession) YieldPackage(p host.Package) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packages = append(s.packages, p)
	return true
}

func (s *recSession) YieldSource(src host.Source) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, src)
	return true
}

func (s *recSession) Error(cat host.ErrorCategory, target, format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errCats = append(s.errCats, cat)
}

func (s *recSession) Warning(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warns = append(s.warns, fmt.Sprintf(format, args...))
}

// fakeExec records invocations and reports success for each.
type fakeExec struct {
	mu    sync.Mutex
	calls []string
}

func (e *fakeExec) Start(ctx context.Context, exe, args string) (install.Process, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, args)
	return fakeProc{}, nil
}

type fakeProc struct{}

func (fakeProc) Stdout() io.Reader { return strings.NewReader("Successfully installed.\n") }
func (fakeProc) Stderr() io.Reader { return strings.NewReader("") }
func (fakeProc) Wait() error       { return nil }

func writeArchive(t *testing.T, dir string, pkg feed.Package) {
	t.Helper()
	name := pkg.ID + "." + pkg.Version + feed.ArchiveExt
	if err := archive.Write(filepath.Join(dir, name), pkg, map[string][]byte{"payload.txt": []byte("x")}); err != nil {
		t.Fatal(err)
	}
}

// newTestProvider builds a provider over one local directory feed holding
// alpha 1.0, alpha 2.0 (which depends on beta), and beta 1.0.
func newTestProvider(t *testing.T, trusted bool) (*Provider, string, string) {
	t.Helper()
	feedDir := t.TempDir()
	writeArchive(t, feedDir, feed.Package{ID: "alpha", Version: "1.0", Summary: "first"})
	writeArchive(t, feedDir, feed.Package{
		ID: "alpha", Version: "2.0", Summary: "first",
		DependencySets: []feed.DependencySet{{Dependencies: []feed.Dependency{{ID: "beta"}}}},
	})
	writeArchive(t, feedDir, feed.Package{ID: "beta", Version: "1.0", Summary: "helper"})

	dest := t.TempDir()
	regPath := filepath.Join(t.TempDir(), "sources.toml")
	reg := source.NewRegistry(regPath)
	if err := reg.Add(source.Source{Name: "local", Location: feedDir, Trusted: trusted, Registered: true}); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{
		Destination:    dest,
		SaveMode:       "full",
		ExecutablePath: "pkg-exec",
		RegistryPath:   regPath,
		Cache:          config.CacheConfig{Backend: config.CacheBackendNone},
	}
	p, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	return p, feedDir, dest
}

func TestFindPackageYieldsLatestOnly(t *testing.T) {
	p, _, _ := newTestProvider(t, true)
	ses := &recSession{}

	if err := p.FindPackage(context.Background(), ses, "alpha", PackageFilters{}); err != nil {
		t.Fatalf("FindPackage() error = %v", err)
	}
	if len(ses.packages) != 1 || ses.packages[0].Version != "2.0" {
		t.Fatalf("yielded %v, want only alpha 2.0", ses.packages)
	}
	if ses.packages[0].FastPath == "" {
		t.Error("yielded package has no fastpath")
	}
}

func TestFindPackageAllVersions(t *testing.T) {
	p, _, _ := newTestProvider(t, true)
	ses := &recSession{}

	if err := p.FindPackage(context.Background(), ses, "alpha", PackageFilters{AllVersions: true}); err != nil {
		t.Fatalf("FindPackage() error = %v", err)
	}
	if len(ses.packages) != 2 {
		t.Errorf("yielded %d packages, want both alpha versions", len(ses.packages))
	}
}

func TestFindPackageInvalidRange(t *testing.T) {
	p, _, _ := newTestProvider(t, true)
	ses := &recSession{}

	err := p.FindPackage(context.Background(), ses, "alpha", PackageFilters{Min: "2.0", Max: "1.0"})
	if !errors.Is(err, errors.ErrCodeInvalidVersion) {
		t.Fatalf("FindPackage() error = %v, want INVALID_VERSION", err)
	}
	if len(ses.errCats) != 1 || ses.errCats[0] != host.InvalidArgument {
		t.Errorf("error categories = %v, want [InvalidArgument]", ses.errCats)
	}
}

func TestSearchPackage(t *testing.T) {
	p, _, _ := newTestProvider(t, true)
	ses := &recSession{}

	if err := p.SearchPackage(context.Background(), ses, "bet", PackageFilters{}); err != nil {
		t.Fatalf("SearchPackage() error = %v", err)
	}
	if len(ses.packages) != 1 || ses.packages[0].ID != "beta" {
		t.Errorf("yielded %v, want beta via id substring", ses.packages)
	}
}

func TestFindPackageByFastpathRoundTrip(t *testing.T) {
	p, _, _ := newTestProvider(t, true)
	ses := &recSession{}
	if err := p.FindPackage(context.Background(), ses, "beta", PackageFilters{}); err != nil {
		t.Fatal(err)
	}
	fp := ses.packages[0].FastPath

	again := &recSession{}
	if err := p.FindPackageByFastpath(context.Background(), again, fp); err != nil {
		t.Fatalf("FindPackageByFastpath() error = %v", err)
	}
	if len(again.packages) != 1 || again.packages[0].ID != "beta" || again.packages[0].Version != "1.0" {
		t.Errorf("re-located %v, want beta 1.0", again.packages)
	}
}

func TestFindPackageByFastpathInvalid(t *testing.T) {
	p, _, _ := newTestProvider(t, true)
	ses := &recSession{}

	err := p.FindPackageByFastpath(context.Background(), ses, "not-a-handle")
	if !errors.Is(err, errors.ErrCodeInvalidFastpath) {
		t.Fatalf("error = %v, want INVALID_FASTPATH", err)
	}
	if len(ses.errCats) != 1 || ses.errCats[0] != host.InvalidArgument {
		t.Errorf("error categories = %v, want [InvalidArgument]", ses.errCats)
	}
}

func TestFindPackageByFile(t *testing.T) {
	p, feedDir, _ := newTestProvider(t, true)
	ses := &recSession{}

	path := filepath.Join(feedDir, "beta.1.0"+feed.ArchiveExt)
	if err := p.FindPackageByFile(context.Background(), ses, path); err != nil {
		t.Fatalf("FindPackageByFile() error = %v", err)
	}
	if len(ses.packages) != 1 || !ses.packages[0].IsPackageFile {
		t.Errorf("yielded %v, want one package flagged as a file", ses.packages)
	}
}

func TestInstallPackagePlansDependenciesFirst(t *testing.T) {
	p, _, _ := newTestProvider(t, true)
	exec := &fakeExec{}
	p.orch.Executor = exec
	ses := &recSession{}

	if err := p.InstallPackage(context.Background(), ses, "alpha", InstallOptions{}); err != nil {
		t.Fatalf("InstallPackage() error = %v", err)
	}
	if len(exec.calls) != 2 {
		t.Fatalf("executor ran %d times, want 2 (beta then alpha)", len(exec.calls))
	}
	if !strings.Contains(exec.calls[0], "beta") || !strings.Contains(exec.calls[1], "alpha") {
		t.Errorf("executor order = %v, want dependency first", exec.calls)
	}
}

func TestInstallPackageUntrustedRequiresForce(t *testing.T) {
	p, _, _ := newTestProvider(t, false)
	exec := &fakeExec{}
	p.orch.Executor = exec
	ses := &recSession{}

	err := p.InstallPackage(context.Background(), ses, "alpha", InstallOptions{})
	if !errors.Is(err, errors.ErrCodeInvalidOperation) {
		t.Fatalf("InstallPackage() error = %v, want INVALID_OPERATION", err)
	}
	if len(exec.calls) != 0 {
		t.Errorf("executor ran %d times without force, want 0", len(exec.calls))
	}

	if err := p.InstallPackage(context.Background(), ses, "alpha", InstallOptions{Force: true}); err != nil {
		t.Fatalf("InstallPackage(force) error = %v", err)
	}
	if len(exec.calls) == 0 {
		t.Error("executor never ran with force")
	}
}

func TestInstallPackageSkipDependencies(t *testing.T) {
	p, _, _ := newTestProvider(t, true)
	exec := &fakeExec{}
	p.orch.Executor = exec

	if err := p.InstallPackage(context.Background(), nil, "alpha", InstallOptions{SkipDependencies: true}); err != nil {
		t.Fatalf("InstallPackage() error = %v", err)
	}
	if len(exec.calls) != 1 {
		t.Errorf("executor ran %d times, want 1 (dependencies skipped)", len(exec.calls))
	}
}

func TestUninstallPackage(t *testing.T) {
	p, _, dest := newTestProvider(t, true)
	if err := os.MkdirAll(filepath.Join(dest, "beta.1.0"), 0o755); err != nil {
		t.Fatal(err)
	}

	fp := fastpath.Encode("local", "beta", "1.0", nil)
	if err := p.UninstallPackage(context.Background(), nil, fp); err != nil {
		t.Fatalf("UninstallPackage() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "beta.1.0")); !os.IsNotExist(err) {
		t.Error("beta.1.0 still installed")
	}
}

func TestDownloadPackageIntoDirectory(t *testing.T) {
	p, _, _ := newTestProvider(t, true)
	out := t.TempDir()

	ses := &recSession{}
	if err := p.FindPackage(context.Background(), ses, "beta", PackageFilters{}); err != nil {
		t.Fatal(err)
	}
	if err := p.DownloadPackage(context.Background(), nil, ses.packages[0].FastPath, out); err != nil {
		t.Fatalf("DownloadPackage() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "beta.1.0"+feed.ArchiveExt)); err != nil {
		t.Errorf("archive not downloaded: %v", err)
	}
}

func TestGetInstalledPackages(t *testing.T) {
	p, _, dest := newTestProvider(t, true)
	for _, dir := range []string{"alpha.1.0", "alpha.2.0", "beta.1.0"} {
		if err := os.MkdirAll(filepath.Join(dest, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	ses := &recSession{}
	if err := p.GetInstalledPackages(context.Background(), ses, "alpha", PackageFilters{}); err != nil {
		t.Fatalf("GetInstalledPackages() error = %v", err)
	}
	if len(ses.packages) != 2 {
		t.Errorf("yielded %d packages, want 2 alpha versions", len(ses.packages))
	}
	for _, pkg := range ses.packages {
		if !pkg.Installed {
			t.Errorf("package %s not flagged installed", pkg.ID)
		}
	}
}

func TestSourceManagement(t *testing.T) {
	p, _, _ := newTestProvider(t, true)
	extra := t.TempDir()

	if err := p.AddPackageSource(context.Background(), nil, "extra", extra, false); err != nil {
		t.Fatalf("AddPackageSource() error = %v", err)
	}

	ses := &recSession{}
	if err := p.ResolvePackageSources(context.Background(), ses, nil); err != nil {
		t.Fatalf("ResolvePackageSources() error = %v", err)
	}
	if len(ses.sources) != 2 {
		t.Fatalf("resolved %d sources, want 2", len(ses.sources))
	}

	if err := p.RemovePackageSource(context.Background(), nil, "extra"); err != nil {
		t.Fatalf("RemovePackageSource() error = %v", err)
	}
	if err := p.RemovePackageSource(context.Background(), nil, "extra"); !errors.Is(err, errors.ErrCodeSourceNotFound) {
		t.Errorf("removing twice = %v, want SOURCE_NOT_FOUND", err)
	}
}

func TestResolvePackageSourcesWarnsOnBadToken(t *testing.T) {
	p, feedDir, _ := newTestProvider(t, true)
	ses := &recSession{}

	if err := p.ResolvePackageSources(context.Background(), ses, []string{"local", "no-such-source"}); err != nil {
		t.Fatalf("ResolvePackageSources() error = %v", err)
	}
	if len(ses.sources) != 1 || ses.sources[0].Location != feedDir {
		t.Errorf("resolved %v, want only the local source", ses.sources)
	}
	if len(ses.warns) != 1 {
		t.Errorf("warnings = %v, want one for the bad token", ses.warns)
	}
}

func TestDynamicOptions(t *testing.T) {
	tests := []struct {
		cat  OptionCategory
		want int
	}{
		{OptionsPackage, 8},
		{OptionsSource, 3},
		{OptionsInstall, 4},
		{"bogus", 0},
	}
	for _, tt := range tests {
		if got := len(DynamicOptions(tt.cat)); got != tt.want {
			t.Errorf("DynamicOptions(%s) = %d options, want %d", tt.cat, got, tt.want)
		}
	}
}
