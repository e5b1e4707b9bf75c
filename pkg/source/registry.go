package source

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/packraft/packraft/pkg/errors"
)

// Registry is the persistent table of named sources, stored as a TOML file.
// Mutations are last-writer-wins: re-adding an existing name replaces the
// entry. All methods are safe for concurrent use within one process; two
// processes writing the same file race, which matches the
// single-operation-at-a-time model the host guarantees.
type Registry struct {
	path string

	mu      sync.Mutex
	sources []Source
	loaded  bool
}

// registryFile is the TOML document shape.
type registryFile struct {
	Sources []Source `toml:"sources"`
}

// NewRegistry creates a registry backed by the TOML file at path. The file
// is read lazily on first access; a missing file is an empty registry.
func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

// List returns all registered sources in registration order.
func (r *Registry) List() ([]Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return nil, err
	}
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	for i := range out {
		out[i].Registered = true
	}
	return out, nil
}

// Find returns the source registered under name (case-insensitive), or nil.
func (r *Registry) Find(name string) (*Source, error) {
	sources, err := r.List()
	if err != nil {
		return nil, err
	}
	for i := range sources {
		if strings.EqualFold(sources[i].Name, name) {
			return &sources[i], nil
		}
	}
	return nil, nil
}

// FindByLocation returns the registered source whose location matches
// (ignoring one trailing separator), or nil.
func (r *Registry) FindByLocation(location string) (*Source, error) {
	sources, err := r.List()
	if err != nil {
		return nil, err
	}
	for i := range sources {
		if LocationsEqual(sources[i].Location, location) {
			return &sources[i], nil
		}
	}
	return nil, nil
}

// Add registers a source, replacing any existing entry with the same name.
func (r *Registry) Add(s Source) error {
	if err := errors.ValidateSourceName(s.Name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return err
	}

	s.Registered = true
	replaced := false
	for i := range r.sources {
		if strings.EqualFold(r.sources[i].Name, s.Name) {
			r.sources[i] = s
			replaced = true
			break
		}
	}
	if !replaced {
		r.sources = append(r.sources, s)
	}
	return r.save()
}

// Remove deletes the source registered under name. Removing an unknown name
// is a SOURCE_NOT_FOUND error.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return err
	}

	for i := range r.sources {
		if strings.EqualFold(r.sources[i].Name, name) {
			r.sources = append(r.sources[:i], r.sources[i+1:]...)
			return r.save()
		}
	}
	return errors.New(errors.ErrCodeSourceNotFound, "no source registered as %q", name)
}

// load reads the registry file once; later calls are no-ops.
func (r *Registry) load() error {
	if r.loaded {
		return nil
	}
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		r.loaded = true
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "read source registry %s", r.path)
	}

	var doc registryFile
	if err := toml.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "parse source registry %s", r.path)
	}
	r.sources = doc.Sources
	r.loaded = true
	return nil
}

// save writes the registry atomically: encode to a temp file in the same
// directory, then rename over the target.
func (r *Registry) save() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "create registry directory")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(registryFile{Sources: r.sources}); err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "encode source registry")
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".sources-*.toml")
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfig, err, "write source registry")
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeConfig, err, "write source registry")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeConfig, err, "write source registry")
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeConfig, err, "write source registry")
	}
	return nil
}
