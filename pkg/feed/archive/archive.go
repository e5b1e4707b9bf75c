// Package archive reads and writes .raft package archives.
//
// A .raft archive is a zip file with a packraft.yaml manifest at its root
// describing the package (id, version, dependencies). Archives are built by
// publishing tooling and read by the directory feed, the feed server index,
// and the find-by-file path.
package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/feed"
)

// ManifestName is the manifest file expected at the archive root.
const ManifestName = "packraft.yaml"

// ReadManifest extracts the package manifest from the archive at path.
func ReadManifest(path string) (feed.Package, error) {
	var pkg feed.Package

	r, err := zip.OpenReader(path)
	if err != nil {
		return pkg, errors.Wrap(errors.ErrCodeArchive, err, "open archive %s", path)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != ManifestName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return pkg, errors.Wrap(errors.ErrCodeArchive, err, "read manifest in %s", path)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return pkg, errors.Wrap(errors.ErrCodeArchive, err, "read manifest in %s", path)
		}
		if err := yaml.Unmarshal(data, &pkg); err != nil {
			return pkg, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse manifest in %s", path)
		}
		if pkg.ID == "" || pkg.Version == "" {
			return feed.Package{}, errors.New(errors.ErrCodeInvalidManifest, "manifest in %s missing id or version", path)
		}
		pkg.ArchivePath = path
		return pkg, nil
	}

	return pkg, errors.New(errors.ErrCodeInvalidManifest, "archive %s has no %s", path, ManifestName)
}

// Write builds an archive at path from the manifest and the given file
// contents, keyed by archive-relative path. The manifest is serialized to
// packraft.yaml automatically; files must not claim that name.
func Write(path string, pkg feed.Package, files map[string][]byte) error {
	if pkg.ID == "" || pkg.Version == "" {
		return errors.New(errors.ErrCodeInvalidManifest, "manifest needs id and version")
	}

	manifest, err := yaml.Marshal(pkg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "encode manifest")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeArchive, err, "create archive directory")
	}
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeArchive, err, "create archive %s", path)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	if err := writeEntry(w, ManifestName, manifest); err != nil {
		return err
	}
	for name, data := range files {
		if name == ManifestName {
			return errors.New(errors.ErrCodeArchive, "file %s collides with the manifest", name)
		}
		if err := errors.ValidateArchiveEntryPath(name); err != nil {
			return err
		}
		if err := writeEntry(w, name, data); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeArchive, err, "finalize archive %s", path)
	}
	return out.Close()
}

// IsArchive reports whether path names a package archive by extension.
func IsArchive(path string) bool {
	return strings.EqualFold(filepath.Ext(path), feed.ArchiveExt)
}

func writeEntry(w *zip.Writer, name string, data []byte) error {
	f, err := w.Create(name)
	if err != nil {
		return errors.Wrap(errors.ErrCodeArchive, err, "write archive entry %s", name)
	}
	if _, err := f.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeArchive, err, "write archive entry %s", name)
	}
	return nil
}
