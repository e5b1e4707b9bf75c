package install

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/semver"
)

// InstalledPackage is one `<id>.<version>` directory found under the
// install destination.
type InstalledPackage struct {
	ID        string
	Version   string
	Directory string
}

// FullName is the directory stem the package was found under.
func (p InstalledPackage) FullName() string { return p.ID + "." + p.Version }

// Installed scans destination for installed package directories. A
// destination that does not exist yields an empty result, not an error.
func Installed(destination string) ([]InstalledPackage, error) {
	entries, err := os.ReadDir(destination)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "reading install destination %s", destination)
	}

	var out []InstalledPackage
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, version, ok := splitStem(e.Name())
		if !ok {
			continue
		}
		out = append(out, InstalledPackage{
			ID:        id,
			Version:   version,
			Directory: filepath.Join(destination, e.Name()),
		})
	}
	return out, nil
}

// splitStem splits an `<id>.<version>` directory stem. Ids may themselves
// contain dots, so the version is the earliest dot-suffix that parses as
// one.
func splitStem(stem string) (id, version string, ok bool) {
	for i := 1; i < len(stem)-1; i++ {
		if stem[i] != '.' {
			continue
		}
		if v := stem[i+1:]; versionLike(v) {
			return stem[:i], v, true
		}
	}
	return "", "", false
}

func versionLike(s string) bool {
	_, err := semver.Parse(s)
	return err == nil
}

// FilterInstalled narrows an installed scan by id and version constraints.
// A required version wins over bounds. Unlike the search path, the max
// bound is EXCLUSIVE: min <= v < max.
func FilterInstalled(pkgs []InstalledPackage, id, required, min, max string) []InstalledPackage {
	var out []InstalledPackage
	for _, p := range pkgs {
		if id != "" && !strings.EqualFold(p.ID, id) {
			continue
		}
		if !matchInstalledVersion(p.Version, required, min, max) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchInstalledVersion(version, required, min, max string) bool {
	if required != "" {
		return semver.CompareStrings(version, semver.FixVersion(required)) == 0
	}
	if min != "" && semver.CompareStrings(version, semver.FixVersion(min)) < 0 {
		return false
	}
	if max != "" && semver.CompareStrings(version, semver.FixVersion(max)) >= 0 {
		return false
	}
	return true
}
