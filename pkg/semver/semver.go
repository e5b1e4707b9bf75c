// Package semver implements version parsing, comparison, and range matching
// for package feeds.
//
// Feed versions follow a relaxed semantic-versioning scheme: up to four
// dot-separated numeric parts (major.minor.patch.revision), an optional
// -prerelease suffix, and optional +build metadata that is ignored for
// ordering. Two-part versions like "1.0" are common and compare as if the
// missing parts were zero.
package semver

import (
	"strconv"
	"strings"

	"github.com/packraft/packraft/pkg/errors"
)

// Version represents a parsed package version.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Revision   int
	Prerelease string
	Build      string
}

// Parse parses a version string.
// Supports formats like "1.2", "1.2.3", "1.2.3.4", "1.2.3-alpha.1",
// "1.2.3+build" and "1.2.3-alpha+build".
func Parse(s string) (Version, error) {
	var v Version

	s = strings.TrimSpace(s)
	if s == "" {
		return v, errors.New(errors.ErrCodeInvalidVersion, "empty version")
	}

	// Split by '+' to separate build metadata
	parts := strings.SplitN(s, "+", 2)
	if len(parts) == 2 {
		v.Build = parts[1]
	}
	versionPart := parts[0]

	// Split by '-' to separate prerelease
	parts = strings.SplitN(versionPart, "-", 2)
	if len(parts) == 2 {
		v.Prerelease = parts[1]
	}
	corePart := parts[0]

	versionParts := strings.Split(corePart, ".")
	if len(versionParts) < 1 || len(versionParts) > 4 {
		return Version{}, errors.New(errors.ErrCodeInvalidVersion, "invalid version format: %s", s)
	}

	fields := []*int{&v.Major, &v.Minor, &v.Patch, &v.Revision}
	for i, p := range versionParts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, errors.New(errors.ErrCodeInvalidVersion, "invalid version part %q in %s", p, s)
		}
		*fields[i] = n
	}

	return v, nil
}

// MustParse parses a version string and panics on failure.
// Intended for constants and tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the canonical string representation of the version.
// The revision part is omitted when zero.
func (v Version) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(v.Major))
	b.WriteByte('.')
	b.WriteString(strconv.Itoa(v.Minor))
	b.WriteByte('.')
	b.WriteString(strconv.Itoa(v.Patch))
	if v.Revision != 0 {
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(v.Revision))
	}
	if v.Prerelease != "" {
		b.WriteByte('-')
		b.WriteString(v.Prerelease)
	}
	if v.Build != "" {
		b.WriteByte('+')
		b.WriteString(v.Build)
	}
	return b.String()
}

// Compare returns -1 if a < b, 0 if a == b, and 1 if a > b.
//
// Numeric parts compare first. A release outranks any prerelease of the same
// numeric version. Prerelease identifiers compare per dot-separated segment,
// numerically when both segments are numeric, lexically otherwise; when all
// shared segments tie, the version with fewer segments sorts first. Build
// metadata is ignored.
func Compare(a, b Version) int {
	if c := compareInt(a.Major, b.Major); c != 0 {
		return c
	}
	if c := compareInt(a.Minor, b.Minor); c != 0 {
		return c
	}
	if c := compareInt(a.Patch, b.Patch); c != 0 {
		return c
	}
	if c := compareInt(a.Revision, b.Revision); c != 0 {
		return c
	}

	switch {
	case a.Prerelease == "" && b.Prerelease == "":
		return 0
	case a.Prerelease == "":
		return 1
	case b.Prerelease == "":
		return -1
	}

	return comparePrerelease(a.Prerelease, b.Prerelease)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// comparePrerelease compares prerelease identifier lists per semver rules.
func comparePrerelease(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	minLen := len(aParts)
	if len(bParts) < minLen {
		minLen = len(bParts)
	}

	for i := 0; i < minLen; i++ {
		aPart := aParts[i]
		bPart := bParts[i]

		aInt, aErr := strconv.Atoi(aPart)
		bInt, bErr := strconv.Atoi(bPart)

		switch {
		case aErr == nil && bErr == nil:
			if c := compareInt(aInt, bInt); c != 0 {
				return c
			}
		case aErr == nil:
			// Numeric identifiers have lower precedence than alphanumeric.
			return -1
		case bErr == nil:
			return 1
		default:
			if c := strings.Compare(aPart, bPart); c != 0 {
				return c
			}
		}
	}

	return compareInt(len(aParts), len(bParts))
}

// CompareStrings compares two raw version strings with a total, deterministic
// order. Versions that fail to parse compare as all-zero, with the raw string
// as a lexical tiebreak, so sorting mixed input never panics and is stable.
func CompareStrings(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	if errA != nil || errB != nil {
		if c := Compare(va, vb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	}
	return Compare(va, vb)
}
