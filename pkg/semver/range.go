package semver

import (
	"sort"
	"strings"
)

// rangeChars are the characters that mark a version spec as a range
// expression. Range expressions use the bracketed interval syntax
// ("[1.0,2.0)", "(,1.5]") and are opaque to the matcher: they are passed
// through to the feed, which evaluates them server-side.
const rangeChars = "()[],"

// IsRangeExpr reports whether spec is a range expression rather than a plain
// version.
func IsRangeExpr(spec string) bool {
	return strings.ContainsAny(spec, rangeChars)
}

// FixVersion normalizes degenerate version input from users:
//
//	".5"  -> "0.5"
//	"1"   -> "1.0"
//
// Anything already multi-part, and the empty string, passes through
// unchanged. FixVersion never fails; garbage in yields garbage out.
func FixVersion(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if strings.HasPrefix(s, ".") {
		return "0" + s
	}
	if !strings.Contains(s, ".") {
		return s + ".0"
	}
	return s
}

// IsValidRange reports whether min and max describe a satisfiable interval.
// It is false only when both bounds are present and min parses strictly
// greater than max; empty or unparsable bounds are permissive.
func IsValidRange(min, max string) bool {
	if min == "" || max == "" {
		return true
	}
	vmin, errMin := Parse(FixVersion(min))
	vmax, errMax := Parse(FixVersion(max))
	if errMin != nil || errMax != nil {
		return true
	}
	return Compare(vmin, vmax) <= 0
}

// Satisfies reports whether version matches the given constraints.
//
// A non-empty required version wins over the bounds: only an exact
// (normalized) match passes. Otherwise both bounds are inclusive and each
// applies only when non-empty.
func Satisfies(version, required, min, max string) bool {
	v := FixVersion(version)
	if required != "" {
		return CompareStrings(v, FixVersion(required)) == 0
	}
	if min != "" && CompareStrings(v, FixVersion(min)) < 0 {
		return false
	}
	if max != "" && CompareStrings(v, FixVersion(max)) > 0 {
		return false
	}
	return true
}

// Max returns the highest version string in versions, or "" when empty.
func Max(versions []string) string {
	if len(versions) == 0 {
		return ""
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if CompareStrings(v, best) > 0 {
			best = v
		}
	}
	return best
}

// SortDesc sorts version strings in place, highest first.
func SortDesc(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return CompareStrings(versions[i], versions[j]) > 0
	})
}
