package semver

import (
	"strings"

	"github.com/packraft/packraft/pkg/errors"
)

// Range is a parsed bracketed range expression. Range expressions are
// opaque to the search pipeline and travel to feeds verbatim; feeds that
// evaluate them locally (the directory feed, the feed server) parse them
// with ParseRange.
//
// Supported forms:
//
//	[1.0,2.0]   inclusive bounds
//	(1.0,2.0)   exclusive bounds
//	[1.0,2.0)   half-open mixes
//	[1.0,]      no upper bound
//	(,2.0]      no lower bound
//	1.0         bare version: minimum, inclusive
//	[1.0]       exact version
type Range struct {
	Min, Max                   string
	MinInclusive, MaxInclusive bool
}

// ParseRange parses a range expression.
func ParseRange(spec string) (Range, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Range{MinInclusive: true, MaxInclusive: true}, nil
	}

	if !IsRangeExpr(spec) {
		// Bare version: treated as an inclusive minimum.
		return Range{Min: spec, MinInclusive: true, MaxInclusive: true}, nil
	}

	if len(spec) < 2 {
		return Range{}, errors.New(errors.ErrCodeInvalidVersion, "malformed range %q", spec)
	}
	first, last := spec[0], spec[len(spec)-1]
	if (first != '[' && first != '(') || (last != ']' && last != ')') {
		return Range{}, errors.New(errors.ErrCodeInvalidVersion, "malformed range %q", spec)
	}

	r := Range{MinInclusive: first == '[', MaxInclusive: last == ']'}
	body := spec[1 : len(spec)-1]
	parts := strings.Split(body, ",")
	switch len(parts) {
	case 1:
		// [1.0] pins an exact version.
		r.Min = strings.TrimSpace(parts[0])
		r.Max = r.Min
		if r.Min == "" || !r.MinInclusive || !r.MaxInclusive {
			return Range{}, errors.New(errors.ErrCodeInvalidVersion, "malformed range %q", spec)
		}
	case 2:
		r.Min = strings.TrimSpace(parts[0])
		r.Max = strings.TrimSpace(parts[1])
	default:
		return Range{}, errors.New(errors.ErrCodeInvalidVersion, "malformed range %q", spec)
	}

	if r.Min != "" && r.Max != "" && !IsValidRange(r.Min, r.Max) {
		return Range{}, errors.New(errors.ErrCodeInvalidVersion, "range %q has min above max", spec)
	}
	return r, nil
}

// Contains reports whether version falls inside the range.
func (r Range) Contains(version string) bool {
	v := FixVersion(version)
	if r.Min != "" {
		c := CompareStrings(v, FixVersion(r.Min))
		if c < 0 || (c == 0 && !r.MinInclusive) {
			return false
		}
	}
	if r.Max != "" {
		c := CompareStrings(v, FixVersion(r.Max))
		if c > 0 || (c == 0 && !r.MaxInclusive) {
			return false
		}
	}
	return true
}
