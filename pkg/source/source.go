// Package source manages package sources: the registry of persisted named
// feeds and the resolver that turns user-supplied tokens into validated
// Source records.
package source

import "strings"

// Source identifies one package feed: a registered (persisted) entry or an
// ad-hoc one synthesized for a single request. Ad-hoc sources are never
// persisted.
type Source struct {
	// Name is the primary identity. Ad-hoc sources use their location as
	// the name.
	Name string `toml:"name"`
	// Location is a URI or filesystem path.
	Location string `toml:"location"`
	// Trusted marks sources whose packages install without confirmation.
	Trusted bool `toml:"trusted"`
	// Registered reports whether the source came from the registry.
	Registered bool `toml:"-"`
	// Validated reports whether the location passed a reachability probe.
	Validated bool `toml:"-"`
}

// Key returns the identifier carried in fastpath handles: the name when
// set, otherwise the location.
func (s *Source) Key() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Location
}

// Equal reports whether two sources denote the same feed: names match
// case-insensitively, or locations match up to one trailing separator.
func (s *Source) Equal(o *Source) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Name != "" && strings.EqualFold(s.Name, o.Name) {
		return true
	}
	return LocationsEqual(s.Location, o.Location)
}

// LocationsEqual compares two locations, ignoring case and at most one
// trailing '/' or '\' on each side. "https://feed/" and "https://feed"
// denote the same feed.
func LocationsEqual(a, b string) bool {
	return strings.EqualFold(trimSeparator(a), trimSeparator(b))
}

func trimSeparator(loc string) string {
	if n := len(loc); n > 1 && (loc[n-1] == '/' || loc[n-1] == '\\') {
		return loc[:n-1]
	}
	return loc
}
