// Package fastpath implements the opaque package handle that round-trips
// package identity through hosts.
//
// A fastpath is a single printable token carrying the source key, package id,
// version, and the list of source locations the package was found in:
//
//	$<source>\<id>\<version>\<src1>|<src2>|...
//
// Every field is base64-encoded independently, so raw values may contain the
// separator characters without escaping. Hosts treat the token as opaque and
// hand it back unmodified to later operations.
package fastpath

import (
	"encoding/base64"
	"regexp"
	"strings"
)

// pattern matches the handle layout: a '$' sigil followed by four
// backslash-delimited segments. Segments hold base64 text, which can never
// contain '\' or '|', so lazy matching per segment is unambiguous.
var pattern = regexp.MustCompile(`^\$(.*?)\\(.*?)\\(.*?)\\(.*)$`)

// Decoded holds the fields recovered from a fastpath handle.
type Decoded struct {
	Source  string
	ID      string
	Version string
	Sources []string
}

// Encode builds a fastpath handle from its parts. Empty fields are legal and
// round-trip as empty; an empty sources list encodes to an empty final
// segment.
func Encode(source, id, version string, sources []string) string {
	var b strings.Builder
	b.WriteByte('$')
	b.WriteString(encodeField(source))
	b.WriteByte('\\')
	b.WriteString(encodeField(id))
	b.WriteByte('\\')
	b.WriteString(encodeField(version))
	b.WriteByte('\\')
	for i, s := range sources {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(encodeField(s))
	}
	return b.String()
}

// Decode parses a fastpath handle. It reports ok=false for anything that is
// not a well-formed handle: wrong sigil, wrong segment count, or invalid
// base64 in any present segment. Decode never panics and never returns an
// error; a failed decode yields the zero Decoded.
func Decode(s string) (Decoded, bool) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return Decoded{}, false
	}

	source, ok := decodeField(m[1])
	if !ok {
		return Decoded{}, false
	}
	id, ok := decodeField(m[2])
	if !ok {
		return Decoded{}, false
	}
	version, ok := decodeField(m[3])
	if !ok {
		return Decoded{}, false
	}

	var sources []string
	if m[4] != "" {
		for _, part := range strings.Split(m[4], "|") {
			src, ok := decodeField(part)
			if !ok {
				return Decoded{}, false
			}
			sources = append(sources, src)
		}
	}

	return Decoded{Source: source, ID: id, Version: version, Sources: sources}, true
}

// IsFastpath reports whether s looks like a fastpath handle. It checks shape
// only; Decode still validates the segment contents.
func IsFastpath(s string) bool {
	return strings.HasPrefix(s, "$") && pattern.MatchString(s)
}

func encodeField(s string) string {
	if s == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func decodeField(s string) (string, bool) {
	if s == "" {
		return "", true
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", false
	}
	return string(raw), true
}
