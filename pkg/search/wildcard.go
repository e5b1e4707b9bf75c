package search

import (
	"path"
	"strings"
)

// wildcardChars are the shell-style metacharacters that flip a search term
// into wildcard matching.
const wildcardChars = "*?["

// hasWildcard reports whether term contains shell-style wildcards.
func hasWildcard(term string) bool {
	return strings.ContainsAny(term, wildcardChars)
}

// feedHint reduces a wildcard term to the longest literal run, the best
// substring hint a feed can act on. "pack*tool?" hints "pack"; a term of
// only wildcards hints "" (match everything, filter client-side).
func feedHint(term string) string {
	best := ""
	var current strings.Builder
	flush := func() {
		if current.Len() > len(best) {
			best = current.String()
		}
		current.Reset()
	}
	inSet := false
	for _, r := range term {
		switch {
		case inSet:
			if r == ']' {
				inSet = false
			}
		case r == '[':
			inSet = true
			flush()
		case r == '*' || r == '?':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return best
}

// wildcardMatch applies full shell-style wildcard semantics
// (case-insensitive) to a candidate id.
func wildcardMatch(pattern, id string) bool {
	ok, err := path.Match(lower(pattern), lower(id))
	return err == nil && ok
}
