package install

import (
	"regexp"
	"strings"

	"github.com/packraft/packraft/pkg/semver"
)

// Status classifies the outcome of one install unit.
type Status int

const (
	// StatusUnknown is a line that carries no outcome.
	StatusUnknown Status = iota
	// StatusInstalled means the executor installed the package.
	StatusInstalled
	// StatusAlreadyPresent means the package was installed before the run.
	StatusAlreadyPresent
	// StatusFailed means the executor reported the package not installed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusInstalled:
		return "installed"
	case StatusAlreadyPresent:
		return "already present"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// classifyLine maps one executor stdout line to a status by
// case-insensitive substring. Order matters: "successfully installed" and
// "already installed" both contain "installed".
func classifyLine(line string) Status {
	l := strings.ToLower(line)
	switch {
	case strings.Contains(l, "successfully installed"):
		return StatusInstalled
	case strings.Contains(l, "already installed"):
		return StatusAlreadyPresent
	case strings.Contains(l, "not installed"):
		return StatusFailed
	}
	return StatusUnknown
}

// quotedRef matches the `'<id> <version>'` reference executors embed in
// their outcome lines.
var quotedRef = regexp.MustCompile(`'([^']+) ([^' ]+)'`)

// parseRef extracts the package reference from a classified line. The
// quoted form wins; a bare `id version` line prefix is the fallback. When
// neither parses, the requested id and version are kept.
func parseRef(line, fallbackID, fallbackVersion string) (id, version string) {
	if m := quotedRef.FindStringSubmatch(line); m != nil {
		return m[1], m[2]
	}
	if fields := strings.Fields(line); len(fields) >= 2 {
		if _, err := semver.Parse(fields[1]); err == nil {
			return fields[0], fields[1]
		}
	}
	return fallbackID, fallbackVersion
}
