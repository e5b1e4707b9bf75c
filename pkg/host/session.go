// Package host defines the signaling channel between core operations and
// their host.
//
// Every provider operation takes a [Session]. Diagnostics, progress, and
// results all flow through it; core packages never print or log directly.
// Yield methods return false when the host wants no further results, and
// producers must honor that promptly.
package host

// ErrorCategory classifies errors reported through [Session.Error] so hosts
// can map them onto their own error surfaces.
type ErrorCategory string

// Error categories reported by core operations.
const (
	InvalidArgument     ErrorCategory = "InvalidArgument"
	InvalidOperation    ErrorCategory = "InvalidOperation"
	InvalidData         ErrorCategory = "InvalidData"
	ResourceUnavailable ErrorCategory = "ResourceUnavailable"
	ResourceExists      ErrorCategory = "ResourceExists"
	NotImplemented      ErrorCategory = "NotImplemented"
	OperationStopped    ErrorCategory = "OperationStopped"
)

// Package is the result record delivered through [Session.YieldPackage].
// It is a flattened view of a resolved package so hosts do not need to
// import the feed packages.
type Package struct {
	ID             string
	Version        string
	Summary        string
	SourceName     string
	SourceLocation string
	FastPath       string
	IsPackageFile  bool
	Installed      bool
}

// Source is the result record delivered through [Session.YieldSource].
type Source struct {
	Name       string
	Location   string
	Trusted    bool
	Registered bool
	Validated  bool
}

// Option describes one dynamic option advertised to the host.
type Option struct {
	Category string // "package", "source", or "install"
	Name     string
	Kind     string // "string", "string-array", "switch", or "path"
	Required bool
	Values   []string // permitted values, nil when unconstrained
}

// Session is the channel through which an operation talks to its host.
//
// Diagnostic methods accept printf-style templates. IsCanceled is polled
// cooperatively between units of work; it never interrupts one. Yield
// methods return false to request that the producer stop; the Add* methods
// attach detail to the most recently yielded package.
type Session interface {
	Debug(format string, args ...any)
	Verbose(format string, args ...any)
	Warning(format string, args ...any)
	Error(cat ErrorCategory, target, format string, args ...any)

	IsCanceled() bool

	// StartProgress begins a progress activity and returns its id.
	StartProgress(format string, args ...any) string
	// Progress reports percent complete (0-100) for an activity.
	Progress(id string, percent int, format string, args ...any)
	// CompleteProgress ends an activity, ok reporting success.
	CompleteProgress(id string, ok bool)

	YieldPackage(p Package) bool
	YieldSource(s Source) bool
	YieldOption(o Option) bool
	AddMetadata(name, value string) bool
	AddLink(rel, href string) bool
	AddDependency(id, version, source string) bool
	AddEntity(name, role string) bool
}
