package host

// NopSession is a Session that discards everything, never cancels, and
// always asks for more results. It is the default when a host passes nil
// and the base other sessions embed to stay forward-compatible.
type NopSession struct{}

var _ Session = (*NopSession)(nil)

func (NopSession) Debug(string, ...any)                        {}
func (NopSession) Verbose(string, ...any)                      {}
func (NopSession) Warning(string, ...any)                      {}
func (NopSession) Error(ErrorCategory, string, string, ...any) {}
func (NopSession) IsCanceled() bool                            { return false }
func (NopSession) StartProgress(string, ...any) string         { return "" }
func (NopSession) Progress(string, int, string, ...any)        {}
func (NopSession) CompleteProgress(string, bool)               {}
func (NopSession) YieldPackage(Package) bool                   { return true }
func (NopSession) YieldSource(Source) bool                     { return true }
func (NopSession) YieldOption(Option) bool                     { return true }
func (NopSession) AddMetadata(string, string) bool             { return true }
func (NopSession) AddLink(string, string) bool                 { return true }
func (NopSession) AddDependency(string, string, string) bool   { return true }
func (NopSession) AddEntity(string, string) bool               { return true }

// OrNop returns ses, or a NopSession when ses is nil.
func OrNop(ses Session) Session {
	if ses == nil {
		return NopSession{}
	}
	return ses
}
