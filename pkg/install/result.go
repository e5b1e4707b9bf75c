package install

// Ref names one package version touched by an install run.
type Ref struct {
	ID      string
	Version string
}

// Result aggregates the per-package outcomes of one install run.
type Result struct {
	Installed      []Ref
	AlreadyPresent []Ref
	Failed         []Ref

	// Canceled is set when the run stopped between units on a
	// cancellation request. Completed units stay in their lists.
	Canceled bool
}

func (r *Result) record(status Status, id, version string) {
	ref := Ref{ID: id, Version: version}
	switch status {
	case StatusInstalled:
		r.Installed = append(r.Installed, ref)
	case StatusAlreadyPresent:
		r.AlreadyPresent = append(r.AlreadyPresent, ref)
	case StatusFailed:
		r.Failed = append(r.Failed, ref)
	}
}

// Status reduces the run to a single outcome. Any failure or a
// cancellation is Failed; at least one fresh install is Installed;
// everything else, including a run that recorded no entries at all,
// is AlreadyPresent.
func (r *Result) Status() Status {
	switch {
	case r.Canceled || len(r.Failed) > 0:
		return StatusFailed
	case len(r.Installed) > 0:
		return StatusInstalled
	}
	return StatusAlreadyPresent
}
