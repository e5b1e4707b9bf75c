// Package install runs install plans through an external executor, tracks
// what is already on disk, and handles archive downloads.
//
// The orchestrator never decides install order itself; it executes the
// plan the dependency walker produced, one package per unit. Cancellation
// is cooperative and polled between units only, so a unit that started
// always runs to completion and is never rolled back. The sole rollback is
// a failed post-install hook, which removes that one package's directory.
package install

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/feed"
	"github.com/packraft/packraft/pkg/host"
	"github.com/packraft/packraft/pkg/observability"
)

// Hook runs before or after one package's install or uninstall.
type Hook func(ctx context.Context, item *feed.Item) error

// Orchestrator executes install plans. Configure once, then treat as
// immutable.
type Orchestrator struct {
	// Destination is the install root holding `<id>.<version>` directories.
	Destination string
	// SaveMode is passed through to the executor's {savemode} placeholder.
	SaveMode string
	// ExecutablePath locates the external installer binary.
	ExecutablePath string
	// ArgsTemplate overrides DefaultArgsTemplate when non-empty.
	ArgsTemplate string
	// Executor launches the installer. Nil means ProcessExecutor.
	Executor Executor

	PreInstall    Hook
	PostInstall   Hook
	PreUninstall  Hook
	PostUninstall Hook
}

func (o *Orchestrator) executor() Executor {
	if o.Executor != nil {
		return o.Executor
	}
	return ProcessExecutor{}
}

// Install runs the plan: deps in order, then item, one executor invocation
// per package. Progress spans len(deps)+1 units under one activity.
// The returned Result holds whatever completed, even on error.
func (o *Orchestrator) Install(ctx context.Context, ses host.Session, item *feed.Item, deps []*feed.Item) (*Result, error) {
	ses = host.OrNop(ses)

	units := make([]*feed.Item, 0, len(deps)+1)
	units = append(units, deps...)
	units = append(units, item)

	res := &Result{}
	pid := ses.StartProgress("installing %s", item.FullName())
	for i, unit := range units {
		if ctx.Err() != nil || ses.IsCanceled() {
			res.Canceled = true
			ses.CompleteProgress(pid, false)
			return res, errors.New(errors.ErrCodeCanceled,
				"install of %s canceled after %d of %d packages", item.FullName(), i, len(units))
		}
		ses.Progress(pid, i*100/len(units), "installing %s (%d of %d)", unit.FullName(), i+1, len(units))
		if err := o.installOne(ctx, ses, unit, res); err != nil {
			ses.CompleteProgress(pid, false)
			return res, err
		}
	}
	ses.Progress(pid, 100, "installed %s", item.FullName())
	ses.CompleteProgress(pid, true)
	return res, nil
}

// outcome is one classified executor line.
type outcome struct {
	status  Status
	id      string
	version string
}

func (o *Orchestrator) installOne(ctx context.Context, ses host.Session, unit *feed.Item, res *Result) (err error) {
	obs := observability.Install()
	obs.OnUnitStart(ctx, unit.ID, unit.Version)
	started := time.Now()
	unitStatus := StatusFailed
	defer func() {
		obs.OnUnitComplete(ctx, unit.ID, unit.Version, unitStatus.String(), time.Since(started), err)
	}()

	if err := runHook(ctx, o.PreInstall, unit); err != nil {
		res.record(StatusFailed, unit.ID, unit.Version)
		return errors.Wrap(errors.ErrCodeInstallFailed, err, "pre-install hook for %s", unit.FullName())
	}

	args := renderArgs(o.ArgsTemplate, unit, o.Destination, o.SaveMode)
	ses.Debug("executor: %s %s", o.ExecutablePath, args)
	proc, err := o.executor().Start(ctx, o.ExecutablePath, args)
	if err != nil {
		res.record(StatusFailed, unit.ID, unit.Version)
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sc := bufio.NewScanner(proc.Stderr())
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				ses.Warning("%s", line)
			}
		}
		if err := sc.Err(); err != nil {
			ses.Warning("reading executor stderr: %v", err)
		}
	}()

	var outcomes []outcome
	sc := bufio.NewScanner(proc.Stdout())
	for sc.Scan() {
		line := sc.Text()
		status := classifyLine(line)
		if status == StatusUnknown {
			ses.Verbose("%s", line)
			continue
		}
		id, version := parseRef(line, unit.ID, unit.Version)
		outcomes = append(outcomes, outcome{status: status, id: id, version: version})
	}
	scanErr := sc.Err()
	waitErr := proc.Wait()
	wg.Wait()
	// A truncated stdout stream loses classification lines, so a scan
	// failure fails the unit even when the process exited cleanly.
	if waitErr == nil {
		waitErr = scanErr
	}

	failed := false
	for _, oc := range outcomes {
		if oc.status == StatusFailed {
			failed = true
		}
	}
	// A non-zero exit without a failure line still counts as a failure. A
	// clean exit that classified nothing records no entries at all; the
	// result then reads as already present.
	if waitErr != nil && !failed {
		outcomes = append(outcomes, outcome{status: StatusFailed, id: unit.ID, version: unit.Version})
		failed = true
	}

	if failed {
		for _, oc := range outcomes {
			res.record(oc.status, oc.id, oc.version)
		}
		return errors.Wrap(errors.ErrCodeInstallFailed, waitErr, "executor did not install %s", unit.FullName())
	}

	if err := runHook(ctx, o.PostInstall, unit); err != nil {
		o.rollback(ses, unit)
		res.record(StatusFailed, unit.ID, unit.Version)
		return errors.Wrap(errors.ErrCodeInstallFailed, err, "post-install hook for %s", unit.FullName())
	}

	unitStatus = StatusAlreadyPresent
	for _, oc := range outcomes {
		res.record(oc.status, oc.id, oc.version)
		if oc.status == StatusInstalled {
			unitStatus = StatusInstalled
		}
	}
	return nil
}

// rollback removes the single package directory an aborted unit left
// behind. Other completed units stay untouched.
func (o *Orchestrator) rollback(ses host.Session, unit *feed.Item) {
	dir := unit.InstalledDirectory(o.Destination)
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		ses.Warning("rollback of %s left %s behind: %v", unit.FullName(), dir, err)
		return
	}
	ses.Verbose("rolled back %s", dir)
}

// Uninstall removes the installed copy of item. A missing directory is a
// no-op success.
func (o *Orchestrator) Uninstall(ctx context.Context, ses host.Session, item *feed.Item) error {
	ses = host.OrNop(ses)

	dir := item.InstalledDirectory(o.Destination)
	if dir == "" {
		ses.Verbose("%s is not installed under %s", item.FullName(), o.Destination)
		return nil
	}
	if err := runHook(ctx, o.PreUninstall, item); err != nil {
		return errors.Wrap(errors.ErrCodeUninstallFailed, err, "pre-uninstall hook for %s", item.FullName())
	}
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrap(errors.ErrCodeUninstallFailed, err, "removing %s", dir)
	}
	if err := runHook(ctx, o.PostUninstall, item); err != nil {
		return errors.Wrap(errors.ErrCodeUninstallFailed, err, "post-uninstall hook for %s", item.FullName())
	}
	ses.Verbose("removed %s", dir)
	return nil
}

func runHook(ctx context.Context, h Hook, item *feed.Item) error {
	if h == nil {
		return nil
	}
	return h(ctx, item)
}

// InstalledProbe adapts the orchestrator's destination scan to the
// dependency walker's installed predicate.
func (o *Orchestrator) InstalledProbe() func(id, version string) bool {
	return func(id, version string) bool {
		dir := filepath.Join(o.Destination, id+"."+version)
		info, err := os.Stat(dir)
		return err == nil && info.IsDir()
	}
}
