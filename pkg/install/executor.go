package install

import (
	"context"
	"io"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/shell"

	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/feed"
)

// DefaultArgsTemplate is the executor argument template used when the
// configuration does not override it. Placeholders are substituted before
// shell word splitting, so values containing spaces must be quoted in a
// custom template the same way.
const DefaultArgsTemplate = `install {id} {version} --source {source} --destination {destination} --save-mode {savemode}`

// Process is one running executor invocation.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until the process exits. A non-zero exit is an error.
	Wait() error
}

// Executor launches the external install executable. The args string is a
// fully rendered command line tail; splitting it into words is the
// executor's concern.
type Executor interface {
	Start(ctx context.Context, exe, args string) (Process, error)
}

// ProcessExecutor runs the executable as a child process with piped output.
type ProcessExecutor struct{}

var _ Executor = ProcessExecutor{}

// Start splits args using POSIX shell word rules and launches exe.
func (ProcessExecutor) Start(ctx context.Context, exe, args string) (Process, error) {
	words, err := shell.Fields(args, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed executor arguments %q", args)
	}

	cmd := exec.CommandContext(ctx, exe, words...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInstallFailed, err, "opening stdout pipe for %s", exe)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInstallFailed, err, "opening stderr pipe for %s", exe)
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInstallFailed, err, "starting executor %s", exe)
	}
	return &osProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type osProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr io.Reader
}

func (p *osProcess) Stdout() io.Reader { return p.stdout }
func (p *osProcess) Stderr() io.Reader { return p.stderr }
func (p *osProcess) Wait() error       { return p.cmd.Wait() }

// renderArgs substitutes the named placeholders of the argument template
// for one package. Unknown placeholders pass through untouched.
func renderArgs(template string, item *feed.Item, destination, saveMode string) string {
	if template == "" {
		template = DefaultArgsTemplate
	}
	return strings.NewReplacer(
		"{id}", item.ID,
		"{version}", item.Version,
		"{source}", item.SourceLocation(),
		"{destination}", destination,
		"{savemode}", saveMode,
	).Replace(template)
}
