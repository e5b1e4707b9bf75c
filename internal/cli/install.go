package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/packraft/packraft/pkg/errors"
	"github.com/packraft/packraft/pkg/fastpath"
	"github.com/packraft/packraft/pkg/feed/archive"
	"github.com/packraft/packraft/pkg/provider"
)

// installCommand creates the "install" command.
func (c *CLI) installCommand() *cobra.Command {
	var opts provider.InstallOptions
	var interactive bool
	var filters packageFlags

	cmd := &cobra.Command{
		Use:   "install <package>",
		Short: "Install a package and its dependencies",
		Long:  `Install resolves the argument as a fastpath handle, a local .raft archive, or a package id looked up across the registered sources, plans the dependency closure, and runs the install through the configured executor.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			p, err := c.newProvider(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			ref := args[0]
			ses := newConsoleSession(ctx, logger, isTerminal(os.Stderr))

			// With --interactive a bare id that matches several candidates
			// goes through the picker first.
			if interactive && !fastpath.IsFastpath(ref) && !archive.IsArchive(ref) && isTerminal(os.Stdout) {
				picked, err := c.pickCandidate(cmd, p, ref, filters, opts.Sources)
				if err != nil {
					return err
				}
				if picked == "" {
					printInfo("Nothing selected")
					return nil
				}
				ref = picked
			}

			err = p.InstallPackage(ctx, ses, ref, opts)
			if errors.Is(err, errors.ErrCodeInvalidOperation) && !opts.Force && isTerminal(os.Stdin) {
				var proceed bool
				confirm := huh.NewConfirm().
					Title("Untrusted source").
					Description(errors.UserMessage(err) + "\nInstall anyway?").
					Value(&proceed)
				if runErr := confirm.Run(); runErr != nil {
					return runErr
				}
				if !proceed {
					printInfo("Install aborted")
					return nil
				}
				opts.Force = true
				err = p.InstallPackage(ctx, ses, ref, opts)
			}
			if err != nil {
				return err
			}

			for _, pkg := range ses.packages {
				printSuccess("Installed %s %s", StyleHighlight.Render(pkg.ID), pkg.Version)
			}
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVar(&opts.Destination, "destination", "", "install root (defaults to configuration)")
	cmd.Flags().StringVar(&opts.SaveMode, "save-mode", "", "save mode handed to the executor: full, minimal, or none")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "install from untrusted sources without confirmation")
	cmd.Flags().BoolVar(&opts.SkipDependencies, "skip-dependencies", false, "install only the requested package")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick among matching candidates")
	cmd.Flags().StringArrayVar(&opts.Sources, "source", nil, "restrict to these sources (repeatable)")

	return cmd
}

// pickCandidate searches for ref and, when several candidates match, lets
// the user choose one. Returns the chosen fastpath, or "" when the picker
// was dismissed.
func (c *CLI) pickCandidate(cmd *cobra.Command, p *provider.Provider, ref string, filters packageFlags, sources []string) (string, error) {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	f := filters.filters()
	f.Sources = sources
	ses := newConsoleSession(ctx, logger, false)
	if err := p.FindPackage(ctx, ses, ref, f); err != nil {
		return "", err
	}
	switch len(ses.packages) {
	case 0:
		return "", errors.New(errors.ErrCodePackageNotFound, "package %q not found on any selected source", ref)
	case 1:
		return ses.packages[0].FastPath, nil
	}

	picked, err := pickPackage(fmt.Sprintf("Select a package for %q", ref), ses.packages)
	if err != nil || picked == nil {
		return "", err
	}
	return picked.FastPath, nil
}
