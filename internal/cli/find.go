package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/packraft/packraft/pkg/provider"
)

// packageFlags binds the dynamic package option set onto a command.
type packageFlags struct {
	required    string
	minimum     string
	maximum     string
	allVersions bool
	prerelease  bool
	unlisted    bool
	tags        []string
	contains    string
	sources     []string
}

func (f *packageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.required, "required-version", "", "exact version to match")
	cmd.Flags().StringVar(&f.minimum, "minimum-version", "", "lowest acceptable version")
	cmd.Flags().StringVar(&f.maximum, "maximum-version", "", "highest acceptable version")
	cmd.Flags().BoolVar(&f.allVersions, "all-versions", false, "list every matching version, not just the latest")
	cmd.Flags().BoolVar(&f.prerelease, "prerelease", false, "include prerelease versions")
	cmd.Flags().BoolVar(&f.unlisted, "unlisted", false, "include unlisted packages")
	cmd.Flags().StringArrayVar(&f.tags, "tag", nil, "require a tag (repeatable)")
	cmd.Flags().StringVar(&f.contains, "contains", "", "require a substring in id or summary")
	cmd.Flags().StringArrayVar(&f.sources, "source", nil, "restrict to these sources (repeatable)")
}

func (f *packageFlags) filters() provider.PackageFilters {
	return provider.PackageFilters{
		Required:    f.required,
		Min:         f.minimum,
		Max:         f.maximum,
		AllVersions: f.allVersions,
		Prerelease:  f.prerelease,
		Unlisted:    f.unlisted,
		Tags:        f.tags,
		Contains:    f.contains,
		Sources:     f.sources,
	}
}

// findRecord is the JSON shape of one search hit.
type findRecord struct {
	ID       string `json:"id"`
	Version  string `json:"version"`
	Summary  string `json:"summary,omitempty"`
	Source   string `json:"source,omitempty"`
	FastPath string `json:"fastpath"`
	packageDetail
}

// findCommand creates the "find" command.
func (c *CLI) findCommand() *cobra.Command {
	var flags packageFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "find [term]",
		Short: "Search package sources",
		Long:  `Find searches every registered source (or the ones given with --source) for packages matching the term. An empty term lists everything the sources offer.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			p, err := c.newProvider(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			term := ""
			if len(args) > 0 {
				term = args[0]
			}

			ses := newConsoleSession(ctx, logger, !asJSON && isTerminal(os.Stderr))
			track := newProgress(logger)
			if err := p.SearchPackage(ctx, ses, term, flags.filters()); err != nil {
				return err
			}

			if asJSON {
				records := make([]findRecord, len(ses.packages))
				for i, pkg := range ses.packages {
					records[i] = findRecord{
						ID:            pkg.ID,
						Version:       pkg.Version,
						Summary:       pkg.Summary,
						Source:        pkg.SourceName,
						FastPath:      pkg.FastPath,
						packageDetail: *ses.details[i],
					}
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			if len(ses.packages) == 0 {
				printInfo("No packages matched %q", term)
				return nil
			}
			fmt.Println(renderPackages(ses.packages))
			track.done(fmt.Sprintf("Found %d packages", len(ses.packages)))
			printNextStep("Install one", appName+" install <package>")
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit results as JSON")
	return cmd
}
