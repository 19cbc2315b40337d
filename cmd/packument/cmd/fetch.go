package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/git-pkgs/packument/client"
)

func newFetchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <package>...",
		Short: "Fetch several packuments in parallel",
		Long: `Fetches and indexes packuments from the configured registry, up to
--concurrency at a time, and prints one line per package: its name, the
number of versions and the latest version. A failed package does not stop
the others.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(args))
			for _, arg := range args {
				ref, err := client.ParseRef(arg)
				if err != nil {
					return err
				}
				names = append(names, ref.Name)
			}

			result, err := a.registry("").BulkFetchPackages(cmd.Context(), names, a.cfg.Concurrency)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printed := make(map[string]bool, len(names))
			for _, name := range names {
				if printed[name] {
					continue
				}
				printed[name] = true
				if err, ok := result.Errors[name]; ok {
					fmt.Fprintf(w, "%s\terror: %v\n", name, err)
					continue
				}
				pkg := result.Packages[name]
				latest, _ := pkg.DistTag("latest")
				fmt.Fprintf(w, "%s\t%d versions\tlatest %s\n", name, pkg.Versions().Len(), latest)
			}

			if len(result.Errors) > 0 {
				return fmt.Errorf("%d of %d packages failed", len(result.Errors), len(printed))
			}
			return nil
		},
	}
	return cmd
}
