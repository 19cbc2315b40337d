package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLatestCmd(a *app) *cobra.Command {
	var flags recordFlags
	cmd := &cobra.Command{
		Use:   "latest <source>",
		Short: "Print the version the latest dist-tag points at",
		Long: `Decodes only the version the "latest" dist-tag points at. Fails when
the packument has no latest tag or the tag names a missing version.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			rec, err := src.pkg.LatestVersion()
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("%s has no latest version", src.pkg.Name())
			}
			return flags.print(cmd, rec)
		},
	}
	flags.register(cmd)
	return cmd
}
