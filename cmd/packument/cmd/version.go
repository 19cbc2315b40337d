package cmd

import (
	"github.com/spf13/cobra"

	"github.com/git-pkgs/packument"
	"github.com/git-pkgs/packument/fetch"
)

func newVersionCmd(a *app) *cobra.Command {
	var flags recordFlags
	cmd := &cobra.Command{
		Use:   "version <source> [version]",
		Short: "Print one version of a packument",
		Long: `Decodes a single version. The version is taken from the second
argument or from the source (left-pad@1.3.0) and may be a dist-tag.
Without either, the latest version is printed.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			want := src.version
			if len(args) == 2 {
				want = args[1]
			}

			id, ok := fetch.SelectVersion(src.pkg, want)
			if !ok {
				if want == "" {
					want = "latest"
				}
				return &packument.NotFoundError{Name: src.pkg.Name(), Version: want}
			}
			// SelectVersion only returns identifiers present in the index, so
			// rec is never nil here.
			rec, err := src.pkg.Version(id)
			if err != nil {
				return err
			}
			return flags.print(cmd, rec)
		},
	}
	flags.register(cmd)
	return cmd
}
