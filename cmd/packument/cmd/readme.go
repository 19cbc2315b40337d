package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReadmeCmd(a *app) *cobra.Command {
	var position bool
	cmd := &cobra.Command{
		Use:   "readme <source>",
		Short: "Print the readme of a packument",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}

			if position {
				span, ok := src.pkg.ReadmePosition()
				if !ok {
					return fmt.Errorf("%s has no readme", src.pkg.Name())
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d %d\n", span.Start, span.End)
				return nil
			}

			readme, ok := src.pkg.Readme()
			if !ok {
				return fmt.Errorf("%s has no readme", src.pkg.Name())
			}
			fmt.Fprintln(cmd.OutOrStdout(), readme)
			return nil
		},
	}
	cmd.Flags().BoolVar(&position, "position", false, "print the byte range of the raw readme string instead")
	return cmd
}
