package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

type showOutput struct {
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	DistTags    map[string]string `json:"distTags"`
	Versions    int               `json:"versions"`
	Created     string            `json:"created,omitempty"`
	Modified    string            `json:"modified,omitempty"`
	Unpublished bool              `json:"unpublished"`
	HasReadme   bool              `json:"hasReadme"`
}

func newShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <source>",
		Short: "Summarize a packument",
		Long: `Prints the top-level fields of a packument: name, description,
dist-tags, the number of versions and the time stamps. No version is
decoded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			pkg := src.pkg

			out := showOutput{
				Name:        pkg.Name(),
				DistTags:    pkg.DistTags(),
				Versions:    pkg.Versions().Len(),
				Modified:    pkg.Modified(),
				Unpublished: pkg.IsUnpublished(),
			}
			if desc, ok := pkg.Description(); ok {
				out.Description = &desc
			}
			if t := pkg.Time(); t != nil {
				out.Created = t.Created
			}
			_, out.HasReadme = pkg.Readme()

			if asJSON {
				return writeJSON(cmd, out)
			}
			return printShow(cmd, out)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printShow(cmd *cobra.Command, out showOutput) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "name:        %s\n", out.Name)
	if out.Description != nil {
		fmt.Fprintf(w, "description: %s\n", *out.Description)
	}
	fmt.Fprintf(w, "versions:    %d\n", out.Versions)
	if len(out.DistTags) > 0 {
		tags := make([]string, 0, len(out.DistTags))
		for _, tag := range slices.Sorted(maps.Keys(out.DistTags)) {
			tags = append(tags, tag+"="+out.DistTags[tag])
		}
		fmt.Fprintf(w, "dist-tags:   %s\n", strings.Join(tags, " "))
	}
	if out.Created != "" {
		fmt.Fprintf(w, "created:     %s\n", out.Created)
	}
	if out.Modified != "" {
		fmt.Fprintf(w, "modified:    %s\n", out.Modified)
	}
	if out.Unpublished {
		fmt.Fprintln(w, "unpublished: true")
	}
	return nil
}
