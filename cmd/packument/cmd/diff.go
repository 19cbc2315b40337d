package cmd

import (
	"bufio"
	"cmp"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

type diffOutput struct {
	Added   []addedVersion `json:"added"`
	Removed []string       `json:"removed"`
}

type addedVersion struct {
	Version string `json:"version"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

func newDiffCmd(a *app) *cobra.Command {
	var (
		known     []string
		knownFile string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "diff <source>",
		Short: "Compare a packument's versions with a known list",
		Long: `Lists the versions the packument has that are not known (+) and the
known versions it no longer has (-). Added versions carry the byte range
of their value so they can be decoded without re-scanning.

Known versions come from --known and from --known-file, one per line.
Blank lines and lines starting with # are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if knownFile != "" {
				fromFile, err := readKnownFile(knownFile)
				if err != nil {
					return err
				}
				known = append(known, fromFile...)
			}

			src, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			result := src.pkg.Diff(known)

			out := diffOutput{
				Added:   make([]addedVersion, 0, len(result.AddedVersions)),
				Removed: append([]string{}, result.RemovedVersions...),
			}
			slices.Sort(out.Removed)
			for _, v := range result.AddedVersions {
				out.Added = append(out.Added, addedVersion{Version: v.Version, Start: v.Span.Start, End: v.Span.End})
			}
			slices.SortFunc(out.Added, func(x, y addedVersion) int {
				return cmp.Compare(x.Start, y.Start)
			})

			if asJSON {
				return writeJSON(cmd, out)
			}
			w := cmd.OutOrStdout()
			for _, v := range out.Added {
				fmt.Fprintf(w, "+ %s\n", v.Version)
			}
			for _, v := range out.Removed {
				fmt.Fprintf(w, "- %s\n", v)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&known, "known", nil, "known version (repeatable, comma-separated)")
	cmd.Flags().StringVar(&knownFile, "known-file", "", "file listing known versions, one per line")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func readKnownFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var known []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		known = append(known, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return known, nil
}
