package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/git-pkgs/packument"
)

type recordFlags struct {
	json bool
	deps bool
}

func (f *recordFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.json, "json", false, "output the complete version object as JSON")
	cmd.Flags().BoolVar(&f.deps, "deps", false, "list declared dependencies")
}

func (f *recordFlags) print(cmd *cobra.Command, rec *packument.VersionRecord) error {
	if f.json {
		return writeJSON(cmd, rec.Fields)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "name:       %s\n", rec.Name)
	fmt.Fprintf(w, "version:    %s\n", rec.Version)
	if rec.Description != "" {
		fmt.Fprintf(w, "summary:    %s\n", rec.Description)
	}
	if rec.License != "" {
		fmt.Fprintf(w, "license:    %s\n", rec.License)
	}
	if rec.IsDeprecated() {
		fmt.Fprintf(w, "deprecated: %s\n", rec.Deprecated)
	}
	if rec.Dist.Tarball != "" {
		fmt.Fprintf(w, "tarball:    %s\n", rec.Dist.Tarball)
	}
	if integrity := rec.Integrity(); integrity != "" {
		fmt.Fprintf(w, "integrity:  %s\n", integrity)
	}
	if rec.Dist.Attestations != nil {
		fmt.Fprintf(w, "provenance: %s\n", rec.Dist.Attestations.Provenance.PredicateType)
	}

	if f.deps {
		deps := rec.DependencyList()
		fmt.Fprintf(w, "dependencies: %d\n", len(deps))
		for _, d := range deps {
			fmt.Fprintf(w, "  %s %s (%s)\n", d.Name, d.Requirements, d.Scope)
		}
	}
	return nil
}
