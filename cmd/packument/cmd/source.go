package cmd

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/git-pkgs/packument"
	"github.com/git-pkgs/packument/client"
)

// source is a loaded packument plus the version its reference named, if any.
type source struct {
	pkg      *packument.Package
	version  string
	registry string // empty for files and stdin
}

// load reads a packument from a file, from stdin for "-", or from the
// registry for a package name or pkg:npm URL.
func (a *app) load(cmd *cobra.Command, arg string) (*source, error) {
	if arg == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return fromBytes("stdin", data)
	}

	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		return fromBytes(arg, data)
	}

	ref, err := client.ParseRef(arg)
	if err != nil {
		return nil, fmt.Errorf("%s is neither a file nor a package: %w", arg, err)
	}
	reg := a.registry(ref.Registry)
	a.logger.Debug("fetching packument", "name", ref.Name, "registry", reg.URLs().Packument(ref.Name))
	pkg, err := reg.FetchPackage(cmd.Context(), ref.Name)
	if err != nil {
		return nil, err
	}
	registry := ref.Registry
	if registry == "" {
		registry = a.cfg.Registry
	}
	return &source{pkg: pkg, version: ref.Version, registry: registry}, nil
}

func fromBytes(name string, data []byte) (*source, error) {
	pkg, err := packument.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &source{pkg: pkg}, nil
}

// writeJSON prints v indented on the command's output.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
