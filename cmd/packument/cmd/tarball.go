package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/git-pkgs/packument"
	"github.com/git-pkgs/packument/client"
	"github.com/git-pkgs/packument/fetch"
)

// loadedSource serves an already loaded packument to a fetch.Resolver.
type loadedSource struct {
	pkg *packument.Package
}

func (s loadedSource) FetchPackage(_ context.Context, name string) (*packument.Package, error) {
	if name != s.pkg.Name() {
		return nil, &packument.NotFoundError{Name: name}
	}
	return s.pkg, nil
}

func newTarballCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "tarball <source> [version]",
		Short: "Resolve the tarball of a version",
		Long: `Prints the tarball URL and integrity of a version, the latest one by
default. With --download the tarball is saved to the given directory and
checked against its integrity.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.load(cmd, args[0])
			if err != nil {
				return err
			}
			ref := client.Ref{Name: src.pkg.Name(), Version: src.version}
			if len(args) == 2 {
				ref.Version = args[1]
			}

			registry := src.registry
			if registry == "" {
				registry = a.cfg.Registry
			}
			resolver := fetch.NewResolver(loadedSource{pkg: src.pkg}, client.NewURLs(registry))
			info, err := resolver.Resolve(cmd.Context(), ref)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "url:       %s\n", info.URL)
			fmt.Fprintf(w, "filename:  %s\n", info.Filename)
			if info.Integrity != "" {
				fmt.Fprintf(w, "integrity: %s\n", info.Integrity)
			}
			if info.UnpackedSize > 0 {
				fmt.Fprintf(w, "unpacked:  %d bytes\n", info.UnpackedSize)
			}

			if dir == "" {
				return nil
			}
			path, n, err := a.download(cmd.Context(), info, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "saved:     %s (%d bytes)\n", path, n)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "download", "", "save the tarball into this directory")
	return cmd
}

// download saves the tarball into dir. A partial or corrupt file is removed.
func (a *app) download(ctx context.Context, info *fetch.ArtifactInfo, dir string) (string, int64, error) {
	path := filepath.Join(dir, info.Filename)
	f, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}

	n, err := fetch.Download(ctx, a.httpFetcher(), info, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, err
	}
	a.logger.Info("downloaded tarball", "path", path, "bytes", n)
	return path, n, nil
}
