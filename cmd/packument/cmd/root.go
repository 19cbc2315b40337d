// Package cmd contains the CLI commands for packument.
package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/git-pkgs/packument/fetch"
	"github.com/git-pkgs/packument/internal/npm"
)

// Version is the semantic version (set via -ldflags).
var Version = "dev"

// app carries the state shared by the commands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *Config
	logger  *log.Logger

	fetcher *fetch.Fetcher
	breaker *fetch.CircuitBreakerFetcher
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "packument",
		Short: "Inspect npm package documents",
		Long: `packument reads npm package documents (packuments) without decoding
them in full. Only the top-level fields are decoded up front. Versions
are decoded on demand.

A source is a file, - for standard input, a package name such as
@babel/core or left-pad@1.3.0, or a pkg:npm package URL. Names are
fetched from the configured registry.

Examples:
  packument show react
  packument latest ./react.json
  curl -s https://registry.npmjs.org/react | packument diff - --known 18.3.1
  packument tarball pkg:npm/left-pad@1.3.0 --download .`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/packument/packument.{toml,yaml,json})")
	if err := bindFlags(a.v, flags); err != nil {
		panic(err)
	}

	root.AddCommand(
		newShowCmd(a),
		newReadmeCmd(a),
		newLatestCmd(a),
		newVersionCmd(a),
		newDiffCmd(a),
		newTarballCmd(a),
		newFetchCmd(a),
	)
	return root, a
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug("using config file", "path", used)
	}
	return nil
}

// httpFetcher returns the fetcher shared by all requests of one invocation.
func (a *app) httpFetcher() fetch.FetcherInterface {
	if a.fetcher == nil {
		opts := []fetch.Option{
			fetch.WithTimeout(a.cfg.Timeout),
			fetch.WithMaxRetries(a.cfg.MaxRetries),
			fetch.WithUserAgent(AppName + "/" + Version),
			fetch.WithLogger(a.logger),
		}
		if a.cfg.Token != "" {
			if u, err := url.Parse(a.cfg.Registry); err == nil {
				opts = append(opts, fetch.WithAuthFunc(fetch.BearerToken(u.Host, a.cfg.Token)))
			}
		}
		a.fetcher = fetch.NewFetcher(opts...)
		a.breaker = fetch.NewCircuitBreakerFetcher(a.fetcher, fetch.WithBreakerLogger(a.logger))
	}
	return a.breaker
}

// registry returns a client for base, or the configured registry when base
// is empty.
func (a *app) registry(base string) *npm.Registry {
	if base == "" {
		base = a.cfg.Registry
	}
	return npm.New(base, a.httpFetcher(), npm.WithLogger(a.logger))
}

func (a *app) close() {
	if a.fetcher != nil {
		a.fetcher.Close()
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	root, a := newRootCmd()
	defer a.close()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
