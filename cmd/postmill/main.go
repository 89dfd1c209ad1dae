// Command postmill runs the blog content pipeline: it generates the post
// module from exports, gates it with integrity and SEO checks, and serves a
// local preview.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/postmill"
)

// version is set at build time via ldflags.
var version = "dev"

// errFailed marks a command whose checks ran but did not pass. The
// command has already printed its findings.
var errFailed = errors.New("checks failed")

type options struct {
	configPath string
	logLevel   string
}

// env is the per-invocation state shared by the subcommands.
type env struct {
	cfg   postmill.Config
	viper *viper.Viper
	log   zerolog.Logger
}

func (o *options) load() (*env, error) {
	cfg, v, err := loadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Prepare(); err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}
	if used := v.ConfigFileUsed(); used != "" {
		log.Debug().Str("file", used).Msg("loaded config")
	}
	return &env{cfg: cfg, viper: v, log: log}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "postmill",
		Short: "Blog content pipeline for the practice website",
		Long: `postmill turns WordPress text exports into the blog's generated data
module and keeps the published set honest.

  generate    parse, deduplicate, categorise and emit the generated posts
  check       integrity gate over datasets, exports and internal links
  publish     load the published set into the preview database
  serve       run the preview server
  acceptance  assert SEO behavior of the preview server
  init        create a starter project`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ./postmill.yaml if present)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	cmd.AddCommand(
		generateCmd(opts),
		checkCmd(opts),
		publishCmd(opts),
		serveCmd(opts),
		acceptanceCmd(opts),
		initCmd(),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the postmill version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "postmill %s\n", version)
		},
	}
}
