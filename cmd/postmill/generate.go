package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/postmill/ingest"
)

func generateCmd(opts *options) *cobra.Command {
	var (
		watch    bool
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build the generated post module from the content exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.load()
			if err != nil {
				return err
			}
			gen := ingest.NewGenerator(env.cfg, ingest.WithLogger(env.log))
			if watch {
				env.log.Info().Str("dir", env.cfg.ContentDir).Msg("watching for changes")
				return gen.Watch(cmd.Context(), debounce)
			}

			report, err := gen.Run(cmd.Context())
			if err != nil {
				return err
			}
			reasons := make([]string, 0, len(report.Skipped))
			for r := range report.Skipped {
				reasons = append(reasons, string(r))
			}
			sort.Strings(reasons)
			for _, r := range reasons {
				env.log.Info().Str("reason", r).Int("count", report.Skipped[ingest.Reason(r)]).Msg("skipped exports")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generated %d posts from %d files (%d skipped) into %s\n",
				report.Accepted, report.Files, report.SkippedTotal(), env.cfg.ModulePath)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "regenerate whenever an export or the base dataset changes")
	cmd.Flags().DurationVar(&debounce, "debounce", ingest.DefaultDebounce, "quiet period before a watched change triggers a run")
	return cmd
}
