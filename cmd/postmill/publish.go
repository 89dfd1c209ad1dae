package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/postmill"
)

func publishCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Replace the preview database with the base and generated posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.load()
			if err != nil {
				return err
			}
			store, err := postmill.NewStore(env.cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			n, err := postmill.Publish(store, env.cfg)
			if err != nil {
				return err
			}
			env.log.Info().Int("posts", n).Str("db", env.cfg.DatabasePath).Msg("published")
			fmt.Fprintf(cmd.OutOrStdout(), "published %d posts to %s\n", n, env.cfg.DatabasePath)
			return nil
		},
	}
}
