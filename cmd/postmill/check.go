package main

import (
	"github.com/spf13/cobra"

	"github.com/eringen/postmill/integrity"
)

func checkCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run the integrity gate over datasets, exports and internal links",
		Long: `check is read-only. It fails when a post is unpublished, a slug is
duplicated, two exports share a canonical title, or a /blog/<slug> link in the
source tree points nowhere. Links that only resolve through a redirect are
reported as warnings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.load()
			if err != nil {
				return err
			}
			report, err := integrity.NewChecker(env.cfg, integrity.WithLogger(env.log)).Run(cmd.Context())
			if err != nil {
				return err
			}
			if err := report.Write(cmd.OutOrStdout()); err != nil {
				return err
			}
			if report.HasErrors() {
				return errFailed
			}
			return nil
		},
	}
}
