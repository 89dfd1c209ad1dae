package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eringen/postmill/acceptance"
)

func acceptanceCmd(opts *options) *cobra.Command {
	var (
		baseURL     string
		targetsPath string
	)
	cmd := &cobra.Command{
		Use:   "acceptance",
		Short: "Assert status, redirect and SEO metadata behavior of the preview server",
		Long: `acceptance starts the preview server in-process on POSTMILL_TEST_PORT
(default 4173) against a throwaway database and checks every route in the
target table. Pass --base-url to test an already running server instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.load()
			if err != nil {
				return err
			}
			if targetsPath == "" {
				targetsPath = env.cfg.AcceptancePath
			}
			targets, err := acceptance.LoadTargets(targetsPath)
			if err != nil {
				return err
			}

			if baseURL == "" {
				port := env.viper.GetInt("test_port")
				ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
				if err != nil {
					return fmt.Errorf("listen on test port %d: %w", port, err)
				}
				tmp, err := os.MkdirTemp("", "postmill-acceptance-")
				if err != nil {
					ln.Close()
					return err
				}
				defer os.RemoveAll(tmp)

				srv, err := startPreview(env, filepath.Join(tmp, "preview.db"), ln)
				if err != nil {
					return err
				}
				defer func() {
					if err := srv.stop(); err != nil {
						env.log.Warn().Err(err).Msg("preview shutdown")
					}
				}()
				baseURL = "http://" + ln.Addr().String()
			}

			runner := acceptance.NewRunner(acceptance.WithLogger(env.log))
			result, err := runner.Run(cmd.Context(), baseURL, targets)
			if err != nil {
				return err
			}
			if err := result.Write(cmd.OutOrStdout()); err != nil {
				return err
			}
			if !result.Passed() {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "test a running server instead of starting one")
	cmd.Flags().StringVar(&targetsPath, "targets", "", "target table (default from config, data/seo-targets.yaml)")
	return cmd
}
