package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/postmill"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Publish the current posts and run the preview server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				env.cfg.Addr = addr
			}
			ln, err := net.Listen("tcp", env.cfg.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", env.cfg.Addr, err)
			}
			srv, err := startPreview(env, env.cfg.DatabasePath, ln)
			if err != nil {
				return err
			}
			select {
			case <-cmd.Context().Done():
				return srv.stop()
			case err := <-srv.done:
				srv.store.Close()
				return err
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, \":4173\")")
	return cmd
}

// preview is a running in-process preview server.
type preview struct {
	app   *postmill.App
	store *postmill.Store
	done  chan error
}

// startPreview publishes the datasets into the database at dbPath and
// serves them on ln until stop is called.
func startPreview(env *env, dbPath string, ln net.Listener) (*preview, error) {
	store, err := postmill.NewStore(dbPath)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	n, err := postmill.Publish(store, env.cfg)
	if err != nil {
		store.Close()
		ln.Close()
		return nil, err
	}
	redirects, err := postmill.LoadRedirects(env.cfg.RedirectsPath)
	if err != nil {
		store.Close()
		ln.Close()
		return nil, err
	}

	app := postmill.New(env.cfg, store,
		postmill.WithLogger(env.log),
		postmill.WithRedirects(redirects),
	)
	app.Echo.Listener = ln

	p := &preview{app: app, store: store, done: make(chan error, 1)}
	go func() {
		p.done <- app.Start()
	}()
	env.log.Info().
		Int("posts", n).
		Int("redirects", len(redirects)).
		Str("addr", ln.Addr().String()).
		Msg("preview server started")
	return p, nil
}

func (p *preview) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := p.app.Shutdown(ctx)
	if serveErr := <-p.done; serveErr != nil {
		err = errors.Join(err, serveErr)
	}
	if closeErr := p.store.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	return err
}
