package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/court-scheduler/internal/auth"
	"github.com/example/court-scheduler/internal/web"
	"github.com/spf13/cobra"
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the JSON API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			// Web sessions need Postgres for the users table and the
			// cookie key pair from the environment.
			if err := a.cfg.RequireDatabase(); err != nil {
				return err
			}
			if err := a.cfg.LoadServerKeys(); err != nil {
				return err
			}
			authStore := auth.NewStore(a.dbConn, a.cfg.CookieHashKey, a.cfg.CookieBlockKey)

			ws := &web.Server{
				Auth:       authStore,
				Aggregator: a.aggregator,
				Prefs:      a.prefs,
				Executor:   a.executor,
				Trainers:   a.trainers,
				Parser:     a.parser,
				Logger:     a.logger,
			}

			err = web.Start(ctx, a.cfg.ListenAddr, ws.Routes(), a.logger)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}
}
