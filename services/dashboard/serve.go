package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/backend"
	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/config"
	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/db"
	httpserver "github.com/02loveslollipop/edificios-dashboard/services/dashboard/http"
	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		source, closeSource, err := metricsSource(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "serve")
		}
		defer closeSource()

		client := newBackendClient(cfg)
		deps := httpserver.Deps{
			Metrics:  source,
			Espacios: client,
			Guard: session.NewGuard(client, session.Config{
				LoginPath:       cfg.LoginPath,
				RegisterPath:    cfg.RegisterPath,
				RedirectOnError: cfg.RedirectOnError,
			}),
		}
		if pinger, ok := source.(httpserver.Pinger); ok {
			deps.DB = pinger
		}

		srv := httpserver.New(cfg, deps)
		zap.L().Info("dashboard API listening",
			zap.String("addr", cfg.ListenAddr()),
			zap.String("backend", cfg.BackendURL),
			zap.Bool("database", deps.DB != nil),
		)

		return srv.Run(ctx)
	},
}

func newBackendClient(c config.Config) *backend.Client {
	return backend.New(backend.Options{
		BaseURL:            c.BackendURL,
		CookieName:         c.CookieName,
		RotatedTokenHeader: c.RotatedTokenHeader,
	})
}

// metricsSource picks the database when one is configured, otherwise the
// backend API.
func metricsSource(ctx context.Context, c config.Config) (httpserver.MetricsSource, func(), error) {
	if c.DatabaseURL == "" {
		return newBackendClient(c), func() {}, nil
	}
	store, err := db.New(ctx, c.DatabaseURL)
	if err != nil {
		return nil, nil, eris.Wrap(err, "connect database")
	}
	return store, store.Close, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
