package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"guidehub/internal/data/repository"
	"guidehub/internal/gateway"
	"guidehub/internal/usecase"
	"guidehub/internal/wire"
	"guidehub/pkg/database"
	"guidehub/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout        = 15 * time.Second
	sessionCleanupInterval = time.Hour
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if err := checkSecrets(config); err != nil {
				return err
			}

			logger.Info("Starting application",
				zap.String("app", config.App.Name),
				zap.String("port", config.App.Port),
				zap.Bool("debug", config.App.Debug),
			)

			db, err := database.InitDB(config.Database)
			if err != nil {
				logger.Error("Failed to connect to database", zap.Error(err))
				return err
			}
			defer db.Close()

			logger.Info("Database connected successfully")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if migrate {
				if _, err := database.Migrate(ctx, config.Database, logger); err != nil {
					return err
				}
			}

			repos := repository.NewRepository(db, logger)
			tokens := utils.NewTokenManager(config.JWT)
			gw := gateway.NewStripeGateway(&config.Payment, logger)

			app := wire.Wiring(repos, config, gw, tokens, logger)

			return run(ctx, app, config.App.Port, logger)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

// run serves until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, app *wire.App, port string, logger *zap.Logger) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		cleanSessions(ctx, app.Service.Auth, logger)
		return nil
	})

	return g.Wait()
}

func cleanSessions(ctx context.Context, auth usecase.AuthService, logger *zap.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := auth.CleanupSessions(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("Session cleanup failed", zap.Error(err))
			}
		}
	}
}

func checkSecrets(config *utils.Config) error {
	switch {
	case config.JWT.Secret == "":
		return errors.New("JWT_SECRET is required")
	case config.Payment.SecretKey == "":
		return errors.New("STRIPE_SECRET_KEY is required")
	case config.Payment.WebhookSecret == "":
		return errors.New("STRIPE_WEBHOOK_SECRET is required")
	}
	return nil
}
