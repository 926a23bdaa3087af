package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dailybread/config"
	"dailybread/db"
	"dailybread/logging"
	"dailybread/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "dailybread",
		Short:        "Round-up giving backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load config from .env or the environment
			cfg = config.LoadConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}
			l, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	root.AddCommand(serveCmd(), migrateCmd(), grantRoleCmd(), settleCmd())
	return root
}

func serveCmd() *cobra.Command {
	var noMigrate, noWorker bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the settlement worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Run migrations (for Postgres)
			if cfg.DBType == "postgres" && !noMigrate {
				if err := db.RunMigrations(cfg.PostgresURL, cfg.MigrationsPath, db.Up); err != nil {
					return err
				}
				logger.Info("migrations applied")
			}

			app, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			workerDone := make(chan struct{})
			if noWorker {
				close(workerDone)
			} else {
				go func() {
					defer close(workerDone)
					app.Settler.Run(ctx, cfg.SettleInterval)
				}()
			}

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           app.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				logger.Info("server running", zap.String("port", cfg.Port))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				if err != nil {
					stop()
					<-workerDone
					return err
				}
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown failed", zap.Error(err))
			}
			<-workerDone
			return nil
		},
	}
	cmd.Flags().BoolVar(&noMigrate, "no-migrate", false, "skip migrations on startup")
	cmd.Flags().BoolVar(&noWorker, "no-worker", false, "do not run the settlement worker")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the Postgres schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(db.Up), string(db.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DBType != "postgres" {
				return fmt.Errorf("migrations only apply to DB_TYPE=postgres")
			}
			dir := db.Direction(args[0])
			if err := db.RunMigrations(cfg.PostgresURL, cfg.MigrationsPath, dir); err != nil {
				return err
			}
			fmt.Printf("Migrations %s complete\n", dir)
			return nil
		},
	}
}

func grantRoleCmd() *cobra.Command {
	var email, role, church string
	cmd := &cobra.Command{
		Use:   "grant-role",
		Short: "Give an account the church_admin or platform_admin role",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			ur, err := app.Admin.GrantRole(cmd.Context(), 0, email, models.Role(role), church)
			if err != nil {
				return err
			}
			fmt.Printf("Granted %s to %s\n", ur.Role, email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&role, "role", "", "church_admin or platform_admin")
	cmd.Flags().StringVar(&church, "church", "", "church slug (church_admin only)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func settleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settle",
		Short: "Charge one batch of pending donations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Settler.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("completed=%d retrying=%d failed=%d\n", res.Completed, res.Retrying, res.Failed)
			return nil
		},
	}
}
