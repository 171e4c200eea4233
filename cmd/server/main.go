package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindwell/internal/apperr"
	"mindwell/internal/config"
	"mindwell/internal/db"
	"mindwell/internal/handlers"
	"mindwell/internal/logging"
	"mindwell/internal/models"
	"mindwell/internal/risk"
	"mindwell/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "mindwell wellness API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the periodic risk sweep",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE:  runMigrate,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Classify stored messages that were never classified, then exit",
	RunE:  runSweep,
}

var grantRoleCmd = &cobra.Command{
	Use:   "grant-role <email> <role>",
	Short: "Set the role of an existing account, e.g. counselor or employer",
	Args:  cobra.ExactArgs(2),
	RunE:  runGrantRole,
}

var (
	sweepBatch        int
	grantOrganization string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "optional YAML config file")
	sweepCmd.Flags().IntVar(&sweepBatch, "batch", 0, "messages to classify (defaults to risk.sweep_batch)")
	grantRoleCmd.Flags().StringVar(&grantOrganization, "organization", "", "organization to attach (required for employer unless already set)")
	rootCmd.AddCommand(serveCmd, migrateCmd, sweepCmd, grantRoleCmd)
	// Running the binary with no subcommand starts the server.
	rootCmd.RunE = runServe
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sweeper := risk.NewSweeper(a.risk, cfg.Risk.SweepBatch, logger)
	if err := sweeper.Start(ctx, cfg.Risk.SweepSchedule); err != nil {
		return err
	}
	defer sweeper.Stop()

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handlers.NewRouter(handlers.Deps{
			Store:          a.store,
			Issuer:         a.issuer,
			Chat:           a.chat,
			Risk:           a.risk,
			Logger:         logger,
			WebhookSecret:  cfg.WebhookSecret,
			CORSOrigins:    cfg.CORSAllowOrigins,
			InsightsWindow: cfg.Insights.Window,
			Location:       cfg.Location(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.LLMTimeout() + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for migrate")
	}

	conn, err := store.OpenPostgres(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := db.RunMigrations(cmd.Context(), conn); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	logger.Info("migrations applied")
	return nil
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for sweep")
	}

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	batch := sweepBatch
	if batch <= 0 {
		batch = cfg.Risk.SweepBatch
	}
	n, err := risk.NewSweeper(a.risk, batch, logger).RunOnce(cmd.Context())
	if err != nil {
		return err
	}
	logger.Info("sweep finished", zap.Int("classified", n))
	return nil
}

func runGrantRole(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for grant-role")
	}

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := grantRole(cmd.Context(), a.store, args[0], args[1], grantOrganization)
	if err != nil {
		return err
	}
	org := ""
	if p.Organization != nil {
		org = *p.Organization
	}
	logger.Info("role granted", zap.String("user_id", p.ID), zap.String("role", string(p.Role)), zap.String("organization", org))
	return nil
}

func grantRole(ctx context.Context, profiles store.Profiles, email, roleArg, organization string) (models.Profile, error) {
	role, err := models.ParseRole(roleArg)
	if err != nil {
		return models.Profile{}, err
	}
	email = strings.TrimSpace(strings.ToLower(email))
	current, err := profiles.ProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.Profile{}, fmt.Errorf("no account with email %q", email)
		}
		return models.Profile{}, err
	}

	var org *string
	if v := strings.TrimSpace(organization); v != "" {
		org = &v
	}
	if role == models.RoleEmployer && org == nil && (current.Organization == nil || *current.Organization == "") {
		return models.Profile{}, errors.New("employer accounts need --organization")
	}
	return profiles.GrantRole(ctx, email, role, org)
}
