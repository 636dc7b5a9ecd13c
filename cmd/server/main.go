package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"medplant/internal/app"
	"medplant/internal/platform/config"
	"medplant/internal/platform/logger"
	"medplant/internal/platform/postgres"
	authmw "medplant/pkg/platform/middleware/auth"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "medplant",
		Short:        "Plant-scoped hospital records API",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file (env MEDPLANT_* overrides it)")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(tokenCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, audit worker and rate window sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				log.Error("failed to start", "error", err)
				return err
			}
			defer a.Close()

			log.Info("starting medplant",
				"addr", cfg.Server.Addr,
				"env", cfg.Env,
				"postgres", cfg.UsesPostgres(),
				"redis", cfg.UsesRedis(),
			)
			if err := a.Run(ctx); err != nil {
				log.Error("server stopped with error", "error", err)
				return err
			}
			log.Info("medplant stopped")
			return nil
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if !cfg.UsesPostgres() {
				return errors.New("database.url is not set")
			}

			ctx := cmd.Context()
			db, err := postgres.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			count, err := postgres.NewMigrator(db.Pool).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
}

func tokenCmd(configPath *string) *cobra.Command {
	var (
		fullName string
		role     string
		plant    int64
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <username>",
		Short: "Issue an access token signed with the configured key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}

			claims := authmw.Claims{Name: args[0], FullName: fullName, Role: role}
			if cmd.Flags().Changed("plant") {
				claims.PlantID = &plant
			}
			tok, err := authmw.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer).Issue(claims, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name recorded in audit entries")
	cmd.Flags().StringVar(&role, "role", "", "role claim, e.g. admin")
	cmd.Flags().Int64Var(&plant, "plant", 0, "plant claim, used when the user has no stored row")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	return cmd
}
