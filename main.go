package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/config"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/database"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/poller"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/push"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/server"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/services"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/taskcache"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/upstream"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "hotelpark",
		Short:         "Maintenance task server and dashboard agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(agentCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(previewCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the task API, push hub and recurring task generator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			if _, err := database.Migrate(db); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := push.NewHub()
			srv, processor := server.NewAPI(db, cfg, hub)

			go runRecurringProcessor(ctx, processor, cfg.RecurringInterval)

			return srv.Start(ctx)
		},
	}
}

func agentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agent",
		Short: "Run the cached task view for dashboards",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := upstream.NewClient(cfg.UpstreamURL, cfg.RequestTimeout)
			store := taskcache.NewStore(nil)
			taskPoller := poller.New(client, store, cfg.PollInterval)
			store.SetRefetcher(taskPoller)
			subscriber := push.NewSubscriber(cfg.PushURL, store, cfg.HydrationDelay)

			go taskPoller.Run(ctx)
			go subscriber.Run(ctx)

			slog.Info("agent connected to task api", "upstream", cfg.UpstreamURL, "push", cfg.PushURL)
			return server.NewAgent(cfg, store, client).Start(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			applied, err := database.Migrate(db)
			if err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		},
	}
}

func runRecurringProcessor(ctx context.Context, processor *services.RecurringProcessor, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := processor.ProcessAll(ctx); err != nil {
			slog.Error("processing recurring tasks", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
