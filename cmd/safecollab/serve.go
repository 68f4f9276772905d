package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safecollab/safecollab/internal/api"
	"github.com/safecollab/safecollab/internal/database"
	"github.com/safecollab/safecollab/internal/group"
	"github.com/safecollab/safecollab/internal/membership"
	"github.com/safecollab/safecollab/internal/metrics"
	"github.com/safecollab/safecollab/internal/ratelimit"
	"github.com/safecollab/safecollab/internal/record"
	"github.com/safecollab/safecollab/internal/user"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SafeCollab API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	slog.Info("connected to database")

	m := metrics.New()
	m.RegisterDBPoolCollector(func() (int32, int32, int32) {
		s := pool.Stat()
		return s.TotalConns(), s.IdleConns(), s.AcquiredConns()
	})

	userStore := user.NewStore(pool, cfg.Auth.BcryptCost, cfg.Auth.SessionTTL)
	membershipStore := membership.NewStore(pool)

	limiter := ratelimit.New(cfg.Auth.RateLimit, cfg.Auth.Burst, time.Minute)
	limiter.StartCleanup(5 * time.Minute)
	defer limiter.Stop()

	router := api.NewRouter(api.RouterDeps{
		DBPool:      pool,
		Users:       userStore,
		Sessions:    user.NewAuthAdapter(userStore),
		Memberships: membershipStore,
		Groups:      group.NewService(group.NewStore(pool), cfg.RecordPolicy()),
		Members: membership.NewService(membershipStore, userStore,
			membership.WithAdminPolicy(cfg.AdminPolicy()),
			membership.WithObserver(m.ObserveMembershipMutation),
		),
		Records:        record.NewService(record.NewStore(pool)),
		AuthLimiter:    limiter,
		Metrics:        m,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxBodySize:    cfg.Server.MaxRequestSize,
		TrustProxy:     cfg.Server.TrustProxy,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting",
			"addr", cfg.Addr(),
			"record_policy", cfg.RecordPolicy(),
			"admin_policy", cfg.AdminPolicy(),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}
