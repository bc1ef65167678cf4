package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"telebbs/internal/app/broadcast"
	"telebbs/internal/app/db"
	"telebbs/internal/app/repository"
	"telebbs/internal/app/session"
	"telebbs/internal/app/telnet"
	"telebbs/internal/configs"
	"telebbs/internal/handler"
	"telebbs/internal/pkg/limiter"
	"telebbs/internal/pkg/logx"
)

const shutdownTimeout = 5 * time.Second

var configPath string

var rootCmd = &cobra.Command{
	Use:   "telebbs",
	Short: "Multi-user terminal bulletin board served over telnet",
	Long: `telebbs serves a bulletin board with chat rooms, a people directory and
direct messages to any telnet client. A WebSocket endpoint runs the same
terminal sessions for browser clients.`,
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the telnet and HTTP servers (default)",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*configs.AppConfig, error) {
	cfg, err := configs.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("telnet_addr", cfg.TelnetAddr).
		Str("http_addr", cfg.HTTPAddr).
		Str("storage_driver", cfg.StorageDriver).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("Configuration loaded successfully")
	return cfg, nil
}

// openRepository returns the configured storage and a function that releases it.
func openRepository(ctx context.Context, cfg *configs.AppConfig) (repository.Repository, func(), error) {
	if cfg.StorageDriver == configs.DriverMemory {
		logx.Warn("Using in-memory storage. Data is lost on restart.")
		return repository.NewMemory(), func() {}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	repo := repository.NewPostgres(pool)
	// Nobody is connected yet, so presence left over from a crash is stale.
	if err := repo.ResetPresence(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to reset presence: %w", err)
	}
	return repo, pool.Close, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	hub := broadcast.NewHub()
	connLimiter := limiter.NewIPRateLimiter(rate.Limit(cfg.ConnectRate), cfg.ConnectBurst)
	opts := session.Options{ReadTimeout: cfg.ReadTimeout}

	telnetServer := telnet.NewServer(repo, hub, connLimiter, opts)
	telnetDone := make(chan error, 1)
	go func() {
		telnetDone <- telnetServer.ListenAndServe(ctx, cfg.TelnetAddr)
	}()

	var wsSessions sync.WaitGroup
	deps := &handler.AppDeps{
		Hub:            hub,
		Repo:           repo,
		Config:         cfg,
		Limiter:        connLimiter,
		SessionOptions: opts,
		Sessions:       &wsSessions,
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Router(deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	httpErr := make(chan error, 1)
	if cfg.HTTPAddr != "" {
		go func() {
			logx.Info(fmt.Sprintf("HTTP side-channel starting on %s", cfg.HTTPAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				httpErr <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logx.Info("Received shutdown signal. Starting graceful shutdown...")
	case err := <-telnetDone:
		if err != nil {
			runErr = fmt.Errorf("telnet server stopped: %w", err)
		}
		telnetDone <- nil
	case err := <-httpErr:
		runErr = fmt.Errorf("http server failed: %w", err)
	}
	stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "HTTP server forced to shutdown")
	}
	if err := <-telnetDone; err != nil {
		logx.Error(err, "Telnet server stopped with error")
	}
	wsSessions.Wait()

	hub.Shutdown()
	connLimiter.Stop()

	logx.Info("Server gracefully stopped.")
	return runErr
}
