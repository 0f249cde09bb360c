package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shunichi-ikebuchi/ledger-posting/internal/api"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/accountcache"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/config"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-posting/pkg/posting"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the posting API over HTTP",
	Long: `Serve accounts, transactions, posting and the day book over HTTP.
Every /api/v1 request names its owner in the X-Owner-ID header.

Example:
  PORT=8080 ledger-posting serve`,
	Run: runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Setup structured JSON logging.
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate([]string{"ledger", "root"}, []string{"server", "port"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	daySource, err := posting.ParseDaySource(cfg.Posting.EntryDateSource)
	exitOnError(err, "invalid configuration")

	paths := newPathResolver(cfg)

	conn, err := db.Open(paths.GetDatabasePath())
	exitOnError(err, "failed to open database")
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()
	slog.Info("database initialized", "db_path", conn.GetPath())

	cache, err := accountcache.OpenOptional(paths.GetCachePath(), logger)
	exitOnError(err, "failed to open account cache")
	if cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				slog.Error("failed to close account cache", "error", err)
			}
		}()
	}

	router := api.NewRouter(api.Deps{
		Conn:      conn,
		Cache:     cache,
		DaySource: daySource,
		Logger:    logger,
	})

	// Start server.
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("starting ledger posting API", "addr", addr, "port", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("shutting down server")
		if err := server.Close(); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		exitOnError(err, "server error")
	}

	slog.Info("server stopped")
}
