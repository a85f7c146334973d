package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/admitq/queue-kiosk/internal/admin"
	"github.com/admitq/queue-kiosk/internal/announce"
	"github.com/admitq/queue-kiosk/internal/api"
	"github.com/admitq/queue-kiosk/internal/applicant"
	"github.com/admitq/queue-kiosk/internal/audio"
	"github.com/admitq/queue-kiosk/internal/config"
	"github.com/admitq/queue-kiosk/internal/console"
	"github.com/admitq/queue-kiosk/internal/display"
	"github.com/admitq/queue-kiosk/internal/events"
	"github.com/admitq/queue-kiosk/internal/httpapi"
	"github.com/admitq/queue-kiosk/internal/observability"
	"github.com/admitq/queue-kiosk/internal/session"
	"github.com/admitq/queue-kiosk/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty, cfg.LogFile, cfg.LogMaxSizeMB)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("mode", cfg.Mode).
		Str("api_base_url", cfg.APIBaseURL).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Queue kiosk starting")

	// Shared key-value store; every surface on this machine points at it.
	st, err := store.Open(cfg.StorePath, cfg.StoreInMemory, observability.WithComponent("store"))
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.StorePath).Msg("Failed to open store")
	}
	defer st.Close()

	sess := session.New(st, cfg.Language, observability.WithComponent("session"))

	client := api.NewClient(
		cfg.APIBaseURL,
		time.Duration(cfg.APITimeout)*time.Second,
		sess,
		observability.WithComponent("api"),
	)

	bus := events.NewBus()

	player, err := audio.NewExecPlayer(cfg.PlayerCommand)
	if err != nil {
		logger.Fatal().Err(err).Str("command", cfg.PlayerCommand).Msg("Invalid player command")
	}

	// Each surface gets its own channel handle with its own origin, the way
	// separate kiosk processes would. The self-origin filter then keeps a
	// surface from replaying its own announcements while siblings, in this
	// process or another, still receive them.
	newChannel := func() *announce.Channel {
		return announce.NewChannel(st, observability.WithComponent("announce"),
			announce.WithHistory(cfg.DedupHistory),
			announce.WithDebounce(cfg.StatusDebounce),
		)
	}

	deps := httpapi.Deps{
		Mode:        cfg.Mode,
		Bus:         bus,
		Session:     sess,
		Auth:        client.Login,
		Register:    client.Register,
		Applicant:   applicant.New(client, st, bus, observability.WithComponent("applicant")),
		ReadyChecks: map[string]observability.HealthCheckFunc{},
		Metrics:     cfg.MetricsEnabled,
		Log:         observability.WithComponent("http"),
	}

	deps.ReadyChecks["store"] = func(ctx context.Context) (bool, error) {
		if err := st.Put("readiness_probe", []byte("ok")); err != nil {
			return false, err
		}
		return true, nil
	}
	deps.ReadyChecks["backend"] = func(ctx context.Context) (bool, error) {
		if _, err := client.QueueCount(ctx); err != nil {
			return false, err
		}
		return true, nil
	}

	// Surface wiring per kiosk mode.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Mode == "display" || cfg.Mode == "both" {
		channel := newChannel()
		playback := audio.NewPlayback(player, channel, observability.WithComponent("audio"))
		board := display.New(client, channel, playback, bus, display.Options{
			QueueInterval: cfg.DisplayPollInterval,
			VideoInterval: cfg.StatusPollInterval,
		}, observability.WithComponent("display"))
		board.Start()
		defer board.Stop()
		deps.Board = board
		logger.Info().Msg("Display board started")
	}

	if cfg.Mode == "console" || cfg.Mode == "both" {
		channel := newChannel()
		playback := audio.NewPlayback(player, channel, observability.WithComponent("audio"))
		cons := console.New(client, channel, playback, bus, console.Options{
			AutoCallDelay:      cfg.AutoCallDelay,
			CompleteCallDelay:  cfg.CompleteCallDelay,
			QueuePollInterval:  cfg.QueuePollInterval,
			StatusPollInterval: cfg.StatusPollInterval,
			SearchDebounce:     cfg.SearchDebounce,
		}, observability.WithComponent("console"))
		if sess.LoggedIn() {
			if err := cons.Sync(ctx); err != nil {
				logger.Warn().Err(err).Msg("Failed to sync work status, starting offline")
			}
			cons.StartPolling()
		}
		defer cons.Close()
		deps.Console = cons

		panel := admin.New(client, st, bus, admin.Options{
			PollInterval:   cfg.QueuePollInterval,
			SearchDebounce: cfg.SearchDebounce,
		}, observability.WithComponent("admin"))
		panel.Start()
		defer panel.Stop()
		deps.Admin = panel
		logger.Info().Msg("Staff console started")
	}

	router := httpapi.NewRouter(deps)
	server := httpapi.Server(":"+cfg.Port, router)

	// Start server in a goroutine
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
