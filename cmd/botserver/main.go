package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quotexbot/config"
	"quotexbot/internal/api"
	"quotexbot/internal/botstate"
	"quotexbot/internal/gateway"
	"quotexbot/internal/indicator"
	"quotexbot/internal/logger"
	"quotexbot/internal/metrics"
	"quotexbot/internal/notification"
	"quotexbot/internal/risk"
	"quotexbot/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.Init("botserver", logger.ParseLevel(cfg.LogLevel))
	log.Info("starting", "addr", cfg.Addr(), "backend", cfg.StateBackend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics()
	notifier := buildNotifier(cfg, log)

	breaker := botstate.NewCircuitBreaker(cfg.BreakerFailures, cfg.BreakerReset)
	breaker.OnStateChange = breakerHook(m, notifier, log)

	openCtx, cancelOpen := context.WithTimeout(ctx, 10*time.Second)
	store, err := botstate.Open(openCtx, botstate.Options{
		Backend: cfg.StateBackend,
		Initial: cfg.Bot,
		Redis: botstate.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		SQLitePath: cfg.SQLitePath,
		Breaker:    breaker,
	})
	cancelOpen()
	if err != nil {
		log.Error("state store unavailable", "backend", cfg.StateBackend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if current, err := store.Get(ctx); err == nil {
		m.SetActive(current.Active)
		log.Info("bot state loaded", "active", current.Active, "capital", current.TotalCapital)
	}

	pipeline, err := indicator.NewPipeline(cfg.Indicators)
	if err != nil {
		log.Error("invalid indicator settings", "error", err)
		os.Exit(1)
	}

	hub := gateway.NewHub()
	hub.OnClientCount = func(n int) { m.WSClients.Set(float64(n)) }
	hub.OnDrop = m.WSDroppedFrames.Inc

	riskMgr := risk.NewManager()

	srv := api.NewServer(api.Deps{
		Store:     store,
		Pipeline:  pipeline,
		Hub:       hub,
		Notifier:  notifier,
		Metrics:   m,
		Risk:      riskMgr,
		SignalTTL: cfg.SignalDedupTTL,
		Logger:    log,
	})

	sched := scheduler.New(ctx, store, riskMgr, notifier, hub)
	if err := sched.RegisterAll(cfg.SummaryCron, cfg.HeartbeatCron); err != nil {
		log.Error("invalid job schedule", "error", err)
		os.Exit(1)
	}
	sched.Start()

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(srv),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving", "url", "http://"+cfg.Addr())
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		log.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	shutdown(shutdownCtx, log, sched, httpSrv, hub, srv)
	log.Info("stopped")
}

// shutdown stops the components in dependency order. The HTTP server stops
// accepting requests and upgrades before the hub drops its sockets, and alert
// delivery is drained last.
func shutdown(ctx context.Context, log *slog.Logger,
	sched interface{ Stop() },
	httpSrv interface{ Shutdown(context.Context) error },
	hub interface{ Close() },
	alerts interface{ Wait(context.Context) error },
) {
	sched.Stop()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	hub.Close()
	if err := alerts.Wait(ctx); err != nil {
		log.Warn("pending alerts abandoned", "error", err)
	}
}

// breakerHook mirrors breaker transitions into metrics and raises a critical
// alert when the state store becomes unreachable. The breaker calls it with its
// lock held, so delivery happens on its own goroutine.
func breakerHook(m *metrics.Metrics, n notification.Notifier, log *slog.Logger) func(from, to botstate.BreakerState) {
	return func(from, to botstate.BreakerState) {
		m.BreakerState.Set(float64(to))
		log.Warn("state store circuit breaker", "from", from.String(), "to", to.String())

		var alert notification.Alert
		switch to {
		case botstate.BreakerOpen:
			m.BreakerTrips.Inc()
			alert = notification.Alert{
				Level:   notification.AlertCritical,
				Title:   "State store unavailable",
				Message: "circuit breaker opened; toggles and status reads are failing",
			}
		case botstate.BreakerClosed:
			alert = notification.Alert{
				Level:   notification.AlertInfo,
				Title:   "State store recovered",
				Message: "circuit breaker closed after a successful trial call",
			}
		default:
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := n.Send(ctx, alert); err != nil {
				log.Warn("breaker alert delivery failed", "error", err)
			}
		}()
	}
}

// buildNotifier always logs alerts and adds the webhook and Telegram
// channels when they are configured.
func buildNotifier(cfg *config.Config, log *slog.Logger) notification.Notifier {
	opts := notification.PosterOptions{PerMinute: cfg.AlertRatePerMin}
	notifiers := notification.Multi{notification.NewLogNotifier(log)}
	if cfg.AlertWebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.AlertWebhookURL, opts))
		log.Info("webhook alerts enabled")
	}
	if cfg.TelegramBotToken != "" {
		notifiers = append(notifiers, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, opts))
		log.Info("telegram alerts enabled")
	}
	return notifiers
}
