// Package api serves the bot's HTTP surface: the control page, the
// activation toggles, the state read and the market analysis endpoint.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"quotexbot/internal/gateway"
	"quotexbot/internal/indicator"
	"quotexbot/internal/metrics"
	"quotexbot/internal/model"
	"quotexbot/internal/notification"
	"quotexbot/internal/risk"

	gocache "github.com/patrickmn/go-cache"
)

// EventHub is the subset of gateway.Hub the handlers need.
type EventHub interface {
	Publish(channel string, v any) error
	HandleWS(w http.ResponseWriter, r *http.Request)
	ClientCount() int
}

// Deps are the collaborators of a Server. Only Store is required.
type Deps struct {
	Store        model.StateStore
	Pipeline     *indicator.Pipeline
	Hub          EventHub
	Notifier     notification.Notifier
	Metrics      *metrics.Metrics
	Risk         *risk.Manager
	SignalTTL    time.Duration // repeated identical signals inside this window alert once
	Logger       *slog.Logger
	AlertTimeout time.Duration
}

// Server owns the handlers and the background alert deliveries they start.
type Server struct {
	store        model.StateStore
	pipeline     *indicator.Pipeline
	hub          EventHub
	notifier     notification.Notifier
	metrics      *metrics.Metrics
	risk         *risk.Manager
	signals      *gocache.Cache
	log          *slog.Logger
	alertTimeout time.Duration
	started      time.Time

	alerts sync.WaitGroup
}

// NewServer fills in defaults for every optional dependency.
func NewServer(d Deps) *Server {
	s := &Server{
		store:        d.Store,
		pipeline:     d.Pipeline,
		hub:          d.Hub,
		notifier:     d.Notifier,
		metrics:      d.Metrics,
		risk:         d.Risk,
		log:          d.Logger,
		alertTimeout: d.AlertTimeout,
		started:      time.Now(),
	}
	if s.pipeline == nil {
		// DefaultParams always validates.
		s.pipeline, _ = indicator.NewPipeline(indicator.DefaultParams())
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.hub == nil {
		s.hub = gateway.NewHub()
	}
	if s.notifier == nil {
		s.notifier = notification.NewLogNotifier(s.log)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewMetrics()
	}
	if s.risk == nil {
		s.risk = risk.NewManager()
	}
	ttl := d.SignalTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	s.signals = gocache.New(ttl, 2*ttl)
	if s.alertTimeout <= 0 {
		s.alertTimeout = 15 * time.Second
	}
	return s
}

// Wait blocks until in-flight alert deliveries finish or ctx expires.
func (s *Server) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.alerts.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// alert delivers off the request path so a slow webhook never delays a response.
func (s *Server) alert(ctx context.Context, a notification.Alert) {
	traceAttrs := logAttrs(ctx)
	s.alerts.Add(1)
	go func() {
		defer s.alerts.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.alertTimeout)
		defer cancel()

		if err := s.notifier.Send(ctx, a); err != nil {
			s.metrics.AlertsSent.WithLabelValues("error").Inc()
			s.log.Warn("alert delivery failed", append(traceAttrs,
				slog.String("title", a.Title),
				slog.String("error", err.Error()))...)
			return
		}
		s.metrics.AlertsSent.WithLabelValues("ok").Inc()
	}()
}

func (s *Server) publish(ctx context.Context, channel string, v any) {
	if err := s.hub.Publish(channel, v); err != nil {
		s.log.Warn("event publish failed", append(logAttrs(ctx),
			slog.String("channel", channel),
			slog.String("error", err.Error()))...)
	}
}
