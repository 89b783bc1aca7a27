package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"quotexbot/internal/gateway"
	"quotexbot/internal/model"
	"quotexbot/internal/notification"
	"quotexbot/internal/risk"

	gocache "github.com/patrickmn/go-cache"
)

// analysisEvent is what the bot:analysis channel carries. Risk is set only
// when a signal was evaluated for an active bot.
type analysisEvent struct {
	Bars     int            `json:"bars"`
	Snapshot model.Snapshot `json:"snapshot"`
	Risk     *risk.Decision `json:"risk,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Backend   string `json:"backend"`
	StoreOK   bool   `json:"store_ok"`
	WSClients int    `json:"ws_clients"`
	UptimeSec int64  `json:"uptime_sec"`
	TS        string `json:"ts"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, body)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, indexPage)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.Get(r.Context())
	if err != nil {
		s.storeFailure(w, r, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg.Status())
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, true)
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, false)
}

// toggle sets the active flag. Repeating a call is harmless: the flag is
// assigned, not flipped.
func (s *Server) toggle(w http.ResponseWriter, r *http.Request, active bool) {
	ctx := r.Context()
	cfg, err := s.store.SetActive(ctx, active)
	if err != nil {
		s.storeFailure(w, r, "set_active", err)
		return
	}
	s.metrics.SetActive(cfg.Active)
	s.publish(ctx, gateway.ChannelState, cfg.Status())

	title, fragment := "Bot deactivated", deactivatedFragment
	if active {
		title, fragment = "Bot activated", activatedFragment
	}
	s.log.Info("bot state changed", append(logAttrs(ctx),
		slog.Bool("active", cfg.Active),
		slog.String("backend", s.store.Backend()))...)
	s.alert(ctx, notification.Alert{
		Level:   notification.AlertInfo,
		Title:   title,
		Message: fmt.Sprintf("capital %.2f, max %d operations per day", cfg.TotalCapital, cfg.MaxOperations),
	})

	writeHTML(w, fragment)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bars, err := decodeBars(w, r)
	if err != nil {
		reason := "malformed"
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			reason = vErr.Reason
		}
		s.metrics.RejectedTotal.WithLabelValues(reason).Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	snap, err := s.pipeline.Latest(bars)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.metrics.AnalyzeDur.Observe(time.Since(start).Seconds())
	s.metrics.AnalysesTotal.Inc()
	s.metrics.BarsAnalyzed.Observe(float64(len(bars)))
	if snap.BuySignal {
		s.metrics.SignalsTotal.WithLabelValues("buy").Inc()
	}
	if snap.SellSignal {
		s.metrics.SignalsTotal.WithLabelValues("sell").Inc()
	}

	event := analysisEvent{Bars: len(bars), Snapshot: snap}
	if snap.BuySignal || snap.SellSignal {
		event.Risk = s.signalAlert(ctx, snap)
	}
	s.publish(ctx, gateway.ChannelAnalysis, event)

	writeJSON(w, http.StatusOK, []model.Snapshot{snap})
}

// signalAlert notifies only while the bot is active and today's operation
// budget allows it. A store failure here must not fail the analysis, so it is
// logged and the alert skipped.
func (s *Server) signalAlert(ctx context.Context, snap model.Snapshot) *risk.Decision {
	cfg, err := s.store.Get(ctx)
	if err != nil {
		s.metrics.StoreErrors.Inc()
		s.metrics.SignalsHeld.WithLabelValues("state_unavailable").Inc()
		s.log.Warn("signal alert skipped: state unavailable", append(logAttrs(ctx),
			slog.String("error", err.Error()))...)
		return nil
	}
	if !cfg.Active {
		s.metrics.SignalsHeld.WithLabelValues("inactive").Inc()
		return nil
	}

	if err := s.signals.Add(signalKey(snap), struct{}{}, gocache.DefaultExpiration); err != nil {
		s.metrics.SignalsHeld.WithLabelValues("duplicate").Inc()
		return nil
	}

	dec := s.risk.Evaluate(cfg, snap)
	if !dec.Allowed {
		s.metrics.SignalsHeld.WithLabelValues("daily_limit").Inc()
		s.log.Info("signal alert held", append(logAttrs(ctx),
			slog.String("reason", dec.Reason),
			slog.Int("operations_today", dec.OperationsToday))...)
		return &dec
	}

	side := "Sell"
	if snap.BuySignal {
		side = "Buy"
	}
	msg := fmt.Sprintf("close %.5f", snap.Close)
	if snap.RSI != nil {
		msg += fmt.Sprintf(", RSI %.2f", *snap.RSI)
	}
	if snap.Support != nil && snap.Resistance != nil {
		msg += fmt.Sprintf(", support %.5f, resistance %.5f", *snap.Support, *snap.Resistance)
	}
	msg += fmt.Sprintf("; %s zone, stake %.2f (%.1f%%), operation %d/%d",
		dec.Zone, dec.Stake, dec.RiskPct, dec.OperationsToday, dec.MaxOperations)
	s.alert(ctx, notification.Alert{
		Level:   notification.AlertWarning,
		Title:   side + " signal",
		Message: msg,
	})
	return &dec
}

// signalKey identifies a signal by its side and bar, so a client re-posting the
// same series does not alert twice.
func signalKey(snap model.Snapshot) string {
	side := "sell"
	if snap.BuySignal {
		side = "buy"
	}
	return fmt.Sprintf("%s|%s|%g|%g|%g|%g", side, snap.Column("time"), snap.Open, snap.High, snap.Low, snap.Close)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Backend:   s.store.Backend(),
		StoreOK:   true,
		WSClients: s.hub.ClientCount(),
		UptimeSec: int64(time.Since(s.started).Seconds()),
		TS:        time.Now().UTC().Format(time.RFC3339Nano),
	}
	status := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.StoreOK = false
		status = http.StatusServiceUnavailable
		s.log.Warn("health: state store unreachable", append(logAttrs(r.Context()),
			slog.String("error", err.Error()))...)
	}
	writeJSON(w, status, resp)
}

func (s *Server) storeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.metrics.StoreErrors.Inc()
	s.log.Error("state store failure", append(logAttrs(r.Context()),
		slog.String("op", op),
		slog.String("backend", s.store.Backend()),
		slog.String("error", err.Error()))...)
	writeError(w, http.StatusInternalServerError, "bot state unavailable")
}
