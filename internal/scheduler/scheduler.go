// Package scheduler runs the bot's periodic jobs: the end-of-day operations
// summary and the state heartbeat pushed to dashboard clients.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"quotexbot/internal/gateway"
	"quotexbot/internal/model"
	"quotexbot/internal/notification"
	"quotexbot/internal/risk"

	"github.com/robfig/cron/v3"
)

// Publisher receives heartbeat events.
type Publisher interface {
	Publish(channel string, v any) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Store    model.StateStore
	Risk     *risk.Manager
	Notifier notification.Notifier
	Hub      Publisher
	Ctx      context.Context
}

// New creates a scheduler evaluating six-field (seconds) specs in UTC.
func New(ctx context.Context, store model.StateStore, rm *risk.Manager, n notification.Notifier, hub Publisher) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		Store:    store,
		Risk:     rm,
		Notifier: n,
		Hub:      hub,
		Ctx:      ctx,
	}
}

// RegisterAll registers the daily summary and the heartbeat. An empty spec
// disables that job.
func (s *Scheduler) RegisterAll(summarySpec, heartbeatSpec string) error {
	if summarySpec != "" {
		if _, err := s.Cron.AddFunc(summarySpec, s.dailySummary); err != nil {
			return fmt.Errorf("register daily summary: %w", err)
		}
	}
	if heartbeatSpec != "" {
		if _, err := s.Cron.AddFunc(heartbeatSpec, s.heartbeat); err != nil {
			return fmt.Errorf("register heartbeat: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[scheduler] started")
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[scheduler] stopped")
}

// dailySummary reports the closing day's operations and resets the budget.
func (s *Scheduler) dailySummary() {
	day, ops := s.Risk.CloseDay()

	ctx, cancel := context.WithTimeout(s.Ctx, 30*time.Second)
	defer cancel()

	cfg, err := s.Store.Get(ctx)
	if err != nil {
		log.Printf("[scheduler] daily summary: state unavailable: %v", err)
		return
	}
	state := "inactive"
	if cfg.Active {
		state = "active"
	}
	alert := notification.Alert{
		Level:   notification.AlertInfo,
		Title:   "Daily summary " + day,
		Message: fmt.Sprintf("%d of %d operations signalled; bot %s, capital %.2f", ops, cfg.MaxOperations, state, cfg.TotalCapital),
	}
	if err := s.Notifier.Send(ctx, alert); err != nil {
		log.Printf("[scheduler] daily summary delivery failed: %v", err)
	}
}

// heartbeat republishes the current state so idle dashboards stay current.
func (s *Scheduler) heartbeat() {
	ctx, cancel := context.WithTimeout(s.Ctx, 5*time.Second)
	defer cancel()

	cfg, err := s.Store.Get(ctx)
	if err != nil {
		log.Printf("[scheduler] heartbeat: state unavailable: %v", err)
		return
	}
	if err := s.Hub.Publish(gateway.ChannelState, cfg.Status()); err != nil {
		log.Printf("[scheduler] heartbeat publish failed: %v", err)
	}
}
