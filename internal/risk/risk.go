// Package risk turns a signal into a suggested stake and enforces the bot's
// daily operation budget.
package risk

import (
	"log"
	"sync"
	"time"

	"quotexbot/internal/model"
)

// Zone classifies the market around a signal.
type Zone string

const (
	// ZoneSafe means no manipulation flag on the signalling bar.
	ZoneSafe Zone = "safe"
	// ZoneUnsafe means the bar's range exceeded the manipulation threshold.
	ZoneUnsafe Zone = "unsafe"
)

// Rejection reasons.
const (
	ReasonNoSignal   = "no signal"
	ReasonDailyLimit = "max daily operations reached"
)

// Decision is the outcome of evaluating one signal.
type Decision struct {
	Allowed         bool    `json:"allowed"`
	Reason          string  `json:"reason,omitempty"`
	Zone            Zone    `json:"zone"`
	RiskPct         float64 `json:"risk_pct"`
	Stake           float64 `json:"stake"`
	OperationsToday int     `json:"operations_today"`
	MaxOperations   int     `json:"max_operations"`
}

// Manager counts operations per UTC day.
type Manager struct {
	mu  sync.Mutex
	day string
	ops int
	now func() time.Time
}

// NewManager creates a manager with an empty budget for today.
func NewManager() *Manager {
	return &Manager{now: time.Now}
}

// Evaluate sizes the stake for snap under cfg and, when allowed, consumes one
// operation from today's budget. Unsafe zones risk RiskLow percent of capital,
// safe zones RiskHigh.
func (m *Manager) Evaluate(cfg model.BotConfig, snap model.Snapshot) Decision {
	d := Decision{
		Zone:          ZoneSafe,
		RiskPct:       cfg.RiskHigh,
		MaxOperations: cfg.MaxOperations,
	}
	if snap.Manipulation == 1 {
		d.Zone = ZoneUnsafe
		d.RiskPct = cfg.RiskLow
	}
	d.Stake = cfg.TotalCapital * d.RiskPct / 100

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollover()
	d.OperationsToday = m.ops

	switch {
	case !snap.BuySignal && !snap.SellSignal:
		d.Reason = ReasonNoSignal
	case m.ops >= cfg.MaxOperations:
		d.Reason = ReasonDailyLimit
	default:
		m.ops++
		d.OperationsToday = m.ops
		d.Allowed = true
	}
	return d
}

// OperationsToday returns the number of operations consumed today.
func (m *Manager) OperationsToday() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollover()
	return m.ops
}

// rollover resets the counter when the UTC date changes. Caller holds mu.
func (m *Manager) rollover() {
	today := m.now().UTC().Format(time.DateOnly)
	if today == m.day {
		return
	}
	if m.day != "" {
		log.Printf("[risk] new trading day %s, resetting %d operations", today, m.ops)
	}
	m.day = today
	m.ops = 0
}

// CloseDay reports the day being closed and its operation count, then starts
// a fresh budget. It runs at midnight, so it reads the counter before rolling
// over to the new date.
func (m *Manager) CloseDay() (day string, ops int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	today := m.now().UTC().Format(time.DateOnly)
	day, ops = m.day, m.ops
	if day == "" {
		day = today
	}
	m.day, m.ops = today, 0
	return day, ops
}
