package quota

import (
	"sync"
	"time"

	"github.com/crediview/policyhub/internal/application"
	"github.com/crediview/policyhub/internal/domain/analysis"
)

// DefaultDailyLimit caps provider calls per calendar day (cost control)
const DefaultDailyLimit = 100

// Meter tracks how many provider calls were made in the current day.
// The limit is soft: CheckAndReserve does not increment, so two concurrent
// requests can both pass when one slot remains. Acceptable, the quota is
// advisory.
type Meter struct {
	mu     sync.Mutex
	limit  int
	count  int
	window time.Time
	clock  application.Clock
}

// Stats is a snapshot of the current window
type Stats struct {
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"reset_time"`
}

func NewMeter(limit int, clock application.Clock) *Meter {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	if clock == nil {
		clock = application.SystemClock{}
	}
	m := &Meter{limit: limit, clock: clock}
	m.window = dayStart(clock.Now())
	return m
}

// CheckAndReserve fails once the day's budget is spent. It does not consume
// a slot; RecordUsage does, after the call actually reached the provider.
func (m *Meter) CheckAndReserve() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolloverLocked()
	if m.count >= m.limit {
		return analysis.ErrQuotaExceeded
	}
	return nil
}

// RecordUsage counts one attempted provider call
func (m *Meter) RecordUsage() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolloverLocked()
	m.count++
}

// Stats returns the current window snapshot
func (m *Meter) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolloverLocked()
	remaining := m.limit - m.count
	if remaining < 0 {
		remaining = 0
	}
	return Stats{
		Used:      m.count,
		Limit:     m.limit,
		Remaining: remaining,
		ResetTime: m.window.AddDate(0, 0, 1),
	}
}

// rolloverLocked lazily resets the counter when the date changed.
// No background timer; every access performs the check.
func (m *Meter) rolloverLocked() {
	today := dayStart(m.clock.Now())
	if !today.Equal(m.window) {
		m.count = 0
		m.window = today
	}
}

func dayStart(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
