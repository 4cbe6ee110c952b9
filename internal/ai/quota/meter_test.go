package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crediview/policyhub/internal/domain/analysis"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestMeter_AllowsUnderLimit(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	m := NewMeter(3, clock)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.CheckAndReserve())
		m.RecordUsage()
	}

	err := m.CheckAndReserve()
	assert.ErrorIs(t, err, analysis.ErrQuotaExceeded)
}

func TestMeter_ResetsOnDayRollover(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 23, 50, 0, 0, time.UTC)}
	m := NewMeter(2, clock)

	m.RecordUsage()
	m.RecordUsage()
	require.ErrorIs(t, m.CheckAndReserve(), analysis.ErrQuotaExceeded)

	// Cross midnight: the counter resets lazily on the next access
	clock.now = clock.now.Add(20 * time.Minute)
	require.NoError(t, m.CheckAndReserve())

	stats := m.Stats()
	assert.Equal(t, 0, stats.Used)
	assert.Equal(t, 2, stats.Remaining)
}

func TestMeter_Stats(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	m := NewMeter(100, clock)

	m.RecordUsage()
	m.RecordUsage()

	stats := m.Stats()
	assert.Equal(t, 2, stats.Used)
	assert.Equal(t, 100, stats.Limit)
	assert.Equal(t, 98, stats.Remaining)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), stats.ResetTime)
}

func TestMeter_DefaultsApplied(t *testing.T) {
	m := NewMeter(0, nil)
	assert.Equal(t, DefaultDailyLimit, m.Stats().Limit)
}
