package rmge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCostTracker_Track_AppliesMinimumCostFloorForKnownProviders(t *testing.T) {
	ct := NewCostTracker(zap.NewNop())

	cost := ct.Track("u1", "primary", 1, 1)

	rates := defaultProviderRates()["primary"]
	assert.GreaterOrEqual(t, cost, rates.MinimumCostCents)
}

func TestCostTracker_Track_ScalesWithTokenVolumeAbovePrimaryFloor(t *testing.T) {
	ct := NewCostTracker(zap.NewNop())

	small := ct.Track("u1", "primary", 10, 10)
	large := ct.Track("u2", "primary", 10000, 10000)

	assert.Greater(t, large, small)
}

func TestCostTracker_Track_FallbackProviderUsesItsOwnRateTable(t *testing.T) {
	ct := NewCostTracker(zap.NewNop())

	cost := ct.Track("u1", "fallback", 10000, 10000)

	rates := defaultProviderRates()["fallback"]
	expected := float64(10000)/1000*rates.InputTokenRateCents + float64(10000)/1000*rates.OutputTokenRateCents + rates.RequestBaseCostCents
	assert.InDelta(t, expected, cost, 0.0001)
}

func TestCostTracker_Estimate_UnknownProviderReturnsZero(t *testing.T) {
	ct := NewCostTracker(zap.NewNop())

	cost := ct.estimate("unknown-provider", 500, 500)

	assert.Equal(t, float64(0), cost)
}

func TestCostTracker_Track_UnknownProviderStillRecordsZeroCostAgainstUser(t *testing.T) {
	ct := NewCostTracker(zap.NewNop())

	ct.Track("u1", "unknown-provider", 500, 500)

	spend, ok := ct.UserSpend("u1")
	require.True(t, ok)
	assert.Equal(t, float64(0), spend.TotalSpendCents)
	assert.Equal(t, int64(1), spend.RequestCount)
}

func TestCostTracker_UserSpend_AccumulatesAcrossMultipleCalls(t *testing.T) {
	ct := NewCostTracker(zap.NewNop())

	ct.Track("u1", "primary", 1000, 1000)
	ct.Track("u1", "primary", 1000, 1000)

	spend, ok := ct.UserSpend("u1")
	require.True(t, ok)
	assert.Equal(t, int64(2), spend.RequestCount)
	assert.Equal(t, int64(4000), spend.TokensUsed)
	assert.InDelta(t, spend.TotalSpendCents, spend.DailySpendCents, 0.0001)
}

func TestCostTracker_UserSpend_UnknownUserReturnsFalse(t *testing.T) {
	ct := NewCostTracker(zap.NewNop())

	_, ok := ct.UserSpend("nobody")

	assert.False(t, ok)
}

func TestCostTracker_DailyAndMonthlySpend_TrackAcrossUsers(t *testing.T) {
	ct := NewCostTracker(zap.NewNop())

	ct.Track("u1", "primary", 1000, 1000)
	ct.Track("u2", "fallback", 1000, 1000)

	daily := ct.DailySpendCents()
	monthly := ct.MonthlySpendCents()

	assert.Greater(t, daily, float64(0))
	assert.Equal(t, daily, monthly)
}

func TestCostTracker_ResetIfStale_ZeroesDailyTotalPastDayBoundary(t *testing.T) {
	ct := NewCostTracker(zap.NewNop())
	ct.Track("u1", "primary", 1000, 1000)
	require.Greater(t, ct.DailySpendCents(), float64(0))

	ct.lastResetDaily = ct.lastResetDaily.Add(-48 * time.Hour)

	assert.Equal(t, float64(0), ct.DailySpendCents())
}

func TestCostTracker_ResetIfStale_ZeroesMonthlyTotalPastMonthBoundary(t *testing.T) {
	ct := NewCostTracker(zap.NewNop())
	ct.Track("u1", "primary", 1000, 1000)
	require.Greater(t, ct.MonthlySpendCents(), float64(0))

	ct.lastResetMonthly = ct.lastResetMonthly.AddDate(0, -2, 0)

	assert.Equal(t, float64(0), ct.MonthlySpendCents())
}
