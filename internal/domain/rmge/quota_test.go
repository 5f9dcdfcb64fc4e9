package rmge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type QuotaStateTestSuite struct {
	suite.Suite
}

func TestQuotaStateTestSuite(t *testing.T) {
	suite.Run(t, new(QuotaStateTestSuite))
}

func (s *QuotaStateTestSuite) TestResetIfStale_BeforeMonday_Resets() {
	// Arrange: last reset was the prior week's Monday.
	q := &QuotaState{WeeklyCount: 2, LastResetDate: time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)}
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC) // a Friday

	// Act
	q.ResetIfStale(now, time.UTC)

	// Assert
	assert.Equal(s.T(), 0, q.WeeklyCount)
	assert.Equal(s.T(), time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC), q.LastResetDate)
}

func (s *QuotaStateTestSuite) TestResetIfStale_SameWeek_IsNoop() {
	// Arrange: already reset this week.
	monday := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	q := &QuotaState{WeeklyCount: 2, LastResetDate: monday}
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)

	// Act
	q.ResetIfStale(now, time.UTC)

	// Assert
	assert.Equal(s.T(), 2, q.WeeklyCount)
	assert.Equal(s.T(), monday, q.LastResetDate)
}

func (s *QuotaStateTestSuite) TestDowngradeIfExpired_CanceledPastEndDate_Downgrades() {
	q := &QuotaState{
		Plan:                PlanPro,
		Status:              SubscriptionCanceled,
		SubscriptionEndDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	}

	q.DowngradeIfExpired(time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC))

	assert.Equal(s.T(), PlanExpired, q.Plan)
}

func (s *QuotaStateTestSuite) TestDowngradeIfExpired_ActiveSubscription_Unaffected() {
	q := &QuotaState{
		Plan:                PlanPro,
		Status:              SubscriptionActive,
		SubscriptionEndDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
	}

	q.DowngradeIfExpired(time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC))

	assert.Equal(s.T(), PlanPro, q.Plan)
}

func (s *QuotaStateTestSuite) TestIncrement_BumpsBothCounters() {
	q := &QuotaState{TotalCount: 5, WeeklyCount: 1}

	q.Increment()

	assert.Equal(s.T(), 6, q.TotalCount)
	assert.Equal(s.T(), 2, q.WeeklyCount)
}
