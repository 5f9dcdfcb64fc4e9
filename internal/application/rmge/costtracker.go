package rmge

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// ProviderRates is the per-provider token pricing used to estimate one
// generation call's cost, adapted from the enterprise AI service's
// input/output-token-split billing model to the primary/fallback LLM
// split in SPEC_FULL.md §11.
type ProviderRates struct {
	InputTokenRateCents  float64
	OutputTokenRateCents float64
	RequestBaseCostCents float64
	MinimumCostCents     float64
}

func defaultProviderRates() map[string]ProviderRates {
	return map[string]ProviderRates{
		"primary":  {InputTokenRateCents: 0.003, OutputTokenRateCents: 0.006, RequestBaseCostCents: 0.1, MinimumCostCents: 0.01},
		"fallback": {InputTokenRateCents: 0.0025, OutputTokenRateCents: 0.0075, RequestBaseCostCents: 0.05, MinimumCostCents: 0.005},
	}
}

// UserCostTracking accumulates one user's estimated generation spend.
type UserCostTracking struct {
	DailySpendCents   float64
	MonthlySpendCents float64
	TotalSpendCents   float64
	RequestCount      int64
	TokensUsed        int64
	LastActivity      time.Time
}

// CostTracker estimates and accumulates per-user LLM spend across the
// primary/fallback providers, reset on UTC day/month boundaries.
type CostTracker struct {
	mu     sync.Mutex
	rates  map[string]ProviderRates
	logger *zap.Logger

	dailyCents       float64
	monthlyCents     float64
	lastResetDaily   time.Time
	lastResetMonthly time.Time
	userUsage        map[string]*UserCostTracking
}

// NewCostTracker returns a CostTracker seeded with the built-in provider
// rate table.
func NewCostTracker(logger *zap.Logger) *CostTracker {
	now := time.Now().UTC()
	return &CostTracker{
		rates:            defaultProviderRates(),
		logger:           logger,
		lastResetDaily:   now.Truncate(24 * time.Hour),
		lastResetMonthly: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		userUsage:        make(map[string]*UserCostTracking),
	}
}

// Track records one generation's token usage against userID/provider and
// returns the estimated cost in cents.
func (ct *CostTracker) Track(userID, provider string, promptTokens, completionTokens int) float64 {
	cost := ct.estimate(provider, promptTokens, completionTokens)

	ct.mu.Lock()
	defer ct.mu.Unlock()

	ct.resetIfStale()

	ct.dailyCents += cost
	ct.monthlyCents += cost

	user, ok := ct.userUsage[userID]
	if !ok {
		user = &UserCostTracking{}
		ct.userUsage[userID] = user
	}
	user.DailySpendCents += cost
	user.MonthlySpendCents += cost
	user.TotalSpendCents += cost
	user.RequestCount++
	user.TokensUsed += int64(promptTokens + completionTokens)
	user.LastActivity = time.Now()

	if ct.logger != nil {
		ct.logger.Debug("rmge generation cost tracked",
			zap.String("user_id", userID), zap.String("provider", provider),
			zap.Float64("cost_cents", cost), zap.Int("tokens", promptTokens+completionTokens))
	}

	return cost
}

func (ct *CostTracker) estimate(provider string, promptTokens, completionTokens int) float64 {
	rates, ok := ct.rates[provider]
	if !ok {
		return 0
	}
	cost := float64(promptTokens)/1000*rates.InputTokenRateCents +
		float64(completionTokens)/1000*rates.OutputTokenRateCents +
		rates.RequestBaseCostCents
	if cost < rates.MinimumCostCents {
		cost = rates.MinimumCostCents
	}
	return cost
}

// resetIfStale zeroes the daily/monthly running totals once their
// boundary has passed; per-user resets are applied lazily on next use
// via UserSpend/Track since most users are not active every day.
func (ct *CostTracker) resetIfStale() {
	now := time.Now().UTC()
	dayBoundary := now.Truncate(24 * time.Hour)
	if dayBoundary.After(ct.lastResetDaily) {
		ct.dailyCents = 0
		ct.lastResetDaily = dayBoundary
	}
	monthBoundary := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if monthBoundary.After(ct.lastResetMonthly) {
		ct.monthlyCents = 0
		ct.lastResetMonthly = monthBoundary
	}
}

// DailySpendCents returns the running daily total across all users.
func (ct *CostTracker) DailySpendCents() float64 {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.resetIfStale()
	return ct.dailyCents
}

// MonthlySpendCents returns the running monthly total across all users.
func (ct *CostTracker) MonthlySpendCents() float64 {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.resetIfStale()
	return ct.monthlyCents
}

// UserSpend returns a point-in-time copy of userID's tracked spend, or
// false if userID has never been tracked.
func (ct *CostTracker) UserSpend(userID string) (UserCostTracking, bool) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	u, ok := ct.userUsage[userID]
	if !ok {
		return UserCostTracking{}, false
	}
	return *u, true
}
