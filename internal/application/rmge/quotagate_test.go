package rmge

import (
	"context"
	"sync"
	"testing"
	"time"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuotaRepo struct {
	mu     sync.Mutex
	states map[string]*domain.QuotaState
}

func newFakeQuotaRepo() *fakeQuotaRepo {
	return &fakeQuotaRepo{states: make(map[string]*domain.QuotaState)}
}

func (r *fakeQuotaRepo) GetQuota(ctx context.Context, userID string) (*domain.QuotaState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.states[userID]; ok {
		cp := *s
		return &cp, nil
	}
	return &domain.QuotaState{UserID: userID, Plan: domain.PlanFree}, nil
}

func (r *fakeQuotaRepo) SaveQuota(ctx context.Context, state *domain.QuotaState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *state
	r.states[state.UserID] = &cp
	return nil
}

func (r *fakeQuotaRepo) IncrementMealCounter(ctx context.Context, userID string, weekly bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[userID]
	if !ok {
		s = &domain.QuotaState{UserID: userID}
		r.states[userID] = s
	}
	s.TotalCount++
	if weekly {
		s.WeeklyCount++
	}
	return nil
}

func TestQuotaGate_Check_FreePlanAllowsUntilTotalLimit(t *testing.T) {
	// Scenario S3: free plan caps at FreeTotal lifetime generations.
	repo := newFakeQuotaRepo()
	repo.SaveQuota(context.Background(), &domain.QuotaState{UserID: "u1", Plan: domain.PlanFree, TotalCount: 0})
	g := NewQuotaGate(repo, DefaultQuotaConfig(), nil)

	got, err := g.Check(context.Background(), "u1")

	require.NoError(t, err)
	assert.True(t, got.Allowed)
}

func TestQuotaGate_Check_FreePlanDeniesAtTotalLimit(t *testing.T) {
	repo := newFakeQuotaRepo()
	repo.SaveQuota(context.Background(), &domain.QuotaState{UserID: "u1", Plan: domain.PlanFree, TotalCount: 1})
	g := NewQuotaGate(repo, DefaultQuotaConfig(), nil)

	got, err := g.Check(context.Background(), "u1")

	require.NoError(t, err)
	assert.False(t, got.Allowed)
	assert.Equal(t, "free plan quota exceeded", got.Reason)
}

func TestQuotaGate_Check_ProPlanUsesWeeklyLimit(t *testing.T) {
	// Scenario S4: pro plan caps at ProWeekly per reset week.
	repo := newFakeQuotaRepo()
	repo.SaveQuota(context.Background(), &domain.QuotaState{UserID: "u1", Plan: domain.PlanPro, WeeklyCount: 3, LastResetDate: time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)})
	g := NewQuotaGate(repo, DefaultQuotaConfig(), nil)

	got, err := g.Check(context.Background(), "u1")

	require.NoError(t, err)
	assert.False(t, got.Allowed)
	assert.Equal(t, domain.PlanPro, got.Plan)
}

func TestQuotaGate_Check_MaxPlanUsesOwnWeeklyLimit(t *testing.T) {
	repo := newFakeQuotaRepo()
	repo.SaveQuota(context.Background(), &domain.QuotaState{UserID: "u1", Plan: domain.PlanMax, WeeklyCount: 2})
	cfg := DefaultQuotaConfig()
	cfg.MaxWeekly = 10
	g := NewQuotaGate(repo, cfg, nil)

	got, err := g.Check(context.Background(), "u1")

	require.NoError(t, err)
	assert.True(t, got.Allowed)
	assert.Equal(t, 10, got.Limit)
}

func TestQuotaGate_Check_TestUserAlwaysAllowed(t *testing.T) {
	repo := newFakeQuotaRepo()
	repo.SaveQuota(context.Background(), &domain.QuotaState{UserID: "qa-bot", Plan: domain.PlanFree, TotalCount: 999})
	cfg := DefaultQuotaConfig()
	cfg.TestUserID = "qa-bot"
	g := NewQuotaGate(repo, cfg, nil)

	got, err := g.Check(context.Background(), "qa-bot")

	require.NoError(t, err)
	assert.True(t, got.Allowed)
}

func TestQuotaGate_Check_CanceledPastEndDateDowngradesToFreeRules(t *testing.T) {
	repo := newFakeQuotaRepo()
	repo.SaveQuota(context.Background(), &domain.QuotaState{
		UserID: "u1", Plan: domain.PlanPro, Status: domain.SubscriptionCanceled,
		SubscriptionEndDate: time.Now().Add(-48 * time.Hour), TotalCount: 0,
	})
	g := NewQuotaGate(repo, DefaultQuotaConfig(), nil)

	got, err := g.Check(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, got.Plan)
}

func TestQuotaGate_CheckErr_DeniedReturnsQuotaExceededError(t *testing.T) {
	repo := newFakeQuotaRepo()
	repo.SaveQuota(context.Background(), &domain.QuotaState{UserID: "u1", Plan: domain.PlanFree, TotalCount: 1})
	g := NewQuotaGate(repo, DefaultQuotaConfig(), nil)

	_, err := g.CheckErr(context.Background(), "u1")

	assert.Error(t, err)
}

func TestQuotaGate_Increment_BypassesForTestUser(t *testing.T) {
	repo := newFakeQuotaRepo()
	cfg := DefaultQuotaConfig()
	cfg.TestUserID = "qa-bot"
	g := NewQuotaGate(repo, cfg, nil)

	err := g.Increment(context.Background(), "qa-bot")

	require.NoError(t, err)
	_, ok := repo.states["qa-bot"]
	assert.False(t, ok)
}

func TestQuotaGate_Increment_PersistsBumpedCounters(t *testing.T) {
	repo := newFakeQuotaRepo()
	repo.SaveQuota(context.Background(), &domain.QuotaState{UserID: "u1", Plan: domain.PlanFree, TotalCount: 0, WeeklyCount: 0})
	g := NewQuotaGate(repo, DefaultQuotaConfig(), nil)

	err := g.Increment(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, 1, repo.states["u1"].TotalCount)
	assert.Equal(t, 1, repo.states["u1"].WeeklyCount)
}

func TestQuotaGate_Increment_ConcurrentCallsForSameUserSerialize(t *testing.T) {
	// Universal property: per-user increments never lose a count to a race.
	repo := newFakeQuotaRepo()
	repo.SaveQuota(context.Background(), &domain.QuotaState{UserID: "u1", Plan: domain.PlanFree})
	g := NewQuotaGate(repo, DefaultQuotaConfig(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Increment(context.Background(), "u1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, repo.states["u1"].TotalCount)
}
