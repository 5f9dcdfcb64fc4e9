package rmge

import (
	"context"
	"sync"
	"time"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
	"github.com/alchemorsel/v3/internal/ports/outbound"
	apperrors "github.com/alchemorsel/v3/pkg/errors"
	"go.uber.org/zap"
)

// QuotaConfig mirrors the quota.* options in SPEC_FULL.md §11.
type QuotaConfig struct {
	FreeTotal    int
	ProWeekly    int
	MaxWeekly    int
	TestUserID   string
	ResetTZ      string
}

// DefaultQuotaConfig matches the defaults implied by spec.md §4.10/§8 S3/S4.
func DefaultQuotaConfig() QuotaConfig {
	return QuotaConfig{FreeTotal: 1, ProWeekly: 3, MaxWeekly: 3, ResetTZ: "UTC"}
}

// QuotaGate reads a per-user QuotaState, applies weekly-reset and
// subscription-expiry rules, and gates generation by plan limits, per
// SPEC_FULL.md §4.10 and the Open Question resolutions in §13.
//
// The per-user mutex matches the pessimistic-increment / non-pessimistic-
// denial-check split spec'd in SPEC_FULL.md §5: Check reads the latest
// snapshot without acquiring a lock (over-counting is worse than
// under-counting a momentary race), Increment acquires the user's lock.
type QuotaGate struct {
	repo   outbound.QuotaRepository
	cfg    QuotaConfig
	loc    *time.Location
	logger *zap.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewQuotaGate constructs a QuotaGate bound to a persistence repository.
func NewQuotaGate(repo outbound.QuotaRepository, cfg QuotaConfig, logger *zap.Logger) *QuotaGate {
	loc, err := time.LoadLocation(cfg.ResetTZ)
	if err != nil || loc == nil {
		loc = time.UTC
	}
	return &QuotaGate{
		repo:   repo,
		cfg:    cfg,
		loc:    loc,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Decision is the outcome of a Check call.
type Decision struct {
	Allowed bool
	Plan    domain.PlanTier
	Count   int
	Limit   int
	Reason  string
}

// Check reads the user's quota record, applies reset/downgrade rules, and
// returns whether generation is allowed. A test-account identifier always
// bypasses limits.
func (g *QuotaGate) Check(ctx context.Context, userID string) (Decision, error) {
	if g.cfg.TestUserID != "" && userID == g.cfg.TestUserID {
		return Decision{Allowed: true}, nil
	}

	state, err := g.repo.GetQuota(ctx, userID)
	if err != nil {
		return Decision{}, err
	}

	now := time.Now()
	state.DowngradeIfExpired(now)
	state.ResetIfStale(now, g.loc)

	switch state.Plan {
	case domain.PlanPro, domain.PlanMax:
		limit := g.cfg.ProWeekly
		if state.Plan == domain.PlanMax {
			limit = g.cfg.MaxWeekly
		}
		if state.WeeklyCount >= limit {
			return Decision{Allowed: false, Plan: state.Plan, Count: state.WeeklyCount, Limit: limit, Reason: "weekly quota exceeded"}, nil
		}
		return Decision{Allowed: true, Plan: state.Plan, Count: state.WeeklyCount, Limit: limit}, nil
	default: // free, expired
		if state.TotalCount >= g.cfg.FreeTotal {
			return Decision{Allowed: false, Plan: domain.PlanFree, Count: state.TotalCount, Limit: g.cfg.FreeTotal, Reason: "free plan quota exceeded"}, nil
		}
		return Decision{Allowed: true, Plan: domain.PlanFree, Count: state.TotalCount, Limit: g.cfg.FreeTotal}, nil
	}
}

// CheckErr is Check wrapped to return a ready-to-surface AppError on denial.
func (g *QuotaGate) CheckErr(ctx context.Context, userID string) (Decision, error) {
	d, err := g.Check(ctx, userID)
	if err != nil {
		return d, err
	}
	if !d.Allowed {
		return d, apperrors.NewQuotaExceededError(string(d.Plan), d.Limit).WithMetadata("count", d.Count).WithMetadata("reason", d.Reason)
	}
	return d, nil
}

// Increment performs the exactly-once post-validation increment, serialized
// per-user via a pessimistic lock.
func (g *QuotaGate) Increment(ctx context.Context, userID string) error {
	if g.cfg.TestUserID != "" && userID == g.cfg.TestUserID {
		return nil
	}

	lock := g.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	state, err := g.repo.GetQuota(ctx, userID)
	if err != nil {
		return err
	}

	now := time.Now()
	state.DowngradeIfExpired(now)
	state.ResetIfStale(now, g.loc)
	state.Increment()

	return g.repo.SaveQuota(ctx, state)
}

func (g *QuotaGate) userLock(userID string) *sync.Mutex {
	g.locksMu.Lock()
	defer g.locksMu.Unlock()
	l, ok := g.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[userID] = l
	}
	return l
}
