package persistence

import (
	"context"
	"errors"
	"time"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
	"github.com/alchemorsel/v3/internal/ports/outbound"
	apperrors "github.com/alchemorsel/v3/pkg/errors"
	"gorm.io/gorm"
)

// QuotaRepository implements outbound.QuotaRepository over GORM.
type QuotaRepository struct {
	db *gorm.DB
}

// NewQuotaRepository wires a GORM-backed quota repository.
func NewQuotaRepository(db *gorm.DB) outbound.QuotaRepository {
	return &QuotaRepository{db: db}
}

// GetQuota loads the quota row for userID, creating a fresh free-plan row on
// first read so QuotaGate never has to special-case "no row yet".
func (r *QuotaRepository) GetQuota(ctx context.Context, userID string) (*domain.QuotaState, error) {
	var model QuotaStateModel
	result := r.db.WithContext(ctx).First(&model, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			fresh := &domain.QuotaState{
				UserID:        userID,
				Plan:          domain.PlanFree,
				Status:        domain.SubscriptionActive,
				LastResetDate: time.Time{},
			}
			if err := r.SaveQuota(ctx, fresh); err != nil {
				return nil, err
			}
			return fresh, nil
		}
		return nil, apperrors.NewDatabaseError("get quota state", result.Error)
	}
	return modelToQuota(&model), nil
}

// SaveQuota writes the full quota row back, used after reset/downgrade and
// after the QuotaGate lock is released.
func (r *QuotaRepository) SaveQuota(ctx context.Context, state *domain.QuotaState) error {
	model := quotaToModel(state)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return apperrors.NewDatabaseError("save quota state", result.Error)
	}
	return nil
}

// IncrementMealCounter bumps total and, when weekly, the weekly counter by
// one in a single statement. Callers hold the per-user lock, so a read-then-
// write race here cannot happen from this engine's own goroutines; the
// atomic SQL expression also protects against a second writer outside the
// process (e.g. an admin console).
func (r *QuotaRepository) IncrementMealCounter(ctx context.Context, userID string, weekly bool) error {
	updates := map[string]interface{}{"total_count": gorm.Expr("total_count + 1")}
	if weekly {
		updates["weekly_count"] = gorm.Expr("weekly_count + 1")
	}
	result := r.db.WithContext(ctx).Model(&QuotaStateModel{}).
		Where("user_id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		return apperrors.NewDatabaseError("increment meal counter", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("quota state")
	}
	return nil
}
