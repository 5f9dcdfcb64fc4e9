package persistence

import (
	"context"
	"errors"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
	"github.com/alchemorsel/v3/internal/ports/outbound"
	apperrors "github.com/alchemorsel/v3/pkg/errors"
	"gorm.io/gorm"
)

// UserProfileRepository implements outbound.UserProfileRepository over GORM.
type UserProfileRepository struct {
	db *gorm.DB
}

// NewUserProfileRepository wires a GORM-backed profile repository.
func NewUserProfileRepository(db *gorm.DB) outbound.UserProfileRepository {
	return &UserProfileRepository{db: db}
}

// GetUser loads a profile by userID.
func (r *UserProfileRepository) GetUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var model UserProfileModel
	result := r.db.WithContext(ctx).First(&model, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user profile")
		}
		return nil, apperrors.NewDatabaseError("get user profile", result.Error)
	}
	return modelToProfile(&model), nil
}

// UpdateUser applies a partial field update, used by the caller-owned
// onboarding flow rather than by the generation path itself.
func (r *UserProfileRepository) UpdateUser(ctx context.Context, userID string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&UserProfileModel{}).
		Where("user_id = ?", userID).
		Updates(fields)
	if result.Error != nil {
		return apperrors.NewDatabaseError("update user profile", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("user profile")
	}
	return nil
}

// Upsert creates or replaces a full profile row, used by ingestion/onboarding
// jobs outside the generation hot path.
func (r *UserProfileRepository) Upsert(ctx context.Context, profile *domain.UserProfile) error {
	model := profileToModel(profile)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return apperrors.NewDatabaseError("upsert user profile", result.Error)
	}
	return nil
}
