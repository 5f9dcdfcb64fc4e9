// Package persistence provides GORM-backed repositories for UserProfile and
// QuotaState, following the model/repository split in
// internal/infrastructure/persistence/gorm.
package persistence

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringSet round-trips a map[string]struct{} through a JSON array column.
type StringSet []string

func (s *StringSet) Scan(value interface{}) error {
	if value == nil {
		*s = StringSet{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSet", value)
	}
}

func (s StringSet) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return json.Marshal(s)
}

// UserProfileModel is the GORM row for a RMGE user profile.
type UserProfileModel struct {
	UserID         string    `gorm:"type:varchar(64);primaryKey;column:user_id"`
	AgeRange       string    `gorm:"type:varchar(20)"`
	HeightCM       float64   `gorm:"column:height_cm"`
	WeightKG       float64   `gorm:"column:weight_kg"`
	TargetWeightKG float64   `gorm:"column:target_weight_kg"`
	ActivityLevel  string    `gorm:"type:varchar(20)"`
	WeightGoal     string    `gorm:"type:varchar(20)"`
	DietType       string    `gorm:"type:varchar(20)"`
	Regions        StringSet `gorm:"type:json"`
	CuisineStates  StringSet `gorm:"type:json"`
	Allergies      StringSet `gorm:"type:json"`
	Symptoms       StringSet `gorm:"type:json"`
	Goals          StringSet `gorm:"type:json"`
	UpdatedAt      time.Time
}

func (UserProfileModel) TableName() string { return "rmge_user_profiles" }

// QuotaStateModel is the GORM row for a RMGE quota counter.
type QuotaStateModel struct {
	UserID              string     `gorm:"type:varchar(64);primaryKey;column:user_id"`
	Plan                string     `gorm:"type:varchar(20)"`
	Status              string     `gorm:"type:varchar(20)"`
	TotalCount          int        `gorm:"column:total_count"`
	WeeklyCount         int        `gorm:"column:weekly_count"`
	LastResetDate       time.Time  `gorm:"column:last_reset_date"`
	SubscriptionEndDate *time.Time `gorm:"column:subscription_end_date"`
	UpdatedAt           time.Time
}

func (QuotaStateModel) TableName() string { return "rmge_quota_states" }
