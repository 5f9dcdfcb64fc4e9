package persistence

import (
	domain "github.com/alchemorsel/v3/internal/domain/rmge"
)

func setToSlice(m map[string]struct{}) StringSet {
	out := make(StringSet, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func sliceToSet(s StringSet) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for _, v := range s {
		out[v] = struct{}{}
	}
	return out
}

func profileToModel(p *domain.UserProfile) *UserProfileModel {
	return &UserProfileModel{
		UserID:         p.UserID,
		AgeRange:       p.AgeRange,
		HeightCM:       p.HeightCM,
		WeightKG:       p.WeightKG,
		TargetWeightKG: p.TargetWeightKG,
		ActivityLevel:  string(p.ActivityLevel),
		WeightGoal:     string(p.WeightGoal),
		DietType:       string(p.DietType),
		Regions:        setToSlice(p.Regions),
		CuisineStates:  setToSlice(p.CuisineStates),
		Allergies:      setToSlice(p.Allergies),
		Symptoms:       setToSlice(p.Symptoms),
		Goals:          setToSlice(p.Goals),
	}
}

func modelToProfile(m *UserProfileModel) *domain.UserProfile {
	return &domain.UserProfile{
		UserID:         m.UserID,
		AgeRange:       m.AgeRange,
		HeightCM:       m.HeightCM,
		WeightKG:       m.WeightKG,
		TargetWeightKG: m.TargetWeightKG,
		ActivityLevel:  domain.ActivityLevel(m.ActivityLevel),
		WeightGoal:     domain.WeightGoal(m.WeightGoal),
		DietType:       domain.DietType(m.DietType),
		Regions:        sliceToSet(m.Regions),
		CuisineStates:  sliceToSet(m.CuisineStates),
		Allergies:      sliceToSet(m.Allergies),
		Symptoms:       sliceToSet(m.Symptoms),
		Goals:          sliceToSet(m.Goals),
	}
}

func quotaToModel(q *domain.QuotaState) *QuotaStateModel {
	model := &QuotaStateModel{
		UserID:        q.UserID,
		Plan:          string(q.Plan),
		Status:        string(q.Status),
		TotalCount:    q.TotalCount,
		WeeklyCount:   q.WeeklyCount,
		LastResetDate: q.LastResetDate,
	}
	if !q.SubscriptionEndDate.IsZero() {
		end := q.SubscriptionEndDate
		model.SubscriptionEndDate = &end
	}
	return model
}

func modelToQuota(m *QuotaStateModel) *domain.QuotaState {
	state := &domain.QuotaState{
		UserID:        m.UserID,
		Plan:          domain.PlanTier(m.Plan),
		Status:        domain.SubscriptionStatus(m.Status),
		TotalCount:    m.TotalCount,
		WeeklyCount:   m.WeeklyCount,
		LastResetDate: m.LastResetDate,
	}
	if m.SubscriptionEndDate != nil {
		state.SubscriptionEndDate = *m.SubscriptionEndDate
	}
	return state
}
