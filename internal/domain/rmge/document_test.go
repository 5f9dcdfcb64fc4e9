package rmge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadata_NetCarbs(t *testing.T) {
	cases := []struct {
		name string
		m    Metadata
		want float64
	}{
		{"with fiber", Metadata{Carbs: 40, Fiber: 10, HasFiber: true}, 30},
		{"fiber exceeds carbs floors at zero", Metadata{Carbs: 5, Fiber: 10, HasFiber: true}, 0},
		{"no fiber metadata falls back to total carbs", Metadata{Carbs: 40}, 40},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.m.NetCarbs())
		})
	}
}

func TestMetadata_IsAllStates(t *testing.T) {
	assert.True(t, Metadata{State: "All States"}.IsAllStates())
	assert.True(t, Metadata{State: "  all states "}.IsAllStates())
	assert.False(t, Metadata{State: "Punjab"}.IsAllStates())
}

func TestMetadata_NormalizedMealName(t *testing.T) {
	assert.Equal(t, "paneer tikka", Metadata{MealName: "  Paneer Tikka "}.NormalizedMealName())
}
