package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/carbonos/internal/emissions"
	"github.com/mmeshcher/carbonos/internal/model"
)

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func unlocked(achievements []model.Achievement) map[string]bool {
	res := make(map[string]bool)
	for _, a := range achievements {
		res[a.ID] = a.Unlocked
	}
	return res
}

func TestAchievements_None(t *testing.T) {
	got := Achievements(nil, emissions.Compare(50, model.PeriodDaily), nil, time.UTC)
	require.Len(t, got, 4)
	for _, a := range got {
		assert.False(t, a.Unlocked, a.ID)
	}
	assert.Empty(t, UnlockedIDs(got))
}

func TestAchievements_Unlock(t *testing.T) {
	var activities []model.Activity
	for i := 0; i < 7; i++ {
		activities = append(activities, model.Activity{
			Category:  model.CategoryTransportation,
			Type:      "bike",
			Distance:  3,
			Timestamp: testNow.AddDate(0, 0, -i),
		})
	}

	got := unlocked(Achievements(activities, emissions.Compare(0, model.PeriodDaily), nil, time.UTC))
	assert.True(t, got["first_day"])
	assert.True(t, got["low_carbon_day"])
	assert.True(t, got["week_streak"])
	assert.True(t, got["eco_commuter"])
}

func TestAchievements_WeekStreakNeedsDistinctDays(t *testing.T) {
	var activities []model.Activity
	for i := 0; i < 10; i++ {
		activities = append(activities, model.Activity{
			Category:  model.CategoryShopping,
			Type:      "online",
			Timestamp: testNow.Add(-time.Duration(i) * time.Minute),
		})
	}

	got := unlocked(Achievements(activities, emissions.Compare(100, model.PeriodDaily), nil, time.UTC))
	assert.True(t, got["first_day"])
	assert.False(t, got["week_streak"])
	assert.False(t, got["eco_commuter"])
	assert.False(t, got["low_carbon_day"])
}

func TestAchievements_PreviouslyUnlockedStayUnlocked(t *testing.T) {
	got := Achievements(nil, emissions.Compare(100, model.PeriodDaily), []string{"low_carbon_day"}, time.UTC)
	assert.Equal(t, []string{"low_carbon_day"}, UnlockedIDs(got))
}

func TestTips(t *testing.T) {
	breakdown := model.EmissionsBreakdown{
		{Category: model.CategoryTransportation, Value: 8},
		{Category: model.CategoryShopping, Value: 1},
		{Category: model.CategoryEnergy, Value: 1},
	}

	tips := Tips(breakdown, 10, emissions.Compare(10, model.PeriodDaily))
	require.Len(t, tips, 2)
	assert.Equal(t, "Transportation", tips[0].Category)
	assert.Equal(t, "Great Job!", tips[1].Category)
}

func TestTipsCappedAtThree(t *testing.T) {
	breakdown := model.EmissionsBreakdown{
		{Category: model.CategoryTransportation, Value: 0},
		{Category: model.CategoryShopping, Value: 50},
		{Category: model.CategoryEnergy, Value: 50},
	}

	tips := Tips(breakdown, 100, emissions.Compare(66, model.PeriodDaily))
	require.Len(t, tips, 3)
	assert.Equal(t, "Shopping", tips[0].Category)
	assert.Equal(t, "Energy", tips[1].Category)
	assert.Equal(t, "Room for Improvement", tips[2].Category)
	assert.Contains(t, tips[2].Tip, "150.0%")
}

func TestTipsWithNoEmissions(t *testing.T) {
	breakdown := model.EmissionsBreakdown{
		{Category: model.CategoryTransportation},
		{Category: model.CategoryShopping},
		{Category: model.CategoryEnergy},
	}

	tips := Tips(breakdown, 0, emissions.Compare(0, model.PeriodDaily))
	require.Len(t, tips, 1)
	assert.Equal(t, "Great Job!", tips[0].Category)
}

func TestAchievements_LowCarbonDayNeedsActivity(t *testing.T) {
	got := unlocked(Achievements(nil, emissions.Compare(0, model.PeriodDaily), nil, time.UTC))
	assert.False(t, got["low_carbon_day"])
}
