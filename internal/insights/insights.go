// Package insights формирует достижения и персональные рекомендации по истории активностей.
package insights

import (
	"fmt"
	"time"

	"github.com/mmeshcher/carbonos/internal/emissions"
	"github.com/mmeshcher/carbonos/internal/model"
)

// MaxTips ограничивает число рекомендаций в ответе.
const MaxTips = 3

type definition struct {
	model.Achievement
	requirement func(activities []model.Activity, cmp model.Comparison, loc *time.Location) bool
}

var definitions = []definition{
	{
		Achievement: model.Achievement{
			ID:          "first_day",
			Name:        "First Steps",
			Description: "Completed your first day of tracking",
			Icon:        "🌱",
		},
		requirement: func(activities []model.Activity, _ model.Comparison, _ *time.Location) bool {
			return len(activities) >= 1
		},
	},
	{
		Achievement: model.Achievement{
			ID:          "low_carbon_day",
			Name:        "Low Carbon Day",
			Description: "Kept emissions below national average",
			Icon:        "🌿",
		},
		requirement: func(activities []model.Activity, cmp model.Comparison, _ *time.Location) bool {
			return len(activities) > 0 && cmp.BetterThanAverage
		},
	},
	{
		Achievement: model.Achievement{
			ID:          "week_streak",
			Name:        "Week Warrior",
			Description: "Logged activities for 7 days",
			Icon:        "⭐",
		},
		requirement: func(activities []model.Activity, _ model.Comparison, loc *time.Location) bool {
			days := make(map[string]struct{})
			for _, a := range activities {
				days[emissions.DayKey(a.Timestamp, loc)] = struct{}{}
			}
			return len(days) >= 7
		},
	},
	{
		Achievement: model.Achievement{
			ID:          "eco_commuter",
			Name:        "Eco Commuter",
			Description: "Used bike or walking 5 times",
			Icon:        "🚴",
		},
		requirement: func(activities []model.Activity, _ model.Comparison, _ *time.Location) bool {
			trips := 0
			for _, a := range activities {
				if a.Category == model.CategoryTransportation && (a.Type == "bike" || a.Type == "walk") {
					trips++
				}
			}
			return trips >= 5
		},
	},
}

// Achievements возвращает все достижения с признаком получения.
// Ранее полученные достижения остаются полученными, даже если условие больше не выполняется.
func Achievements(activities []model.Activity, cmp model.Comparison, unlocked []string, loc *time.Location) []model.Achievement {
	prev := make(map[string]struct{}, len(unlocked))
	for _, id := range unlocked {
		prev[id] = struct{}{}
	}

	res := make([]model.Achievement, 0, len(definitions))
	for _, d := range definitions {
		a := d.Achievement
		_, was := prev[a.ID]
		a.Unlocked = was || d.requirement(activities, cmp, loc)
		res = append(res, a)
	}
	return res
}

// UnlockedIDs возвращает идентификаторы полученных достижений.
func UnlockedIDs(achievements []model.Achievement) []string {
	res := make([]string, 0, len(achievements))
	for _, a := range achievements {
		if a.Unlocked {
			res = append(res, a.ID)
		}
	}
	return res
}

// Tips возвращает до трёх рекомендаций по структуре выбросов и сравнению со средним.
func Tips(breakdown model.EmissionsBreakdown, total float64, cmp model.Comparison) []model.Tip {
	var tips []model.Tip

	if breakdown.Value(model.CategoryTransportation) > total*0.5 {
		tips = append(tips, model.Tip{
			Category: "Transportation",
			Tip:      "Transportation is your largest source of emissions. Consider using public transit, biking, or walking for short trips.",
			Icon:     "🚗",
		})
	}
	if breakdown.Value(model.CategoryShopping) > total*0.3 {
		tips = append(tips, model.Tip{
			Category: "Shopping",
			Tip:      "Consolidate shopping trips and consider buying local products to reduce delivery emissions.",
			Icon:     "🛍️",
		})
	}
	if breakdown.Value(model.CategoryEnergy) > total*0.3 {
		tips = append(tips, model.Tip{
			Category: "Energy",
			Tip:      "Reduce home energy usage by turning off lights, using energy-efficient appliances, and adjusting your thermostat.",
			Icon:     "💡",
		})
	}

	if cmp.BetterThanAverage {
		tips = append(tips, model.Tip{
			Category: "Great Job!",
			Tip:      "You're doing better than the national average! Keep up the great work and inspire others.",
			Icon:     "🎉",
		})
	} else {
		tips = append(tips, model.Tip{
			Category: "Room for Improvement",
			Tip:      fmt.Sprintf("You're currently at %s%% of the national average. Small changes can make a big difference!", cmp.Percentage),
			Icon:     "📈",
		})
	}

	if len(tips) > MaxTips {
		tips = tips[:MaxTips]
	}
	return tips
}
