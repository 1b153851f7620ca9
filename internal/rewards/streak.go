// Package rewards реализует расчёт серий и баллов, а также жизненный цикл купонов.
package rewards

import (
	"sort"
	"time"

	"github.com/mmeshcher/carbonos/internal/emissions"
	"github.com/mmeshcher/carbonos/internal/model"
)

// PointsForStreakDay возвращает количество баллов за зачётный день с указанной длиной серии.
func PointsForStreakDay(streakLength int) int {
	switch {
	case streakLength <= 7:
		return 2
	case streakLength <= 30:
		return 5
	default:
		return 10
	}
}

// WeeklyAverage возвращает среднесуточные выбросы пользователя за последние 7 дней.
func WeeklyAverage(activities []model.Activity, now time.Time) float64 {
	return emissions.InPeriod(activities, model.PeriodWeekly, now) / 7
}

// IsDayQualifying сообщает, засчитывается ли день в серию.
// День без выбросов не засчитывается: отсутствие записей не приносит баллов.
func IsDayQualifying(dayTotal, weeklyAvg float64) bool {
	return dayTotal > 0 && dayTotal < weeklyAvg
}

// CalculateStreakAndPoints полностью пересчитывает серию и баллы по истории активностей.
// Дни группируются по календарной дате в часовом поясе now.
func CalculateStreakAndPoints(activities []model.Activity, now time.Time) model.StreakResult {
	if len(activities) == 0 {
		return model.StreakResult{}
	}

	weeklyAvg := WeeklyAverage(activities, now)

	totals := make(map[string]float64)
	for _, a := range activities {
		totals[emissions.DayKey(a.Timestamp, now.Location())] += a.Emissions
	}

	days := make([]string, 0, len(totals))
	for day := range totals {
		days = append(days, day)
	}
	// YYYY-MM-DD сортируется лексикографически.
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	var res model.StreakResult
	tempStreak := 0

	for i, day := range days {
		if !IsDayQualifying(totals[day], weeklyAvg) {
			tempStreak = 0
			continue
		}

		tempStreak++

		// Текущая серия растёт, только пока все дни от самого свежего были зачётными.
		if i == 0 || res.CurrentStreak == i {
			res.CurrentStreak = tempStreak
		}

		if tempStreak > res.LongestStreak {
			res.LongestStreak = tempStreak
		}

		res.TotalPoints += PointsForStreakDay(tempStreak)
	}

	return res
}

// Merge объединяет сохранённое состояние наград с результатом пересчёта.
// Самая длинная серия не уменьшается, потраченные баллы не меняются.
func Merge(prev model.RewardsState, computed model.StreakResult) model.RewardsState {
	longest := prev.LongestStreak
	if computed.LongestStreak > longest {
		longest = computed.LongestStreak
	}

	return model.RewardsState{
		CurrentStreak: computed.CurrentStreak,
		LongestStreak: longest,
		TotalPoints:   computed.TotalPoints,
		SpentPoints:   prev.SpentPoints,
	}
}

// AvailablePoints возвращает баллы, доступные для обмена. Отрицательный остаток считается нулём.
func AvailablePoints(state model.RewardsState) int {
	available := state.TotalPoints - state.SpentPoints
	if available < 0 {
		return 0
	}
	return available
}
