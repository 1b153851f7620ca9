// Package emissions рассчитывает выбросы CO2e по активностям пользователя и сравнивает их со средним по стране.
package emissions

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/carbonos/internal/model"
)

// NationalAverageDaily задаёт средние суточные выбросы в США, кг CO2e (около 16 т в год).
const NationalAverageDaily = 44.0

// HomeHourFactor задаёт выбросы за час, проведённый дома, кг CO2e.
const HomeHourFactor = 0.5

// TransportationFactors содержит выбросы на милю по виду транспорта, кг CO2e.
var TransportationFactors = map[string]float64{
	"car":   0.4,
	"bus":   0.1,
	"train": 0.08,
	"plane": 0.25,
	"bike":  0,
	"walk":  0,
}

// ShoppingFactors содержит выбросы за одну покупку по её типу, кг CO2e.
var ShoppingFactors = map[string]float64{
	"online":       0.5,
	"inStore":      0.2,
	"foodDelivery": 0.5,
}

// EnergyTypes содержит допустимые типы активностей категории energy.
var EnergyTypes = map[string]struct{}{
	"home": {},
}

// EmissionsFor рассчитывает выбросы одной активности.
// Неизвестные категория и тип дают 0: проверка входных данных выполняется на границе сервиса.
func EmissionsFor(a model.Activity) float64 {
	switch a.Category {
	case model.CategoryTransportation:
		return TransportationFactors[a.Type] * a.Distance
	case model.CategoryShopping:
		return ShoppingFactors[a.Type]
	case model.CategoryEnergy:
		return HomeHourFactor * a.Hours
	default:
		return 0
	}
}

// Total суммирует сохранённые выбросы активностей без пересчёта.
func Total(activities []model.Activity) float64 {
	var total float64
	for _, a := range activities {
		total += a.Emissions
	}
	return total
}

// InPeriod суммирует выбросы активностей, попавших в период относительно now.
// Для daily используется календарный день в часовом поясе now, для weekly и monthly берётся
// скользящее окно 7×24 и 30×24 часа.
func InPeriod(activities []model.Activity, period model.Period, now time.Time) float64 {
	return Total(filterPeriod(activities, period, now))
}

func filterPeriod(activities []model.Activity, period model.Period, now time.Time) []model.Activity {
	var from time.Time
	switch period {
	case model.PeriodDaily:
		res := make([]model.Activity, 0, len(activities))
		for _, a := range activities {
			if SameDay(a.Timestamp, now) {
				res = append(res, a)
			}
		}
		return res
	case model.PeriodWeekly, model.PeriodMonthly:
		from = now.Add(-time.Duration(period.Days()) * 24 * time.Hour)
	default:
		return activities
	}

	res := make([]model.Activity, 0, len(activities))
	for _, a := range activities {
		if !a.Timestamp.Before(from) {
			res = append(res, a)
		}
	}
	return res
}

// Breakdown возвращает выбросы по всем трём категориям, округлённые до двух знаков.
func Breakdown(activities []model.Activity) model.EmissionsBreakdown {
	sums := make(map[model.Category]float64, 3)
	for _, a := range activities {
		sums[a.Category] += a.Emissions
	}

	categories := model.Categories()
	res := make(model.EmissionsBreakdown, 0, len(categories))
	for _, c := range categories {
		res = append(res, model.CategoryEmissions{
			Category: c,
			Value:    Round(sums[c], 2),
		})
	}
	return res
}

// TimeSeries возвращает выбросы по дням за последние days дней, начиная с самого старого.
func TimeSeries(activities []model.Activity, days int, now time.Time) []model.TimeSeriesPoint {
	if days <= 0 {
		return []model.TimeSeriesPoint{}
	}

	byDay := make(map[string]float64)
	for _, a := range activities {
		byDay[DayKey(a.Timestamp, now.Location())] += a.Emissions
	}

	res := make([]model.TimeSeriesPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		res = append(res, model.TimeSeriesPoint{
			Date:      day.Format("Jan 2"),
			Day:       day.Format(time.DateOnly),
			Emissions: Round(byDay[DayKey(day, now.Location())], 2),
			Average:   NationalAverageDaily,
		})
	}
	return res
}

// SameDay сообщает, приходятся ли t и now на один календарный день в часовом поясе now.
func SameDay(t, now time.Time) bool {
	return DayKey(t, now.Location()) == DayKey(now, now.Location())
}

// DayKey возвращает календарную дату t в часовом поясе loc в формате YYYY-MM-DD.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.DateOnly)
}

// Round округляет значение до places знаков после запятой (половина округляется от нуля).
// NaN и бесконечности возвращаются без изменений.
func Round(v float64, places int32) float64 {
	if !isFinite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
