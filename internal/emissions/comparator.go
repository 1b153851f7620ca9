package emissions

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/carbonos/internal/model"
)

// Compare сравнивает выбросы пользователя со средним по стране, масштабированным на период.
func Compare(userEmissions float64, period model.Period) model.Comparison {
	average := NationalAverageDaily * float64(period.Days())

	return model.Comparison{
		Average:           average,
		UserEmissions:     userEmissions,
		Percentage:        formatPercentage(userEmissions / average * 100),
		BetterThanAverage: userEmissions < average,
	}
}

func formatPercentage(p float64) string {
	if !isFinite(p) {
		return strconv.FormatFloat(p, 'f', 1, 64)
	}
	return decimal.NewFromFloat(p).StringFixed(1)
}
