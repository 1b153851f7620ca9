// Package validation содержит функции валидации входных данных.
package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"

	"github.com/mmeshcher/carbonos/internal/emissions"
	"github.com/mmeshcher/carbonos/internal/model"
)

var (
	// ErrInvalidActivity возвращается для активности с неизвестной категорией, типом или недопустимыми значениями.
	ErrInvalidActivity = errors.New("invalid activity")
	// ErrInvalidProfile возвращается для некорректной анкеты пользователя.
	ErrInvalidProfile = errors.New("invalid profile")
)

// MaxDistance ограничивает дистанцию одной поездки в милях.
const MaxDistance = 25000

var couponCodeRe = regexp.MustCompile(`^ECO-[0-9A-Z]+-[0-9A-Z]{5}$`)

// ValidateActivity проверяет активность, введённую пользователем.
func ValidateActivity(a model.Activity) error {
	if isBad(a.Distance) || a.Distance < 0 || a.Distance > MaxDistance {
		return fmt.Errorf("%w: distance must be between 0 and %d miles", ErrInvalidActivity, MaxDistance)
	}
	if isBad(a.Hours) || a.Hours < 0 || a.Hours > 24 {
		return fmt.Errorf("%w: hours must be between 0 and 24", ErrInvalidActivity)
	}

	var ok bool
	switch a.Category {
	case model.CategoryTransportation:
		_, ok = emissions.TransportationFactors[a.Type]
	case model.CategoryShopping:
		_, ok = emissions.ShoppingFactors[a.Type]
	case model.CategoryEnergy:
		_, ok = emissions.EnergyTypes[a.Type]
	default:
		return fmt.Errorf("%w: unknown category %q", ErrInvalidActivity, a.Category)
	}

	if !ok {
		return fmt.Errorf("%w: unknown %s type %q", ErrInvalidActivity, a.Category, a.Type)
	}

	return nil
}

func isBad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

var (
	frequencyAnswers = map[string]struct{}{"low": {}, "medium": {}, "high": {}}
	dietAnswers      = map[string]struct{}{"vegan": {}, "vegetarian": {}, "pescatarian": {}, "mixed": {}}
)

// ValidateProfile проверяет ответы анкеты первого входа.
func ValidateProfile(p model.Profile) error {
	if len(p.Transportation) == 0 {
		return fmt.Errorf("%w: choose at least one transportation mode", ErrInvalidProfile)
	}
	for _, mode := range p.Transportation {
		if _, ok := emissions.TransportationFactors[mode]; !ok {
			return fmt.Errorf("%w: unknown transportation mode %q", ErrInvalidProfile, mode)
		}
	}
	if _, ok := frequencyAnswers[p.ShoppingFrequency]; !ok {
		return fmt.Errorf("%w: unknown shopping frequency %q", ErrInvalidProfile, p.ShoppingFrequency)
	}
	if _, ok := dietAnswers[p.DietType]; !ok {
		return fmt.Errorf("%w: unknown diet type %q", ErrInvalidProfile, p.DietType)
	}
	if _, ok := frequencyAnswers[p.EnergyUsage]; !ok {
		return fmt.Errorf("%w: unknown energy usage %q", ErrInvalidProfile, p.EnergyUsage)
	}
	if p.HouseholdSize < 1 {
		return fmt.Errorf("%w: household size must be at least 1", ErrInvalidProfile)
	}
	return nil
}

// IsValidCouponCode проверяет формат кода купона.
func IsValidCouponCode(code string) bool {
	return couponCodeRe.MatchString(code)
}
