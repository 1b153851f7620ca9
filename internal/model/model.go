// Package model содержит доменные сущности сервиса учёта углеродного следа.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Category описывает категорию активности пользователя.
type Category string

const (
	CategoryTransportation Category = "transportation"
	CategoryShopping       Category = "shopping"
	CategoryEnergy         Category = "energy"
)

// Categories возвращает все категории в порядке отображения.
func Categories() []Category {
	return []Category{CategoryTransportation, CategoryShopping, CategoryEnergy}
}

// Activity описывает одно действие пользователя и рассчитанные для него выбросы.
type Activity struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	Type      string    `json:"type"`
	Distance  float64   `json:"distance"`
	Hours     float64   `json:"hours"`
	Emissions float64   `json:"emissions"`
	Timestamp time.Time `json:"timestamp"`
}

// Period описывает окно агрегации выбросов.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Days возвращает длину периода в днях.
func (p Period) Days() int {
	switch p {
	case PeriodWeekly:
		return 7
	case PeriodMonthly:
		return 30
	default:
		return 1
	}
}

// ParsePeriod разбирает строковое представление периода.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "daily", "day":
		return PeriodDaily, nil
	case "weekly", "week":
		return PeriodWeekly, nil
	case "monthly", "month":
		return PeriodMonthly, nil
	default:
		return PeriodDaily, fmt.Errorf("unknown period %q", s)
	}
}

// CategoryEmissions содержит сумму выбросов одной категории.
type CategoryEmissions struct {
	Category Category `json:"category"`
	Value    float64  `json:"value"`
}

// EmissionsBreakdown всегда содержит все три категории.
type EmissionsBreakdown []CategoryEmissions

// Value возвращает значение для категории или 0.
func (b EmissionsBreakdown) Value(c Category) float64 {
	for _, e := range b {
		if e.Category == c {
			return e.Value
		}
	}
	return 0
}

// Comparison содержит результат сравнения со средним по стране.
type Comparison struct {
	Average           float64 `json:"average"`
	UserEmissions     float64 `json:"userEmissions"`
	Percentage        string  `json:"percentage"`
	BetterThanAverage bool    `json:"betterThanAverage"`
}

// TimeSeriesPoint описывает выбросы за один календарный день.
type TimeSeriesPoint struct {
	Date      string  `json:"date"`
	Day       string  `json:"day"`
	Emissions float64 `json:"emissions"`
	Average   float64 `json:"average"`
}

// StreakResult содержит результат пересчёта серии и баллов по истории активностей.
type StreakResult struct {
	CurrentStreak int `json:"currentStreak"`
	LongestStreak int `json:"longestStreak"`
	TotalPoints   int `json:"totalPoints"`
}

// RewardsState хранит агрегат наград пользователя.
type RewardsState struct {
	CurrentStreak int `json:"currentStreak"`
	LongestStreak int `json:"longestStreak"`
	TotalPoints   int `json:"totalPoints"`
	SpentPoints   int `json:"spentPoints"`
}

// Tier описывает уровень предложения. Используется только для отображения.
type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// CouponOffer описывает предложение партнёра за баллы.
type CouponOffer struct {
	Points   int    `json:"points" yaml:"points"`
	Discount string `json:"discount" yaml:"discount"`
	Tier     Tier   `json:"tier" yaml:"tier"`
}

// Business описывает партнёра в каталоге вознаграждений.
type Business struct {
	ID                      string        `json:"id" yaml:"id"`
	Name                    string        `json:"name" yaml:"name"`
	Category                string        `json:"category" yaml:"category"`
	Sustainable             bool          `json:"sustainable" yaml:"sustainable"`
	Description             string        `json:"description" yaml:"description"`
	Location                string        `json:"location" yaml:"location"`
	SustainabilityPractices string        `json:"sustainabilityPractices" yaml:"sustainability_practices"`
	Logo                    string        `json:"logo" yaml:"logo"`
	Coupons                 []CouponOffer `json:"coupons" yaml:"coupons"`
}

// RedeemedCoupon описывает купон, полученный пользователем в обмен на баллы.
type RedeemedCoupon struct {
	ID               string    `json:"id"`
	BusinessID       string    `json:"businessId"`
	BusinessName     string    `json:"businessName"`
	BusinessLogo     string    `json:"businessLogo"`
	BusinessLocation string    `json:"businessLocation"`
	Code             string    `json:"code"`
	Discount         string    `json:"discount"`
	PointsCost       int       `json:"pointsCost"`
	RedeemedDate     time.Time `json:"redeemedDate"`
	ExpiresDate      time.Time `json:"expiresDate"`
	Used             bool      `json:"used"`
}

// CouponBucket описывает группу купона при отображении.
type CouponBucket string

const (
	BucketActive  CouponBucket = "active"
	BucketUsed    CouponBucket = "used"
	BucketExpired CouponBucket = "expired"
)

// CouponBuckets содержит купоны пользователя, разложенные по группам.
type CouponBuckets struct {
	Active  []RedeemedCoupon `json:"active"`
	Used    []RedeemedCoupon `json:"used"`
	Expired []RedeemedCoupon `json:"expired"`
}

// Profile содержит ответы пользователя из анкеты при первом входе.
type Profile struct {
	Transportation    []string `json:"transportation"`
	ShoppingFrequency string   `json:"shoppingFrequency"`
	DietType          string   `json:"dietType"`
	EnergyUsage       string   `json:"energyUsage"`
	HouseholdSize     int      `json:"householdSize"`
}

// Achievement описывает достижение и признак его получения.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
}

// Tip описывает персональную рекомендацию.
type Tip struct {
	Category string `json:"category"`
	Tip      string `json:"tip"`
	Icon     string `json:"icon"`
}

// EmissionsSummary содержит сводку выбросов пользователя за период.
type EmissionsSummary struct {
	Period     Period             `json:"period"`
	Total      float64            `json:"total"`
	Comparison Comparison         `json:"comparison"`
	Breakdown  EmissionsBreakdown `json:"breakdown"`
}

// RewardsSummary содержит состояние наград и доступный баланс баллов.
type RewardsSummary struct {
	RewardsState
	AvailablePoints int `json:"availablePoints"`
}

// CouponView описывает купон с числом оставшихся дней действия.
type CouponView struct {
	RedeemedCoupon
	DaysLeft int `json:"daysLeft"`
}

// CouponsOverview содержит купоны пользователя по группам.
type CouponsOverview struct {
	Active  []CouponView `json:"active"`
	Used    []CouponView `json:"used"`
	Expired []CouponView `json:"expired"`
}

// Insights содержит достижения и рекомендации пользователя.
type Insights struct {
	Achievements []Achievement `json:"achievements"`
	Tips         []Tip         `json:"tips"`
}
