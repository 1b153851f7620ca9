// Package service реализует бизнес-логику сервиса учёта углеродного следа.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/carbonos/internal/catalog"
	"github.com/mmeshcher/carbonos/internal/emissions"
	"github.com/mmeshcher/carbonos/internal/insights"
	"github.com/mmeshcher/carbonos/internal/metrics"
	"github.com/mmeshcher/carbonos/internal/model"
	"github.com/mmeshcher/carbonos/internal/rewards"
	"github.com/mmeshcher/carbonos/internal/storage"
	"github.com/mmeshcher/carbonos/internal/validation"
)

// MaxSeriesDays ограничивает длину временного ряда.
const MaxSeriesDays = 365

var (
	// ErrSleepMode возвращается при попытке записать активность в режиме сна.
	ErrSleepMode = errors.New("sleep mode is enabled")
	// ErrBusinessNotFound возвращается для неизвестного партнёра.
	ErrBusinessNotFound = errors.New("business not found")
	// ErrOfferNotFound возвращается, если у партнёра нет предложения с такой стоимостью.
	ErrOfferNotFound = errors.New("offer not found")
	// ErrCouponNotFound возвращается, если у пользователя нет купона с таким идентификатором.
	ErrCouponNotFound = errors.New("coupon not found")
	// ErrInvalidDays возвращается для недопустимой длины временного ряда.
	ErrInvalidDays = errors.New("invalid number of days")
)

// Service содержит бизнес-логику сервиса.
type Service struct {
	store      storage.Store
	businesses []model.Business
	now        func() time.Time
}

// Option настраивает сервис.
type Option func(*Service)

// WithClock задаёт источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithCatalog задаёт каталог партнёров вместо встроенного.
func WithCatalog(businesses []model.Business) Option {
	return func(s *Service) {
		s.businesses = businesses
	}
}

// NewService создаёт новый сервис с указанным хранилищем.
func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		businesses: catalog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// LogActivity проверяет активность, рассчитывает выбросы, сохраняет её и пересчитывает награды.
// Если время активности не задано, используется текущее.
func (s *Service) LogActivity(ctx context.Context, user string, a model.Activity) (model.Activity, error) {
	d := storage.ForUser(s.store, user)

	sleep, err := d.SleepMode(ctx)
	if err != nil {
		return model.Activity{}, err
	}
	if sleep {
		return model.Activity{}, ErrSleepMode
	}

	if err := validation.ValidateActivity(a); err != nil {
		return model.Activity{}, err
	}

	now := s.now()
	switch {
	case a.Timestamp.IsZero():
		a.Timestamp = now
	case a.Timestamp.After(now):
		return model.Activity{}, fmt.Errorf("%w: timestamp is in the future", validation.ErrInvalidActivity)
	}
	a.ID = uuid.NewString()
	a.Emissions = emissions.EmissionsFor(a)

	activities, err := d.Activities(ctx)
	if err != nil {
		return model.Activity{}, err
	}
	activities = append(activities, a)

	if err := d.SaveActivities(ctx, activities); err != nil {
		return model.Activity{}, err
	}
	if _, err := s.refreshRewards(ctx, d, activities, now); err != nil {
		return model.Activity{}, err
	}

	metrics.RecordActivity(a)
	return a, nil
}

func (s *Service) refreshRewards(ctx context.Context, d *storage.UserData, activities []model.Activity, now time.Time) (model.RewardsState, error) {
	prev, err := d.Rewards(ctx)
	if err != nil {
		return model.RewardsState{}, err
	}

	state := rewards.Merge(prev, rewards.CalculateStreakAndPoints(activities, now))
	if state != prev {
		if err := d.SaveRewards(ctx, state); err != nil {
			return model.RewardsState{}, err
		}
	}
	return state, nil
}

// Activities возвращает историю активностей пользователя.
func (s *Service) Activities(ctx context.Context, user string) ([]model.Activity, error) {
	return storage.ForUser(s.store, user).Activities(ctx)
}

// Summary возвращает выбросы за период, сравнение со средним и разбивку по категориям.
func (s *Service) Summary(ctx context.Context, user string, period model.Period) (model.EmissionsSummary, error) {
	activities, err := storage.ForUser(s.store, user).Activities(ctx)
	if err != nil {
		return model.EmissionsSummary{}, err
	}

	total := emissions.Round(emissions.InPeriod(activities, period, s.now()), 2)
	return model.EmissionsSummary{
		Period:     period,
		Total:      total,
		Comparison: emissions.Compare(total, period),
		Breakdown:  emissions.Breakdown(activities),
	}, nil
}

// Series возвращает выбросы по дням за последние days дней.
func (s *Service) Series(ctx context.Context, user string, days int) ([]model.TimeSeriesPoint, error) {
	if days < 1 || days > MaxSeriesDays {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDays, days)
	}

	activities, err := storage.ForUser(s.store, user).Activities(ctx)
	if err != nil {
		return nil, err
	}
	return emissions.TimeSeries(activities, days, s.now()), nil
}

// Rewards пересчитывает серию и баллы и возвращает состояние наград.
func (s *Service) Rewards(ctx context.Context, user string) (model.RewardsSummary, error) {
	d := storage.ForUser(s.store, user)

	activities, err := d.Activities(ctx)
	if err != nil {
		return model.RewardsSummary{}, err
	}

	state, err := s.refreshRewards(ctx, d, activities, s.now())
	if err != nil {
		return model.RewardsSummary{}, err
	}

	return model.RewardsSummary{
		RewardsState:    state,
		AvailablePoints: rewards.AvailablePoints(state),
	}, nil
}

// Businesses возвращает партнёров выбранной категории.
func (s *Service) Businesses(category string) []model.Business {
	return catalog.FilterByCategory(s.businesses, category)
}

// Categories возвращает категории каталога.
func (s *Service) Categories() []string {
	return catalog.Categories(s.businesses)
}

// Redeem обменивает баллы на купон партнёра.
func (s *Service) Redeem(ctx context.Context, user, businessID string, points int) (model.RedeemedCoupon, error) {
	b, ok := catalog.Find(s.businesses, businessID)
	if !ok {
		return model.RedeemedCoupon{}, fmt.Errorf("%w: %s", ErrBusinessNotFound, businessID)
	}
	offer, ok := catalog.FindOffer(b, points)
	if !ok {
		return model.RedeemedCoupon{}, fmt.Errorf("%w: %s for %d points", ErrOfferNotFound, businessID, points)
	}

	d := storage.ForUser(s.store, user)
	now := s.now()

	activities, err := d.Activities(ctx)
	if err != nil {
		return model.RedeemedCoupon{}, err
	}
	state, err := s.refreshRewards(ctx, d, activities, now)
	if err != nil {
		return model.RedeemedCoupon{}, err
	}

	coupon, err := rewards.Redeem(b, offer, rewards.AvailablePoints(state), now)
	if err != nil {
		if errors.Is(err, rewards.ErrInsufficientPoints) {
			metrics.RecordRedeemRejected()
		}
		return model.RedeemedCoupon{}, err
	}

	coupons, err := d.Coupons(ctx)
	if err != nil {
		return model.RedeemedCoupon{}, err
	}

	state.SpentPoints += offer.Points
	if err := d.SaveRedemption(ctx, state, append(coupons, coupon)); err != nil {
		return model.RedeemedCoupon{}, err
	}

	metrics.RecordRedeem(coupon)
	return coupon, nil
}

// Coupons возвращает купоны пользователя по группам.
func (s *Service) Coupons(ctx context.Context, user string) (model.CouponsOverview, error) {
	coupons, err := storage.ForUser(s.store, user).Coupons(ctx)
	if err != nil {
		return model.CouponsOverview{}, err
	}

	now := s.now()
	buckets := rewards.Categorize(coupons, now)
	return model.CouponsOverview{
		Active:  withDaysLeft(buckets.Active, now),
		Used:    withDaysLeft(buckets.Used, now),
		Expired: withDaysLeft(buckets.Expired, now),
	}, nil
}

func withDaysLeft(coupons []model.RedeemedCoupon, now time.Time) []model.CouponView {
	res := make([]model.CouponView, 0, len(coupons))
	for _, c := range coupons {
		res = append(res, model.CouponView{
			RedeemedCoupon: c,
			DaysLeft:       rewards.DaysUntilExpiration(c, now),
		})
	}
	return res
}

// MarkCouponUsed отмечает купон использованным. Повторная отметка ничего не меняет.
func (s *Service) MarkCouponUsed(ctx context.Context, user, couponID string) (model.RedeemedCoupon, error) {
	d := storage.ForUser(s.store, user)

	coupons, err := d.Coupons(ctx)
	if err != nil {
		return model.RedeemedCoupon{}, err
	}

	for i, c := range coupons {
		if c.ID != couponID {
			continue
		}
		if c.Used {
			return c, nil
		}

		coupons[i] = rewards.MarkUsed(c)
		if err := d.SaveCoupons(ctx, coupons); err != nil {
			return model.RedeemedCoupon{}, err
		}
		metrics.RecordCouponUsed()
		return coupons[i], nil
	}

	return model.RedeemedCoupon{}, fmt.Errorf("%w: %s", ErrCouponNotFound, couponID)
}

// Profile возвращает анкету пользователя и признак её наличия.
func (s *Service) Profile(ctx context.Context, user string) (model.Profile, bool, error) {
	return storage.ForUser(s.store, user).Profile(ctx)
}

// SaveProfile проверяет и сохраняет анкету, отмечая прохождение онбординга.
func (s *Service) SaveProfile(ctx context.Context, user string, p model.Profile) error {
	if err := validation.ValidateProfile(p); err != nil {
		return err
	}

	d := storage.ForUser(s.store, user)
	if err := d.SaveProfile(ctx, p); err != nil {
		return err
	}
	return d.SetOnboardingComplete(ctx, true)
}

// OnboardingComplete сообщает, прошёл ли пользователь анкету.
func (s *Service) OnboardingComplete(ctx context.Context, user string) (bool, error) {
	return storage.ForUser(s.store, user).OnboardingComplete(ctx)
}

// SleepMode сообщает, включён ли режим сна.
func (s *Service) SleepMode(ctx context.Context, user string) (bool, error) {
	return storage.ForUser(s.store, user).SleepMode(ctx)
}

// SetSleepMode включает или выключает режим сна.
func (s *Service) SetSleepMode(ctx context.Context, user string, enabled bool) error {
	return storage.ForUser(s.store, user).SetSleepMode(ctx, enabled)
}

// Insights возвращает достижения и рекомендации. Новые достижения сохраняются.
func (s *Service) Insights(ctx context.Context, user string) (model.Insights, error) {
	d := storage.ForUser(s.store, user)

	activities, err := d.Activities(ctx)
	if err != nil {
		return model.Insights{}, err
	}
	unlocked, err := d.Achievements(ctx)
	if err != nil {
		return model.Insights{}, err
	}

	now := s.now()
	today := emissions.Compare(emissions.InPeriod(activities, model.PeriodDaily, now), model.PeriodDaily)
	achievements := insights.Achievements(activities, today, unlocked, now.Location())

	if ids := insights.UnlockedIDs(achievements); len(ids) != len(unlocked) {
		if err := d.SaveAchievements(ctx, ids); err != nil {
			return model.Insights{}, err
		}
	}

	return model.Insights{
		Achievements: achievements,
		Tips:         insights.Tips(emissions.Breakdown(activities), emissions.Total(activities), today),
	}, nil
}

// ClearData удаляет все данные пользователя.
func (s *Service) ClearData(ctx context.Context, user string) error {
	return storage.ForUser(s.store, user).Clear(ctx)
}
