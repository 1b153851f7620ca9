package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mmeshcher/carbonos/internal/model"
)

// UserData предоставляет типизированный доступ к данным одного пользователя.
// Отсутствующие значения возвращаются как пустые.
type UserData struct {
	store Store
	user  string
}

// ForUser возвращает accessor данных пользователя.
func ForUser(store Store, user string) *UserData {
	return &UserData{store: store, user: user}
}

func load[T any](ctx context.Context, d *UserData, key string, dst *T) (bool, error) {
	raw, ok, err := d.store.Load(ctx, d.user, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupted, StorageKey(d.user, key), err)
	}
	return true, nil
}

func save[T any](ctx context.Context, d *UserData, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return d.store.Save(ctx, d.user, key, raw)
}

// Activities возвращает историю активностей.
func (d *UserData) Activities(ctx context.Context) ([]model.Activity, error) {
	var res []model.Activity
	if _, err := load(ctx, d, KeyActivities, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// SaveActivities сохраняет историю активностей.
func (d *UserData) SaveActivities(ctx context.Context, activities []model.Activity) error {
	if activities == nil {
		activities = []model.Activity{}
	}
	return save(ctx, d, KeyActivities, activities)
}

// Rewards возвращает сохранённое состояние наград.
func (d *UserData) Rewards(ctx context.Context) (model.RewardsState, error) {
	var res model.RewardsState
	if _, err := load(ctx, d, KeyRewards, &res); err != nil {
		return model.RewardsState{}, err
	}
	return res, nil
}

// SaveRewards сохраняет состояние наград.
func (d *UserData) SaveRewards(ctx context.Context, state model.RewardsState) error {
	return save(ctx, d, KeyRewards, state)
}

// Coupons возвращает полученные купоны.
func (d *UserData) Coupons(ctx context.Context) ([]model.RedeemedCoupon, error) {
	var res []model.RedeemedCoupon
	if _, err := load(ctx, d, KeyRedeemedCoupons, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// SaveCoupons сохраняет полученные купоны.
func (d *UserData) SaveCoupons(ctx context.Context, coupons []model.RedeemedCoupon) error {
	if coupons == nil {
		coupons = []model.RedeemedCoupon{}
	}
	return save(ctx, d, KeyRedeemedCoupons, coupons)
}

// SaveRedemption атомарно сохраняет состояние наград и купоны.
func (d *UserData) SaveRedemption(ctx context.Context, state model.RewardsState, coupons []model.RedeemedCoupon) error {
	if coupons == nil {
		coupons = []model.RedeemedCoupon{}
	}

	rawState, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", KeyRewards, err)
	}
	rawCoupons, err := json.Marshal(coupons)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", KeyRedeemedCoupons, err)
	}

	return d.store.SaveMany(ctx, d.user, map[string][]byte{
		KeyRewards:         rawState,
		KeyRedeemedCoupons: rawCoupons,
	})
}

// Profile возвращает анкету пользователя и признак её наличия.
func (d *UserData) Profile(ctx context.Context) (model.Profile, bool, error) {
	var res model.Profile
	ok, err := load(ctx, d, KeyProfile, &res)
	if err != nil {
		return model.Profile{}, false, err
	}
	return res, ok, nil
}

// SaveProfile сохраняет анкету пользователя.
func (d *UserData) SaveProfile(ctx context.Context, p model.Profile) error {
	return save(ctx, d, KeyProfile, p)
}

// OnboardingComplete сообщает, прошёл ли пользователь анкету.
func (d *UserData) OnboardingComplete(ctx context.Context) (bool, error) {
	return d.flag(ctx, KeyOnboardingComplete)
}

// SetOnboardingComplete сохраняет признак прохождения анкеты.
func (d *UserData) SetOnboardingComplete(ctx context.Context, done bool) error {
	return save(ctx, d, KeyOnboardingComplete, done)
}

// SleepMode сообщает, включён ли режим сна.
func (d *UserData) SleepMode(ctx context.Context) (bool, error) {
	return d.flag(ctx, KeySleepMode)
}

// SetSleepMode включает или выключает режим сна.
func (d *UserData) SetSleepMode(ctx context.Context, enabled bool) error {
	return save(ctx, d, KeySleepMode, enabled)
}

// Achievements возвращает идентификаторы полученных достижений.
func (d *UserData) Achievements(ctx context.Context) ([]string, error) {
	var res []string
	if _, err := load(ctx, d, KeyAchievements, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// SaveAchievements сохраняет идентификаторы полученных достижений.
func (d *UserData) SaveAchievements(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return save(ctx, d, KeyAchievements, ids)
}

// Clear удаляет все данные пользователя.
func (d *UserData) Clear(ctx context.Context) error {
	return d.store.Delete(ctx, d.user, AllKeys()...)
}

func (d *UserData) flag(ctx context.Context, key string) (bool, error) {
	var v bool
	if _, err := load(ctx, d, key, &v); err != nil {
		return false, err
	}
	return v, nil
}
