// Package handler содержит HTTP-обработчики API сервиса учёта углеродного следа.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mmeshcher/carbonos/internal/middleware"
	"github.com/mmeshcher/carbonos/internal/model"
	"github.com/mmeshcher/carbonos/internal/rewards"
	"github.com/mmeshcher/carbonos/internal/service"
	"github.com/mmeshcher/carbonos/internal/validation"
)

const (
	maxLoginLength    = 64
	defaultSeriesDays = 7
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	LogActivity(ctx context.Context, user string, a model.Activity) (model.Activity, error)
	Activities(ctx context.Context, user string) ([]model.Activity, error)
	Summary(ctx context.Context, user string, period model.Period) (model.EmissionsSummary, error)
	Series(ctx context.Context, user string, days int) ([]model.TimeSeriesPoint, error)
	Rewards(ctx context.Context, user string) (model.RewardsSummary, error)
	Businesses(category string) []model.Business
	Categories() []string
	Redeem(ctx context.Context, user, businessID string, points int) (model.RedeemedCoupon, error)
	Coupons(ctx context.Context, user string) (model.CouponsOverview, error)
	MarkCouponUsed(ctx context.Context, user, couponID string) (model.RedeemedCoupon, error)
	Profile(ctx context.Context, user string) (model.Profile, bool, error)
	SaveProfile(ctx context.Context, user string, p model.Profile) error
	OnboardingComplete(ctx context.Context, user string) (bool, error)
	SleepMode(ctx context.Context, user string) (bool, error)
	SetSleepMode(ctx context.Context, user string, enabled bool) error
	Insights(ctx context.Context, user string) (model.Insights, error)
	ClearData(ctx context.Context, user string) error
}

// Handler реализует HTTP-обработчики API.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

// fail отображает доменные ошибки в HTTP-статусы. Неизвестные ошибки логируются как 500.
func (h *Handler) fail(w http.ResponseWriter, err error, msg, user string) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, validation.ErrInvalidActivity), errors.Is(err, validation.ErrInvalidProfile):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrSleepMode):
		status = http.StatusConflict
	case errors.Is(err, rewards.ErrInsufficientPoints):
		status = http.StatusPaymentRequired
	case errors.Is(err, service.ErrBusinessNotFound),
		errors.Is(err, service.ErrOfferNotFound),
		errors.Is(err, service.ErrCouponNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidDays):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err), zap.String("user", user))
		http.Error(w, http.StatusText(status), status)
		return
	}

	http.Error(w, err.Error(), status)
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	}
	return user, ok
}

type loginRequest struct {
	Login string `json:"login"`
}

// Login устанавливает cookie пользователя. Пароль не проверяется: личность пользователя
// считается установленной внешней системой.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	login := strings.TrimSpace(req.Login)
	if login == "" || utf8.RuneCountInString(login) > maxLoginLength {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	h.authMiddleware.SetAuthCookie(w, login)

	done, err := h.service.OnboardingComplete(r.Context(), login)
	if err != nil {
		h.fail(w, err, "login error", login)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"login":              login,
		"onboardingComplete": done,
	})
}

// Logout удаляет cookie пользователя.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authMiddleware.ClearAuthCookie(w)
	w.WriteHeader(http.StatusOK)
}

// GetProfile возвращает анкету пользователя.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	p, found, err := h.service.Profile(r.Context(), user)
	if err != nil {
		h.fail(w, err, "get profile error", user)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

// PutProfile сохраняет анкету пользователя.
func (h *Handler) PutProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var p model.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.SaveProfile(r.Context(), user, p); err != nil {
		h.fail(w, err, "save profile error", user)
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

// GetOnboarding сообщает, прошёл ли пользователь анкету.
func (h *Handler) GetOnboarding(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	done, err := h.service.OnboardingComplete(r.Context(), user)
	if err != nil {
		h.fail(w, err, "get onboarding error", user)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"complete": done})
}

type sleepModeBody struct {
	Enabled *bool `json:"enabled"`
}

// GetSleepMode возвращает состояние режима сна.
func (h *Handler) GetSleepMode(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	enabled, err := h.service.SleepMode(r.Context(), user)
	if err != nil {
		h.fail(w, err, "get sleep mode error", user)
		return
	}

	h.writeJSON(w, http.StatusOK, sleepModeBody{Enabled: &enabled})
}

// PutSleepMode включает или выключает режим сна.
func (h *Handler) PutSleepMode(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req sleepModeBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.SetSleepMode(r.Context(), user, *req.Enabled); err != nil {
		h.fail(w, err, "set sleep mode error", user)
		return
	}

	h.writeJSON(w, http.StatusOK, req)
}

type activityRequest struct {
	Category  model.Category `json:"category"`
	Type      string         `json:"type"`
	Distance  float64        `json:"distance"`
	Hours     float64        `json:"hours"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
}

// LogActivity сохраняет новую активность пользователя.
func (h *Handler) LogActivity(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	a := model.Activity{
		Category: req.Category,
		Type:     req.Type,
		Distance: req.Distance,
		Hours:    req.Hours,
	}
	if req.Timestamp != nil {
		a.Timestamp = *req.Timestamp
	}

	saved, err := h.service.LogActivity(r.Context(), user, a)
	if err != nil {
		h.fail(w, err, "log activity error", user)
		return
	}

	h.writeJSON(w, http.StatusCreated, saved)
}

// GetActivities возвращает историю активностей пользователя.
func (h *Handler) GetActivities(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	activities, err := h.service.Activities(r.Context(), user)
	if err != nil {
		h.fail(w, err, "get activities error", user)
		return
	}

	if len(activities) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, activities)
}

// GetEmissions возвращает сводку выбросов за период.
func (h *Handler) GetEmissions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	period, err := model.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := h.service.Summary(r.Context(), user, period)
	if err != nil {
		h.fail(w, err, "get emissions error", user)
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// GetSeries возвращает выбросы по дням.
func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	days := defaultSeriesDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		days = n
	}

	series, err := h.service.Series(r.Context(), user, days)
	if err != nil {
		h.fail(w, err, "get series error", user)
		return
	}

	h.writeJSON(w, http.StatusOK, series)
}

// GetRewards возвращает серию, баллы и доступный баланс.
func (h *Handler) GetRewards(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Rewards(r.Context(), user)
	if err != nil {
		h.fail(w, err, "get rewards error", user)
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// GetInsights возвращает достижения и рекомендации.
func (h *Handler) GetInsights(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	res, err := h.service.Insights(r.Context(), user)
	if err != nil {
		h.fail(w, err, "get insights error", user)
		return
	}

	h.writeJSON(w, http.StatusOK, res)
}

// ClearData удаляет все данные пользователя.
func (h *Handler) ClearData(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearData(r.Context(), user); err != nil {
		h.fail(w, err, "clear data error", user)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
