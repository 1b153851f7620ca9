package handler

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/carbonos/internal/middleware"
	"github.com/mmeshcher/carbonos/internal/model"
	"github.com/mmeshcher/carbonos/internal/rewards"
	"github.com/mmeshcher/carbonos/internal/service"
	"github.com/mmeshcher/carbonos/internal/storage"
	"github.com/mmeshcher/carbonos/internal/validation"
)

type stubService struct {
	logged   model.Activity
	logErr   error
	lastUser string

	activities    []model.Activity
	activitiesErr error

	summary    model.EmissionsSummary
	seriesDays int
	seriesErr  error

	redeemCoupon model.RedeemedCoupon
	redeemErr    error

	useErr error
}

func (s *stubService) LogActivity(ctx context.Context, user string, a model.Activity) (model.Activity, error) {
	s.lastUser = user
	if s.logErr != nil {
		return model.Activity{}, s.logErr
	}
	a.ID = "a1"
	s.logged = a
	return a, nil
}

func (s *stubService) Activities(ctx context.Context, user string) ([]model.Activity, error) {
	return s.activities, s.activitiesErr
}

func (s *stubService) Summary(ctx context.Context, user string, period model.Period) (model.EmissionsSummary, error) {
	s.summary.Period = period
	return s.summary, nil
}

func (s *stubService) Series(ctx context.Context, user string, days int) ([]model.TimeSeriesPoint, error) {
	s.seriesDays = days
	if s.seriesErr != nil {
		return nil, s.seriesErr
	}
	return make([]model.TimeSeriesPoint, days), nil
}

func (s *stubService) Rewards(ctx context.Context, user string) (model.RewardsSummary, error) {
	return model.RewardsSummary{}, nil
}

func (s *stubService) Businesses(category string) []model.Business {
	return []model.Business{{ID: "biz_001", Category: category}}
}

func (s *stubService) Categories() []string {
	return []string{"all", "food"}
}

func (s *stubService) Redeem(ctx context.Context, user, businessID string, points int) (model.RedeemedCoupon, error) {
	return s.redeemCoupon, s.redeemErr
}

func (s *stubService) Coupons(ctx context.Context, user string) (model.CouponsOverview, error) {
	return model.CouponsOverview{}, nil
}

func (s *stubService) MarkCouponUsed(ctx context.Context, user, couponID string) (model.RedeemedCoupon, error) {
	return model.RedeemedCoupon{ID: couponID, Used: true}, s.useErr
}

func (s *stubService) Profile(ctx context.Context, user string) (model.Profile, bool, error) {
	return model.Profile{}, false, nil
}

func (s *stubService) SaveProfile(ctx context.Context, user string, p model.Profile) error {
	return nil
}

func (s *stubService) OnboardingComplete(ctx context.Context, user string) (bool, error) {
	return false, nil
}

func (s *stubService) SleepMode(ctx context.Context, user string) (bool, error) {
	return false, nil
}

func (s *stubService) SetSleepMode(ctx context.Context, user string, enabled bool) error {
	return nil
}

func (s *stubService) Insights(ctx context.Context, user string) (model.Insights, error) {
	return model.Insights{}, nil
}

func (s *stubService) ClearData(ctx context.Context, user string) error {
	return nil
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	return NewHandler(svc, zap.NewNop(), middleware.NewAuthMiddleware("test-secret"))
}

func authCookie(t *testing.T, h *Handler, user string) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	h.authMiddleware.SetAuthCookie(rec, user)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func do(t *testing.T, h http.Handler, cookie *http.Cookie, method, target, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Result()
}

func TestLogin(t *testing.T) {
	h := newTestHandler(t, &stubService{})
	router := h.SetupRouter()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "ok", body: `{"login":"alice"}`, status: http.StatusOK},
		{name: "empty login", body: `{"login":"  "}`, status: http.StatusBadRequest},
		{name: "too long", body: fmt.Sprintf(`{"login":%q}`, strings.Repeat("a", maxLoginLength+1)), status: http.StatusBadRequest},
		{name: "not json", body: `login=alice`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(t, router, nil, http.MethodPost, "/api/user/login", tt.body)
			defer res.Body.Close()

			assert.Equal(t, tt.status, res.StatusCode)
			if tt.status == http.StatusOK {
				assert.NotEmpty(t, res.Cookies())
			}
		})
	}
}

func TestProtectedRoutesRequireCookie(t *testing.T) {
	router := newTestHandler(t, &stubService{}).SetupRouter()

	for _, target := range []string{"/api/user/activities", "/api/user/rewards", "/api/user/coupons", "/api/user/insights"} {
		res := do(t, router, nil, http.MethodGet, target, "")
		res.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, target)
	}
}

func TestLogActivity(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{name: "created", body: `{"category":"transportation","type":"car","distance":10}`, status: http.StatusCreated},
		{name: "invalid", body: `{"category":"diet","type":"beef"}`, err: fmt.Errorf("%w: unknown category", validation.ErrInvalidActivity), status: http.StatusUnprocessableEntity},
		{name: "sleep mode", body: `{"category":"shopping","type":"online"}`, err: service.ErrSleepMode, status: http.StatusConflict},
		{name: "storage failure", body: `{"category":"shopping","type":"online"}`, err: errors.New("disk full"), status: http.StatusInternalServerError},
		{name: "bad json", body: `{`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{logErr: tt.err}
			h := newTestHandler(t, svc)

			res := do(t, h.SetupRouter(), authCookie(t, h, "alice"), http.MethodPost, "/api/user/activities", tt.body)
			defer res.Body.Close()

			require.Equal(t, tt.status, res.StatusCode)
			if tt.status == http.StatusCreated {
				assert.Equal(t, "alice", svc.lastUser)
				assert.Equal(t, model.CategoryTransportation, svc.logged.Category)
				assert.Equal(t, 10.0, svc.logged.Distance)
			}
		})
	}
}

func TestGetActivities_NoContent(t *testing.T) {
	h := newTestHandler(t, &stubService{activities: []model.Activity{}})

	res := do(t, h.SetupRouter(), authCookie(t, h, "alice"), http.MethodGet, "/api/user/activities", "")
	defer res.Body.Close()

	assert.Equal(t, http.StatusNoContent, res.StatusCode)
}

func TestGetEmissions(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)
	router := h.SetupRouter()
	cookie := authCookie(t, h, "alice")

	res := do(t, router, cookie, http.MethodGet, "/api/user/emissions?period=weekly", "")
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var got model.EmissionsSummary
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, model.PeriodWeekly, got.Period)

	res = do(t, router, cookie, http.MethodGet, "/api/user/emissions?period=yearly", "")
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGetSeries(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)
	router := h.SetupRouter()
	cookie := authCookie(t, h, "alice")

	res := do(t, router, cookie, http.MethodGet, "/api/user/emissions/series", "")
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, defaultSeriesDays, svc.seriesDays)

	res = do(t, router, cookie, http.MethodGet, "/api/user/emissions/series?days=abc", "")
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	svc.seriesErr = service.ErrInvalidDays
	res = do(t, router, cookie, http.MethodGet, "/api/user/emissions/series?days=1000", "")
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestRedeemStatuses(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{name: "created", body: `{"business_id":"biz_001","points":15}`, status: http.StatusCreated},
		{name: "not enough points", body: `{"business_id":"biz_001","points":15}`, err: rewards.ErrInsufficientPoints, status: http.StatusPaymentRequired},
		{name: "unknown business", body: `{"business_id":"biz_404","points":15}`, err: service.ErrBusinessNotFound, status: http.StatusNotFound},
		{name: "unknown offer", body: `{"business_id":"biz_001","points":7}`, err: service.ErrOfferNotFound, status: http.StatusNotFound},
		{name: "no business", body: `{"points":15}`, status: http.StatusBadRequest},
		{name: "no points", body: `{"business_id":"biz_001"}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{redeemErr: tt.err, redeemCoupon: model.RedeemedCoupon{ID: "c1"}})

			res := do(t, h.SetupRouter(), authCookie(t, h, "alice"), http.MethodPost, "/api/user/coupons", tt.body)
			defer res.Body.Close()

			assert.Equal(t, tt.status, res.StatusCode)
		})
	}
}

func TestUseCoupon(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)
	router := h.SetupRouter()
	cookie := authCookie(t, h, "alice")

	res := do(t, router, cookie, http.MethodPost, "/api/user/coupons/c42/use", "")
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var got model.RedeemedCoupon
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, "c42", got.ID)
	assert.True(t, got.Used)

	svc.useErr = service.ErrCouponNotFound
	res = do(t, router, cookie, http.MethodPost, "/api/user/coupons/c43/use", "")
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestMarketplaceIsPublic(t *testing.T) {
	router := newTestHandler(t, &stubService{}).SetupRouter()

	res := do(t, router, nil, http.MethodGet, "/api/marketplace/businesses?category=food", "")
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var got []model.Business
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "food", got[0].Category)

	res = do(t, router, nil, http.MethodGet, "/api/marketplace/categories", "")
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestHandler(t, &stubService{}).SetupRouter()

	res := do(t, router, nil, http.MethodGet, "/metrics", "")
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestSleepModeBody(t *testing.T) {
	h := newTestHandler(t, &stubService{})
	router := h.SetupRouter()
	cookie := authCookie(t, h, "alice")

	res := do(t, router, cookie, http.MethodPut, "/api/user/sleep-mode", `{"enabled":true}`)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = do(t, router, cookie, http.MethodPut, "/api/user/sleep-mode", `{}`)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

// Полный сценарий поверх настоящего сервиса и хранилища в памяти.
func TestEndToEnd(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	svc := service.NewService(storage.NewMemoryStore(), service.WithClock(func() time.Time { return now }))
	h := newTestHandler(t, svc)
	router := h.SetupRouter()

	res := do(t, router, nil, http.MethodPost, "/api/user/login", `{"login":"alice"}`)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	cookie := res.Cookies()[0]

	res = do(t, router, cookie, http.MethodPut, "/api/user/profile",
		`{"transportation":["bike"],"shoppingFrequency":"low","dietType":"vegan","energyUsage":"low","householdSize":1}`)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = do(t, router, cookie, http.MethodGet, "/api/user/onboarding", "")
	var onboarding map[string]bool
	require.NoError(t, json.NewDecoder(res.Body).Decode(&onboarding))
	res.Body.Close()
	assert.True(t, onboarding["complete"])

	res = do(t, router, cookie, http.MethodPost, "/api/user/activities",
		`{"category":"transportation","type":"car","distance":10}`)
	var created model.Activity
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, 4.0, created.Emissions)

	res = do(t, router, cookie, http.MethodGet, "/api/user/emissions?period=daily", "")
	var summary model.EmissionsSummary
	require.NoError(t, json.NewDecoder(res.Body).Decode(&summary))
	res.Body.Close()
	assert.Equal(t, 4.0, summary.Total)
	assert.Equal(t, "9.1", summary.Comparison.Percentage)
	assert.True(t, summary.Comparison.BetterThanAverage)

	res = do(t, router, cookie, http.MethodPut, "/api/user/sleep-mode", `{"enabled":true}`)
	res.Body.Close()
	res = do(t, router, cookie, http.MethodPost, "/api/user/activities",
		`{"category":"shopping","type":"online"}`)
	res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res = do(t, router, cookie, http.MethodPost, "/api/user/coupons", `{"business_id":"biz_001","points":15}`)
	res.Body.Close()
	assert.Equal(t, http.StatusPaymentRequired, res.StatusCode)

	res = do(t, router, cookie, http.MethodDelete, "/api/user/data", "")
	res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res = do(t, router, cookie, http.MethodGet, "/api/user/activities", "")
	res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
}

func TestGzipRoundTrip(t *testing.T) {
	h := newTestHandler(t, &stubService{})
	router := h.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/marketplace/categories", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	gr, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer gr.Close()

	var got []string
	require.NoError(t, json.NewDecoder(gr).Decode(&got))
	assert.Equal(t, []string{"all", "food"}, got)
}
