// Package metrics содержит доменные метрики Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmeshcher/carbonos/internal/model"
)

var (
	activitiesLogged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carbonos",
		Subsystem: "activities",
		Name:      "logged_total",
		Help:      "Number of activities logged, by category.",
	}, []string{"category"})
	activityEmissions = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "carbonos",
		Subsystem: "activities",
		Name:      "emissions_kg",
		Help:      "Estimated CO2e of a single logged activity in kilograms.",
		Buckets:   []float64{0, 0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
	}, []string{"category"})
	couponsRedeemed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carbonos",
		Subsystem: "coupons",
		Name:      "redeemed_total",
		Help:      "Number of coupons redeemed, by partner business.",
	}, []string{"business"})
	couponsUsed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "carbonos",
		Subsystem: "coupons",
		Name:      "used_total",
		Help:      "Number of coupons marked as used.",
	})
	pointsSpent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "carbonos",
		Subsystem: "rewards",
		Name:      "points_spent_total",
		Help:      "Total points spent on coupons.",
	})
	redeemRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "carbonos",
		Subsystem: "coupons",
		Name:      "redeem_rejected_total",
		Help:      "Number of redemptions rejected for insufficient points.",
	})
)

func init() {
	prometheus.MustRegister(
		activitiesLogged,
		activityEmissions,
		couponsRedeemed,
		couponsUsed,
		pointsSpent,
		redeemRejected,
	)
}

// RecordActivity учитывает сохранённую активность.
func RecordActivity(a model.Activity) {
	activitiesLogged.WithLabelValues(string(a.Category)).Inc()
	activityEmissions.WithLabelValues(string(a.Category)).Observe(a.Emissions)
}

// RecordRedeem учитывает полученный купон.
func RecordRedeem(c model.RedeemedCoupon) {
	couponsRedeemed.WithLabelValues(c.BusinessID).Inc()
	pointsSpent.Add(float64(c.PointsCost))
}

// RecordRedeemRejected учитывает отказ в получении купона.
func RecordRedeemRejected() {
	redeemRejected.Inc()
}

// RecordCouponUsed учитывает использование купона.
func RecordCouponUsed() {
	couponsUsed.Inc()
}
