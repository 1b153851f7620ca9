package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/carbonos/internal/model"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, c.Write(metric))
	return metric.GetCounter().GetValue()
}

func histogramSampleCount(t *testing.T, category string) uint64 {
	t.Helper()

	h, ok := activityEmissions.WithLabelValues(category).(prometheus.Histogram)
	require.True(t, ok)

	metric := &dto.Metric{}
	require.NoError(t, h.Write(metric))
	hist := metric.GetHistogram()
	require.NotNil(t, hist)
	return hist.GetSampleCount()
}

func TestRecordActivity(t *testing.T) {
	category := string(model.CategoryEnergy)
	beforeCount := counterValue(t, activitiesLogged.WithLabelValues(category))
	beforeSamples := histogramSampleCount(t, category)

	RecordActivity(model.Activity{Category: model.CategoryEnergy, Type: "home", Hours: 2, Emissions: 1})

	assert.Equal(t, beforeCount+1, counterValue(t, activitiesLogged.WithLabelValues(category)))
	assert.Equal(t, beforeSamples+1, histogramSampleCount(t, category))
}

func TestRecordRedeem(t *testing.T) {
	beforeRedeemed := counterValue(t, couponsRedeemed.WithLabelValues("biz_test"))
	beforeSpent := counterValue(t, pointsSpent)

	RecordRedeem(model.RedeemedCoupon{BusinessID: "biz_test", PointsCost: 30})

	assert.Equal(t, beforeRedeemed+1, counterValue(t, couponsRedeemed.WithLabelValues("biz_test")))
	assert.Equal(t, beforeSpent+30, counterValue(t, pointsSpent))
}

func TestCouponCounters(t *testing.T) {
	beforeRejected := counterValue(t, redeemRejected)
	beforeUsed := counterValue(t, couponsUsed)

	RecordRedeemRejected()
	RecordCouponUsed()
	RecordCouponUsed()

	assert.Equal(t, beforeRejected+1, counterValue(t, redeemRejected))
	assert.Equal(t, beforeUsed+2, counterValue(t, couponsUsed))
}
