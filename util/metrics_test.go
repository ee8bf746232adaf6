package util

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestSumMetricValues(t *testing.T) {
	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_sum_metric_values_total",
		Help: "test counter",
	}, []string{"part"})
	counterVec.WithLabelValues("a").Add(3)
	counterVec.WithLabelValues("b").Add(4)

	assert.Equal(t, 7.0, SumMetricValues(counterVec))
}
