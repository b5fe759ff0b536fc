package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ForecastAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastdash_forecast_api_calls_total",
			Help: "Total OpenWeatherMap forecast API calls",
		},
		[]string{"city", "outcome"},
	)

	ForecastAPILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forecastdash_forecast_api_latency_seconds",
			Help:    "Forecast API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"city"},
	)

	RowsNormalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastdash_rows_normalized_total",
			Help: "Total forecast rows produced by the normalizer",
		},
		[]string{"city"},
	)

	DashboardRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastdash_dashboard_renders_total",
			Help: "Dashboard renders by surface and outcome",
		},
		[]string{"surface", "outcome"},
	)
)
