package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Business Metrics
var (
	ShopsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameShopsCreated,
			Help: HelpTextShopsCreated,
		},
	)

	ShopsRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameShopsRemoved,
			Help: HelpTextShopsRemoved,
		},
		[]string{LabelMode},
	)

	Purchases = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNamePurchases,
			Help: HelpTextPurchases,
		},
	)

	PurchaseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePurchaseFailures,
			Help: HelpTextPurchaseFailures,
		},
		[]string{LabelReason},
	)

	ItemsSold = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameItemsSold,
			Help: HelpTextItemsSold,
		},
	)

	RevenueCollected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameRevenueCollected,
			Help: HelpTextRevenueCollected,
		},
	)

	RegisteredShops = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameRegisteredShops,
			Help: HelpTextRegisteredShops,
		},
	)
)
