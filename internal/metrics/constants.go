package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metric names
const (
	MetricNameHTTPRequestsTotal    = "supershop_http_requests_total"
	MetricNameHTTPRequestDuration  = "supershop_http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "supershop_http_requests_in_flight"

	MetricNameShopsCreated     = "supershop_shops_created_total"
	MetricNameShopsRemoved     = "supershop_shops_removed_total"
	MetricNamePurchases        = "supershop_purchases_total"
	MetricNamePurchaseFailures = "supershop_purchase_failures_total"
	MetricNameItemsSold        = "supershop_items_sold_total"
	MetricNameRevenueCollected = "supershop_revenue_items_collected_total"
	MetricNameRegisteredShops  = "supershop_registered_shops"
)

// Help texts
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests processed"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Number of HTTP requests currently being served"

	HelpTextShopsCreated     = "Total number of shops created"
	HelpTextShopsRemoved     = "Total number of shops removed, by removal mode"
	HelpTextPurchases        = "Total number of completed purchases"
	HelpTextPurchaseFailures = "Total number of rejected purchases, by reason"
	HelpTextItemsSold        = "Total units sold across all shops"
	HelpTextRevenueCollected = "Total revenue items collected by shop owners"
	HelpTextRegisteredShops  = "Number of shops currently held in the registry"
)

// Label names
const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelReason = "reason"
	LabelMode   = "mode"
)

// HTTPLatencyBuckets are the histogram buckets for request latency.
var HTTPLatencyBuckets = prometheus.DefBuckets
