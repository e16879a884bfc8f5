// Package metrics holds the service's Prometheus collectors. Collectors are
// registered on the registry passed to New; a nil *Metrics records nothing,
// which keeps unit tests free of registry plumbing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fulfillment"

type Metrics struct {
	gatherer prometheus.Gatherer

	webhookEvents      *prometheus.CounterVec
	webhookDuration    prometheus.Histogram
	transitions        *prometheus.CounterVec
	dispatchAttempts   *prometheus.CounterVec
	dispatchDuration   prometheus.Histogram
	couponRedemptions  *prometheus.CounterVec
	reconciledEvents   *prometheus.CounterVec
	purgedEvents       prometheus.Counter
	httpRequestsTotal  *prometheus.CounterVec
	httpRequestLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. Passing a fresh
// prometheus.NewRegistry keeps tests isolated from each other.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Inbound courier webhooks by platform and outcome.",
		}, []string{"platform", "outcome"}),
		webhookDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_processing_duration_seconds",
			Help:      "Time spent handling one courier webhook.",
			Buckets:   prometheus.DefBuckets,
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Applied order state transitions by event and actor.",
		}, []string{"event", "actor"}),
		dispatchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_attempts_total",
			Help:      "Create-delivery calls to the courier platform by result.",
		}, []string{"result"}),
		dispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Wall time of a full dispatch including retries.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 40},
		}),
		couponRedemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_redemptions_total",
			Help:      "Coupon redemption attempts by result.",
		}, []string{"result"}),
		reconciledEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_reconciled_total",
			Help:      "Deferred webhook events retried by the reconciliation job.",
		}, []string{"outcome"}),
		purgedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_purged_total",
			Help:      "Webhook event rows removed after the replay window.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.webhookEvents,
		m.webhookDuration,
		m.transitions,
		m.dispatchAttempts,
		m.dispatchDuration,
		m.couponRedemptions,
		m.reconciledEvents,
		m.purgedEvents,
		m.httpRequestsTotal,
		m.httpRequestLatency,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) WebhookProcessed(platform, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(platform, outcome).Inc()
	m.webhookDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) TransitionApplied(event, actor string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(event, actor).Inc()
}

func (m *Metrics) DispatchAttempt(result string) {
	if m == nil {
		return
	}
	m.dispatchAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) DispatchFinished(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dispatchDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) CouponRedemption(result string) {
	if m == nil {
		return
	}
	m.couponRedemptions.WithLabelValues(result).Inc()
}

func (m *Metrics) WebhookReconciled(outcome string) {
	if m == nil {
		return
	}
	m.reconciledEvents.WithLabelValues(outcome).Inc()
}

func (m *Metrics) WebhookEventsPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.purgedEvents.Add(float64(n))
}

func (m *Metrics) HTTPRequest(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.httpRequestLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
