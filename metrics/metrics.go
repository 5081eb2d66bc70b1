// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "riot"

var (
	// Registry holds the application collectors
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
	}, []string{"method", "route"})

	orders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_total",
		Help:      "Orders moved into a status, by status and source.",
	}, []string{"status", "source"})

	chatMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_messages_total",
		Help:      "Chat messages accepted.",
	})

	chatRateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_rate_limited_total",
		Help:      "Chat messages rejected by the per-user rate limit.",
	})

	triviaAnswers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trivia_answers_total",
		Help:      "Trivia answers recorded, by correctness.",
	}, []string{"correct"})

	webhookEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "paypal_webhook_events_total",
		Help:      "PayPal webhook deliveries, by event type and outcome.",
	}, []string{"event_type", "outcome"})

	reconcilerOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "reconciler_orders_total",
		Help:      "Pending orders examined by the reconciler, by outcome.",
	}, []string{"outcome"})

	streamTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "stream_transitions_total",
		Help:      "Live stream status changes observed by the monitor.",
	}, []string{"status"})

	vodNotifications = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "vod_notifications_total",
		Help:      "new_vod broadcasts sent.",
	})

	jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "runs_total",
		Help:      "Scheduled job runs, by job and success.",
	}, []string{"job", "success"})

	jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "run_duration_seconds",
		Help:      "Duration of scheduled job runs.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"job"})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		orders,
		chatMessages,
		chatRateLimited,
		triviaAnswers,
		webhookEvents,
		reconcilerOutcomes,
		streamTransitions,
		vodNotifications,
		jobRuns,
		jobDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted bumps the in-flight gauge; call the returned func when done
func RequestStarted() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// ObserveRequest records one finished request. route is the mux pattern,
// never the raw path, to keep label cardinality bounded.
func ObserveRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// OrderStatus counts an order reaching status. source is checkout, capture,
// webhook, reconciler or admin.
func OrderStatus(status, source string) {
	orders.WithLabelValues(status, source).Inc()
}

func ChatMessagePosted() {
	chatMessages.Inc()
}

func ChatRateLimited() {
	chatRateLimited.Inc()
}

func TriviaAnswered(correct bool) {
	triviaAnswers.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

// WebhookEvent outcome is applied, ignored or rejected
func WebhookEvent(eventType, outcome string) {
	if eventType == "" {
		eventType = "unknown"
	}
	webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func ReconcilerOutcome(outcome string) {
	reconcilerOutcomes.WithLabelValues(outcome).Inc()
}

func StreamTransition(status string) {
	streamTransitions.WithLabelValues(status).Inc()
}

func VODNotified() {
	vodNotifications.Inc()
}

// JobRun records one scheduled job execution.
func JobRun(job string, duration time.Duration, err error) {
	jobRuns.WithLabelValues(job, strconv.FormatBool(err == nil)).Inc()
	jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}
