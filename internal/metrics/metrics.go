// Package metrics exposes lifecycle counters for Prometheus.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "billing_"

	ResultSuccess = "success"
)

var (
	registerOnce sync.Once

	conversionTotal   *prometheus.CounterVec
	conversionLatency *prometheus.HistogramVec
	transitionTotal   *prometheus.CounterVec
	quotationTotal    *prometheus.CounterVec
	exportTotal       *prometheus.CounterVec
	notifyTotal       *prometheus.CounterVec
)

// Init registers the collectors on reg. Only the first call has an effect.
// Observers are no-ops until Init runs.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		conversionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_conversions_total",
				Help: "Quotation to invoice conversions by result",
			},
			[]string{"result"},
		)
		conversionLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "invoice_conversion_latency_seconds",
				Help:    "Quotation to invoice conversion latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		transitionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_transitions_total",
				Help: "Invoice status transitions by target status and result",
			},
			[]string{"to", "result"},
		)
		quotationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "quotation_operations_total",
				Help: "Quotation create and status operations by result",
			},
			[]string{"operation", "result"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "document_exports_total",
				Help: "Document exports by format and result",
			},
			[]string{"format", "result"},
		)
		notifyTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Confirmation notices by result",
			},
			[]string{"result"},
		)
		reg.MustRegister(
			conversionTotal,
			conversionLatency,
			transitionTotal,
			quotationTotal,
			exportTotal,
			notifyTotal,
		)
	})
}

func result(r string) string {
	if r == "" {
		return ResultSuccess
	}
	return r
}

// ObserveConversion records a conversion attempt. result is a failure kind or empty on success.
func ObserveConversion(r string, duration time.Duration) {
	r = result(r)
	if conversionTotal != nil {
		conversionTotal.WithLabelValues(r).Inc()
	}
	if conversionLatency != nil {
		conversionLatency.WithLabelValues(r).Observe(duration.Seconds())
	}
}

// IncTransition counts a status change request.
func IncTransition(to, r string) {
	if to == "" {
		to = "unknown"
	}
	if transitionTotal != nil {
		transitionTotal.WithLabelValues(to, result(r)).Inc()
	}
}

// IncQuotation counts a quotation operation ("create", "status").
func IncQuotation(operation, r string) {
	if quotationTotal != nil {
		quotationTotal.WithLabelValues(operation, result(r)).Inc()
	}
}

// IncExport counts a document export ("pdf", "xlsx").
func IncExport(format, r string) {
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result(r)).Inc()
	}
}

// IncNotification counts a confirmation notice.
func IncNotification(r string) {
	if notifyTotal != nil {
		notifyTotal.WithLabelValues(result(r)).Inc()
	}
}
