package obs

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotesTotal counts priced quotes by form type and outcome.
	QuotesTotal *prometheus.CounterVec
	// CouponValidationsTotal counts coupon validation outcomes by reason.
	CouponValidationsTotal *prometheus.CounterVec
	// RegistrationsTotal counts registration submissions by outcome.
	RegistrationsTotal *prometheus.CounterVec
	// IntakeLatency records intake webhook round-trip latency in milliseconds.
	IntakeLatency *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Count of priced quotes by form type and outcome.",
		}, []string{"form_type", "result"})
		CouponValidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_validations_total",
			Help:      "Count of coupon validations by outcome.",
		}, []string{"result"})
		RegistrationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Count of registration submissions by outcome.",
		}, []string{"result"})
		IntakeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "intake_submission_duration_ms",
			Help:      "Latency for intake webhook submissions in milliseconds.",
			Buckets:   []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
		}, []string{"result"})

		mustRegisterCollector(reg, QuotesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuotesTotal = v
			}
		})
		mustRegisterCollector(reg, CouponValidationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponValidationsTotal = v
			}
		})
		mustRegisterCollector(reg, RegistrationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RegistrationsTotal = v
			}
		})
		mustRegisterCollector(reg, IntakeLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				IntakeLatency = v
			}
		})
	})
}

// ObserveQuote records a quote outcome. It is a no-op before registration.
func ObserveQuote(formType, result string) {
	if QuotesTotal == nil {
		return
	}
	if formType == "" {
		formType = "unknown"
	}
	QuotesTotal.WithLabelValues(formType, result).Inc()
}

// ObserveCoupon records a coupon validation outcome.
func ObserveCoupon(result string) {
	if CouponValidationsTotal != nil {
		CouponValidationsTotal.WithLabelValues(result).Inc()
	}
}

// ObserveRegistration records a registration outcome.
func ObserveRegistration(result string) {
	if RegistrationsTotal != nil {
		RegistrationsTotal.WithLabelValues(result).Inc()
	}
}

// ObserveIntake records the latency of one intake submission.
func ObserveIntake(result string, elapsed time.Duration) {
	if IntakeLatency != nil {
		IntakeLatency.WithLabelValues(result).Observe(DurationMillis(elapsed))
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
