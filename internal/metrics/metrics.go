package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Recipient kinds used as label values.
const (
	KindRole     = "role"
	KindExternal = "external"
)

// StepMetrics groups the Prometheus collectors of the notification step.
// A nil *StepMetrics is valid and records nothing.
type StepMetrics struct {
	Sent    *prometheus.CounterVec
	Failed  *prometheus.CounterVec
	Skipped prometheus.Counter
	Courses *prometheus.CounterVec
}

// NewStepMetrics registers and returns the step collectors.
func NewStepMetrics(namespace string, reg prometheus.Registerer) *StepMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &StepMetrics{
		Sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Notifications handed to the mail transport.",
		}, []string{"kind"}),
		Failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Notifications the mail transport rejected.",
		}, []string{"kind"}),
		Skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_skipped_total",
			Help:      "Recipients skipped because they had no address.",
		}),
		Courses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "courses_processed_total",
			Help:      "Courses processed by the notification step, by outcome.",
		}, []string{"status"}),
	}
	m.Sent = mustRegister(reg, m.Sent)
	m.Failed = mustRegister(reg, m.Failed)
	m.Skipped = mustRegister(reg, m.Skipped)
	m.Courses = mustRegister(reg, m.Courses)
	return m
}

func (m *StepMetrics) ObserveSent(kind string) {
	if m != nil {
		m.Sent.WithLabelValues(kind).Inc()
	}
}

func (m *StepMetrics) ObserveFailed(kind string) {
	if m != nil {
		m.Failed.WithLabelValues(kind).Inc()
	}
}

func (m *StepMetrics) ObserveSkipped() {
	if m != nil {
		m.Skipped.Inc()
	}
}

func (m *StepMetrics) ObserveCourse(status string) {
	if m != nil {
		m.Courses.WithLabelValues(status).Inc()
	}
}

// mustRegister returns the already registered collector when one with the same
// description exists, so the metrics can be built more than once per process.
func mustRegister[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
