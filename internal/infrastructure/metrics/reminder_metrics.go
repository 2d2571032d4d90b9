// Package metrics métricas Prometheus del ciclo de recordatorios.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/viajes-backoffice/internal/application/reminder"
)

var _ reminder.Recorder = (*ReminderMetrics)(nil)

// ReminderMetrics implementa reminder.Recorder.
type ReminderMetrics struct {
	attempts        *prometheus.CounterVec
	excluded        *prometheus.CounterVec
	persistFailures prometheus.Counter
	sweepDuration   prometheus.Histogram
}

// NewReminderMetrics registra los colectores en registerer (nil = DefaultRegisterer).
func NewReminderMetrics(registerer prometheus.Registerer) *ReminderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &ReminderMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminder_attempts_total",
			Help: "Intentos de recordatorio por resultado y tramo.",
		}, []string{"outcome", "bucket"}),
		excluded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminder_excluded_total",
			Help: "Facturas excluidas del envío por motivo.",
		}, []string{"reason"}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminder_persist_failures_total",
			Help: "Envíos entregados cuya escritura de auditoría o factura falló.",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reminder_sweep_duration_seconds",
			Help:    "Duración de cada ciclo de envío.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}),
	}
	registerer.MustRegister(m.attempts, m.excluded, m.persistFailures, m.sweepDuration)
	return m
}

func (m *ReminderMetrics) ObserveAttempt(outcome, bucket string) {
	if bucket == "" {
		bucket = "unknown"
	}
	m.attempts.WithLabelValues(outcome, bucket).Inc()
}

func (m *ReminderMetrics) ObserveExcluded(reason string) {
	m.excluded.WithLabelValues(reason).Inc()
}

func (m *ReminderMetrics) ObservePersistFailure() {
	m.persistFailures.Inc()
}

func (m *ReminderMetrics) ObserveSweep(elapsed time.Duration) {
	m.sweepDuration.Observe(elapsed.Seconds())
}
