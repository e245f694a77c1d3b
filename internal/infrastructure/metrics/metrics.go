package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vector_area"

// Metrics счётчики измерений. Методы безопасно вызывать у nil.
type Metrics struct {
	registry     *prometheus.Registry
	measurements *prometheus.CounterVec
	stages       *prometheus.HistogramVec
	area         prometheus.Histogram
}

// New создаёт собственный реестр, чтобы не зависеть от глобального
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		measurements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "measurements_total",
			Help:      "Number of measurement requests by outcome.",
		}, []string{"outcome"}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"stage"}),
		area: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "black_area_cm2",
			Help:      "Measured black area in square centimeters.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
		}),
	}

	m.registry.MustRegister(
		m.measurements,
		m.stages,
		m.area,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler отдаёт метрики для /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry нужен тестам
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveOutcome учитывает результат запроса: ok или класс ошибки
func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.measurements.WithLabelValues(outcome).Inc()
}

// ObserveStage учитывает длительность этапа
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stages.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveArea учитывает измеренную площадь
func (m *Metrics) ObserveArea(cm2 float64) {
	if m == nil {
		return
	}
	m.area.Observe(cm2)
}
