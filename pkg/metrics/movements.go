package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resultados con los que se etiqueta cada solicitud de movimiento.
const (
	OutcomeSuccess           = "success"
	OutcomeValidation        = "validation_error"
	OutcomeNotFound          = "not_found"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeConflict          = "concurrent_modification"
	OutcomeStorage           = "storage_error"
)

// MovementMetrics registra las solicitudes procesadas por el motor de movimientos.
// Todos los métodos toleran un receptor nil.
type MovementMetrics struct {
	requests *prometheus.CounterVec
	lines    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMovementMetrics registra las métricas en reg. Con reg nil devuelve métricas inertes.
func NewMovementMetrics(reg prometheus.Registerer) *MovementMetrics {
	if reg == nil {
		return &MovementMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_movement_requests_total",
		Help: "Solicitudes de movimiento procesadas por tipo y resultado.",
	}, []string{"type", "outcome"})
	lines := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_movement_lines_total",
		Help: "Líneas de movimiento confirmadas en el ledger.",
	}, []string{"type"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_movement_duration_seconds",
		Help:    "Duración de la transacción de movimiento en segundos.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
	reg.MustRegister(requests, lines, duration)
	return &MovementMetrics{requests: requests, lines: lines, duration: duration}
}

// ObserveRequest registra el resultado y la duración de una solicitud.
func (m *MovementMetrics) ObserveRequest(movementType, outcome string, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	t := normalizeLabel(movementType)
	m.requests.WithLabelValues(t, normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(t).Observe(elapsed.Seconds())
}

// AddLines suma las líneas confirmadas para el tipo de movimiento.
func (m *MovementMetrics) AddLines(movementType string, n int) {
	if m == nil || m.lines == nil || n <= 0 {
		return
	}
	m.lines.WithLabelValues(normalizeLabel(movementType)).Add(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
