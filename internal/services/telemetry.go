package services

import "github.com/prometheus/client_golang/prometheus"

// Telemetry holds the domain counters exported on /metrics. A nil *Telemetry
// is valid and records nothing.
type Telemetry struct {
	scans            *prometheus.CounterVec
	qrGenerated      *prometheus.CounterVec
	activitiesClosed prometheus.Counter
}

func NewTelemetry(reg prometheus.Registerer) *Telemetry {
	t := &Telemetry{
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acty",
			Name:      "scans_total",
			Help:      "QR scans by outcome.",
		}, []string{"result"}),
		qrGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acty",
			Name:      "qr_codes_generated_total",
			Help:      "QR codes issued by type.",
		}, []string{"type"}),
		activitiesClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "acty",
			Name:      "activities_closed_total",
			Help:      "Activities moved to INACTIVE by the sweeper.",
		}),
	}
	reg.MustRegister(t.scans, t.qrGenerated, t.activitiesClosed)
	return t
}

func (t *Telemetry) ObserveScan(err error) {
	if t == nil {
		return
	}
	t.scans.WithLabelValues(Outcome(err)).Inc()
}

func (t *Telemetry) ObserveGenerated(qrType string, n int) {
	if t == nil || n <= 0 {
		return
	}
	t.qrGenerated.WithLabelValues(qrType).Add(float64(n))
}

func (t *Telemetry) ObserveClosed(n int64) {
	if t == nil || n <= 0 {
		return
	}
	t.activitiesClosed.Add(float64(n))
}
