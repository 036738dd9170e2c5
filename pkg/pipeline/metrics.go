package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records run and stage outcomes.
type Metrics struct {
	runs         *prometheus.CounterVec
	stages       *prometheus.CounterVec
	stageLatency *prometheus.HistogramVec
	marketLive   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alphacouncil",
			Name:      "runs_total",
			Help:      "Pipeline runs by terminal status.",
		}, []string{"status"}),
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alphacouncil",
			Name:      "stage_executions_total",
			Help:      "Stage executions by stage, provider and result.",
		}, []string{"stage", "provider", "result"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "alphacouncil",
			Name:      "stage_duration_seconds",
			Help:      "Wall time of one stage invocation.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"stage", "provider"}),
		marketLive: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alphacouncil",
			Name:      "market_fetch_total",
			Help:      "Market data fetches by outcome.",
		}, []string{"live"}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.stages, m.stageLatency, m.marketLive)
	}
	return m
}

func (m *Metrics) runFinished(status Status) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) stageFinished(stageID, provider string, seconds float64, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.stages.WithLabelValues(stageID, provider, result).Inc()
	m.stageLatency.WithLabelValues(stageID, provider).Observe(seconds)
}

func (m *Metrics) marketFetched(live bool) {
	if m == nil {
		return
	}
	label := "false"
	if live {
		label = "true"
	}
	m.marketLive.WithLabelValues(label).Inc()
}
