// Package metrics exports conversation activity as Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"headdowell/internal/conversation"
)

const namespace = "headdowell"

// Recorder implements conversation.TurnObserver.
type Recorder struct {
	turns     *prometheus.CounterVec
	detected  *prometheus.CounterVec
	confirmed *prometheus.CounterVec
	summaries prometheus.Counter
	fallbacks prometheus.Counter
}

// MustNewMetrics registers the collectors with reg. Collectors that are
// already registered are reused, so several recorders may share one
// registry.
func MustNewMetrics(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Processed user submissions by the phase they ended in.",
		}, []string{"phase"}),
		detected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "symptoms_detected_total",
			Help:      "Symptoms detected in free text.",
		}, []string{"disorder"}),
		confirmed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "symptoms_confirmed_total",
			Help:      "Symptoms confirmed through questioning.",
		}, []string{"disorder"}),
		summaries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "summaries_total",
			Help:      "Summaries produced with at least one confirmed symptom.",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "fallbacks_total",
			Help:      "Turns where the remote analyzer failed and keyword matching was used.",
		}),
	}

	r.turns = registerVec(reg, r.turns)
	r.detected = registerVec(reg, r.detected)
	r.confirmed = registerVec(reg, r.confirmed)
	r.summaries = registerCounter(reg, r.summaries)
	r.fallbacks = registerCounter(reg, r.fallbacks)
	return r
}

func registerVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector.(*prometheus.CounterVec)
		}
		panic(err)
	}
	return c
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter) prometheus.Counter {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector.(prometheus.Counter)
		}
		panic(err)
	}
	return c
}

func (r *Recorder) ObserveTurn(t conversation.Turn) {
	if r == nil || t.Ignored {
		return
	}
	r.turns.WithLabelValues(string(t.Phase)).Inc()
	for _, d := range t.Detected {
		r.detected.WithLabelValues(d.Disorder).Inc()
	}
	for _, d := range t.Confirmed {
		r.confirmed.WithLabelValues(d.Disorder).Inc()
	}
	if t.Summary != nil {
		r.summaries.Inc()
	}
	if t.Fallback {
		r.fallbacks.Inc()
	}
}
