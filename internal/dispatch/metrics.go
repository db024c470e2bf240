package dispatch

import "github.com/prometheus/client_golang/prometheus"

var (
	flushCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fastline",
		Subsystem: "sync",
		Name:      "flushes_total",
		Help:      "Number of sync flushes, labeled by outcome.",
	}, []string{"outcome"})

	familyWriteCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fastline",
		Subsystem: "sync",
		Name:      "family_writes_total",
		Help:      "Number of per-family remote upserts, labeled by family and result.",
	}, []string{"family", "result"})

	queueDepthGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fastline",
		Subsystem: "sync",
		Name:      "queue_depth",
		Help:      "Number of entries left in the sync queue after the last flush.",
	})

	flushDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fastline",
		Subsystem: "sync",
		Name:      "flush_duration_seconds",
		Help:      "Time spent merging the queue and writing every family.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)

func init() {
	prometheus.MustRegister(flushCounter, familyWriteCounter, queueDepthGauge, flushDuration)
}

func recordResult(r Result, seconds float64) {
	flushCounter.WithLabelValues(string(r.Outcome)).Inc()
	for _, fr := range r.Families {
		result := "ok"
		if !fr.OK() {
			result = "error"
		}
		familyWriteCounter.WithLabelValues(string(fr.Family), result).Inc()
	}
	queueDepthGauge.Set(float64(r.Pending))
	if r.Outcome != OutcomeSkipped {
		flushDuration.Observe(seconds)
	}
}
