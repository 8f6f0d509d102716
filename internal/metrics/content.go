package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Content pipeline metrics.
var (
	CorpusBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "corpus_build_duration_seconds",
			Help:      "Time to list and fetch every document of the corpus",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	CorpusDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corpus_documents_total",
			Help:      "Documents processed by corpus builds",
		},
		[]string{"result"}, // "ok" / "failed"
	)

	PagesRenderedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_rendered_total",
			Help:      "Page render attempts by outcome",
		},
		[]string{"result"}, // "ok" / "not_found" / "error"
	)
)

func init() {
	prometheus.MustRegister(CorpusBuildDuration)
	prometheus.MustRegister(CorpusDocumentsTotal)
	prometheus.MustRegister(PagesRenderedTotal)
}

// ObserveCorpusBuild records the outcome of one corpus build.
func ObserveCorpusBuild(d time.Duration, documents, failed int) {
	CorpusBuildDuration.Observe(d.Seconds())
	CorpusDocumentsTotal.WithLabelValues("ok").Add(float64(documents))
	CorpusDocumentsTotal.WithLabelValues("failed").Add(float64(failed))
}

// ObserveRender counts one page render by result.
func ObserveRender(result string) {
	PagesRenderedTotal.WithLabelValues(result).Inc()
}

// TrackSessions exposes the live session count reported by count. Only the
// first registration takes effect.
func TrackSessions(count func() int) {
	registerGaugeFunc("search_sessions_active", "Search sessions currently registered", count)
}

// TrackRateLimit exposes the remaining GitHub API quota (-1 until the first
// response). Only the first registration takes effect.
func TrackRateLimit(remaining func() int) {
	registerGaugeFunc("github_rate_limit_remaining", "GitHub API requests remaining in the current window", remaining)
}

func registerGaugeFunc(name, help string, value func() int) {
	g := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		func() float64 { return float64(value()) },
	)
	if err := prometheus.Register(g); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			panic(err)
		}
	}
}
