package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	providerReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "readcompanion",
			Name:      "provider_requests_total",
			Help:      "Total provider requests by provider, model and result",
		},
		[]string{"provider", "model", "result"},
	)

	providerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "readcompanion",
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of provider requests by provider and model",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "model"},
	)

	translations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "readcompanion",
			Name:      "translations_total",
			Help:      "Translation requests by result (success, error)",
		},
		[]string{"result"},
	)

	fallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "readcompanion",
			Name:      "image_fallbacks_total",
			Help:      "Model calls retried without the page image after an image-related failure",
		},
	)

	vocabSaves = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "readcompanion",
			Name:      "vocabulary_records_saved_total",
			Help:      "Vocabulary records persisted",
		},
	)

	snapshots = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "readcompanion",
			Name:      "page_snapshots_total",
			Help:      "Page snapshot renders by result",
		},
		[]string{"result"},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(providerReqs, providerLatency, translations, fallbacks, vocabSaves, snapshots)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveProvider(provider, model, result string, dur time.Duration) {
	providerReqs.WithLabelValues(provider, model, result).Inc()
	providerLatency.WithLabelValues(provider, model).Observe(dur.Seconds())
}

func IncTranslation(result string) { translations.WithLabelValues(result).Inc() }
func IncFallback()                 { fallbacks.Inc() }
func IncVocabSaved()               { vocabSaves.Inc() }
func IncSnapshot(result string)    { snapshots.WithLabelValues(result).Inc() }
