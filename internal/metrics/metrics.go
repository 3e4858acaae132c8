// Package metrics exposes Prometheus collectors for the contact mapper.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sells-group/contact-mapper/internal/fetcher"
)

// Fetch kinds.
const (
	KindSitemap = "sitemap"
	KindProbe   = "probe"
	KindProfile = "profile"
)

var (
	Fetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapper_fetches_total",
			Help: "Outbound fetches by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	Discoveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapper_discoveries_total",
			Help: "Firm discoveries by winning method",
		},
		[]string{"method"},
	)

	PagesClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapper_pages_classified_total",
			Help: "Profile pages by classifier verdict",
		},
		[]string{"verdict"},
	)

	Contacts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mapper_contacts_total",
			Help: "Contacts emitted after deduplication",
		},
	)

	FirmDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mapper_firm_duration_seconds",
			Help:    "Wall time to map one firm",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
)

// RecordFetch counts one fetch attempt. The outcome label is "ok" or the
// fetch failure reason.
func RecordFetch(kind string, err error) {
	Fetches.WithLabelValues(kind, Outcome(err)).Inc()
}

// Outcome maps a fetch error to a metric label.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if reason := fetcher.ReasonOf(err); reason != "" {
		return string(reason)
	}
	return "error"
}
