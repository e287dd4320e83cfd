package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "spotfinder"

var (
	// ImageCleanups counts remote image deletions by result (ok, error).
	ImageCleanups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_cleanups_total",
			Help:      "Remote image deletions scheduled after spot or comment changes",
		},
		[]string{"result"},
	)

	// RatingRecomputes counts aggregate recomputations by result.
	RatingRecomputes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rating_recomputes_total",
			Help:      "Spot rating aggregate recomputations",
		},
		[]string{"result"},
	)

	// Reports counts accepted content reports by target type.
	Reports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Content reports accepted",
		},
		[]string{"target"},
	)

	// CascadeDeletes counts dependent documents removed with a spot.
	CascadeDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_deleted_documents_total",
			Help:      "Comments and ratings removed when their spot was deleted",
		},
		[]string{"collection"},
	)
)

// Result turns an error into a metric label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
