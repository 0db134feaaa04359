package recycleapi

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// upstreamDuration — длительность запросов к внешнему API.
var upstreamDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "rp_upstream_request_duration_seconds",
		Help:    "Длительность запросов Receiver Portal к внешнему API в секундах",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation", "outcome"},
)

// observeUpstream записывает длительность запроса с исходом ok, api_error или error.
func observeUpstream(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			outcome = "api_error"
		} else {
			outcome = "error"
		}
	}
	upstreamDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}
