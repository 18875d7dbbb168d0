package middleware

import (
	"net/http"
	"time"

	"github.com/Temutjin2k/tracker-admin/pkg/metrics"
)

// Metrics records request counters and latencies labelled by route pattern.
// It must wrap the mux directly so the matched pattern is visible afterwards.
func (m *Middleware) Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		metrics.HttpRequestsInFlight.WithLabelValues(m.serviceName).Inc()
		defer metrics.HttpRequestsInFlight.WithLabelValues(m.serviceName).Dec()

		rw := wrapWriter(w)
		next.ServeHTTP(rw, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPMetrics(m.serviceName, r.Method, path, rw.Status(), time.Since(start))
	})
}
