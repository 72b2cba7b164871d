// Package metrics defines the coordinator's Prometheus collectors.
//
// There is no HTTP surface to scrape them from — the coordinator's wire
// protocol is the line protocol, not HTTP — so these are exported purely
// for in-process instrumentation and for tests to exercise via
// prometheus/client_golang/testutil.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestDuration observes the time taken to serve one client request,
// labeled by request type and outcome.
var RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "coordinator_request_duration_seconds",
	Help:    "Time to serve one client request, by request type and outcome.",
	Buckets: prometheus.DefBuckets,
}, []string{"req_type", "outcome"})

func init() {
	prometheus.MustRegister(RequestDuration)
}

// ObserveRequest records how long a request of the given type took to
// complete, and its outcome label (e.g. "put_success", "key_error").
func ObserveRequest(reqType, outcome string, since time.Time) {
	RequestDuration.WithLabelValues(reqType, outcome).Observe(time.Since(since).Seconds())
}
