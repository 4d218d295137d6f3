package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jobboard"

// Collectors groups the counters and histograms recorded by the document client and the
// credential resolver. A nil *Collectors records nothing.
type Collectors struct {
	Requests              *prometheus.CounterVec
	RequestDuration       *prometheus.HistogramVec
	CredentialResolutions *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "docstore_requests_total", Help: "Document store requests by operation and HTTP status code."},
			[]string{"op", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: namespace, Name: "docstore_request_duration_seconds", Help: "Document store request latency by operation.", Buckets: prometheus.DefBuckets},
			[]string{"op"},
		),
		CredentialResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "credential_resolutions_total", Help: "Bearer tokens resolved, by source."},
			[]string{"source"},
		),
	}
	reg.MustRegister(c.Requests, c.RequestDuration, c.CredentialResolutions)
	return c
}

// ObserveRequest records one finished request. code is 0 when no response arrived.
func (c *Collectors) ObserveRequest(op string, code int, elapsed time.Duration) {
	if c == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	c.Requests.WithLabelValues(op, label).Inc()
	c.RequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (c *Collectors) CredentialResolved(source string) {
	if c == nil {
		return
	}
	c.CredentialResolutions.WithLabelValues(source).Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
