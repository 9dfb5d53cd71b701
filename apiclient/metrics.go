package apiclient

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_client_requests_total",
			Help: "Total number of requests sent to the CMS",
		},
		[]string{"method", "code"},
	)

	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cms_client_request_duration_seconds",
			Help:    "CMS request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method"},
	)

	backendRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cms_client_requests_in_flight",
			Help: "Number of CMS requests currently waiting for a response",
		},
	)
)

func instrumentRoundTripper(next http.RoundTripper) http.RoundTripper {
	return promhttp.InstrumentRoundTripperInFlight(backendRequestsInFlight,
		promhttp.InstrumentRoundTripperCounter(backendRequestsTotal,
			promhttp.InstrumentRoundTripperDuration(backendRequestDuration, next),
		),
	)
}
