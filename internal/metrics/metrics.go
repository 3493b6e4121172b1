package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LocationReports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_location_reports_total",
		Help: "Location reports handled by the ingest service",
	}, []string{"result"})

	NearbyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "radar_nearby_query_duration_seconds",
		Help:    "Time spent answering nearby queries",
		Buckets: prometheus.DefBuckets,
	})

	NearbyResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "radar_nearby_results",
		Help:    "Number of users returned per nearby query",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
	})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	PollCycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_poll_cycles_total",
		Help: "Polling cycles by outcome",
	}, []string{"result"})
)

var once sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(LocationReports, NearbyDuration, NearbyResults, HTTPRequests, PollCycles)
	})
}

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result turns an error into the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
