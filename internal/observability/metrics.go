package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	RecordsExtracted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "partselect_records_extracted_total",
			Help: "Part records assembled from fetched pages",
		},
	)

	FieldFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partselect_field_failures_total",
			Help: "Field extractions that fell back to the default value",
		},
		[]string{"field"},
	)

	FetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partselect_fetch_failures_total",
			Help: "Page fetches that failed, by error code",
		},
		[]string{"code"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partselect_cache_lookups_total",
			Help: "Record cache lookups, by result",
		},
		[]string{"result"},
	)
)

// Registry holds every collector of the service. Collectors are registered
// at init so they are usable in tests without a running endpoint.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(RecordsExtracted, FieldFailures, FetchFailures, CacheLookups)
}

// Start exposes /metrics on addr in the background. An empty addr disables it.
func Start(addr string) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("❌ Metrics server stopped: %v", err)
		}
	}()
	log.Infof("📈 Metrics available on %s/metrics", addr)
	return srv
}
