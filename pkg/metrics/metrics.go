// Package metrics exposes Prometheus instrumentation for the resolvers.
//
// Metrics are optional: nothing is registered until InitRegistry is called,
// and every record helper is a no-op while the registry is nil. The library
// entry points therefore carry zero metrics overhead when embedded in a
// host process that does not opt in; the refresh daemon opts in and serves
// the registry on its listen address.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values for the lookup counter.
const (
	SourceNetwork = "network"
	SourceCache   = "cache"

	KindPasswdUID  = "passwd_uid"
	KindPasswdName = "passwd_name"
	KindGroup      = "group"
	KindInitGroups = "initgroups"
	KindEnumerate  = "enumerate"

	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry

	lookupTotal        *prometheus.CounterVec
	malformedResponses prometheus.Counter
	directoryRequests  *prometheus.CounterVec
	cacheScanRecords   prometheus.Counter
	refreshTotal       *prometheus.CounterVec
	refreshRecords     prometheus.Gauge
)

// InitRegistry creates the process registry and registers all collectors.
// Calling it twice is a no-op.
func InitRegistry() {
	mu.Lock()
	defer mu.Unlock()
	if registry != nil {
		return
	}

	registry = prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	lookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudnss_lookup_total",
		Help: "Identity lookups by source, kind, and resulting status.",
	}, []string{"source", "kind", "status"})

	malformedResponses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cloudnss_malformed_responses_total",
		Help: "Directory responses that returned 200 but failed to parse.",
	})

	directoryRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudnss_directory_requests_total",
		Help: "HTTP requests issued to the identity directory by outcome.",
	}, []string{"outcome"})

	cacheScanRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cloudnss_cache_scan_records_total",
		Help: "Records read while scanning the local cache file.",
	})

	refreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudnss_cache_refresh_total",
		Help: "Cache file refresh attempts by outcome.",
	}, []string{"outcome"})

	refreshRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cloudnss_cache_records",
		Help: "Number of account records written by the last refresh.",
	})

	registry.MustRegister(lookupTotal, malformedResponses, directoryRequests,
		cacheScanRecords, refreshTotal, refreshRecords)
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// Handler returns an http.Handler serving the registry, or nil when metrics
// are disabled.
func Handler() http.Handler {
	mu.RLock()
	defer mu.RUnlock()
	if registry == nil {
		return nil
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// RecordLookup counts one lookup outcome.
func RecordLookup(source, kind, status string) {
	mu.RLock()
	defer mu.RUnlock()
	if lookupTotal == nil {
		return
	}
	lookupTotal.WithLabelValues(source, kind, status).Inc()
}

// RecordMalformedResponse counts one malformed 200 response.
func RecordMalformedResponse() {
	mu.RLock()
	defer mu.RUnlock()
	if malformedResponses == nil {
		return
	}
	malformedResponses.Inc()
}

// RecordDirectoryRequest counts one directory HTTP request by outcome
// ("ok", "error", or an HTTP status class like "404").
func RecordDirectoryRequest(outcome string) {
	mu.RLock()
	defer mu.RUnlock()
	if directoryRequests == nil {
		return
	}
	directoryRequests.WithLabelValues(outcome).Inc()
}

// RecordCacheScan counts records visited during cache file scans.
func RecordCacheScan(records int) {
	mu.RLock()
	defer mu.RUnlock()
	if cacheScanRecords == nil {
		return
	}
	cacheScanRecords.Add(float64(records))
}

// RecordRefresh counts one cache refresh attempt and, on success, the
// number of records written.
func RecordRefresh(outcome string, records int) {
	mu.RLock()
	defer mu.RUnlock()
	if refreshTotal == nil {
		return
	}
	refreshTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		refreshRecords.Set(float64(records))
	}
}
