// Package metrics documents the Prometheus metrics of the Thema client.
// Metrics are declared with promauto in the package that owns them (client,
// session, catalog, cache, batch); this package exposes the registry they
// land in and a summary helper for programs without a scrape endpoint.
package metrics

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the Thema client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer reads back what Registry collected.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// Prefix is shared by every metric of the client.
const Prefix = "thema_"

// Summarize totals counters and histogram sample counts by family name,
// summing across label values. Families not starting with prefix are
// skipped.
func Summarize(g prometheus.Gatherer, prefix string) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for _, mf := range families {
		name := mf.GetName()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		var total float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			}
		}
		out[name] = total
	}
	return out, nil
}

// SortedNames returns the keys of a summary in order.
func SortedNames(summary map[string]float64) []string {
	names := make([]string, 0, len(summary))
	for n := range summary {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - thema_requests_total{endpoint, status} (Counter): Requests by API path and HTTP status
//   - thema_request_duration_seconds{endpoint} (Histogram): Request duration by API path
//   - thema_errors_total{class} (Counter): Failed calls by class (auth, client, server, network)
//   - thema_reauth_retries_total{endpoint} (Counter): Calls retried after a 401 and a new login
//
// Session Metrics (pkg/session):
//   - thema_token_refreshes_total{outcome} (Counter): Logins by outcome (success, failure)
//
// Master Data Metrics (pkg/catalog):
//   - thema_masterdata_loads_total{source, origin} (Counter): Catalog loads by path and
//     origin (memory, cache, remote)
//
// Cache Metrics (pkg/cache):
//   - thema_cache_hits_total (Counter): Snapshot cache hits
//   - thema_cache_misses_total (Counter): Snapshot cache misses, expired entries included
//   - thema_cache_size_bytes (Gauge): Bytes of snapshots written
//   - thema_cache_errors_total{operation} (Counter): Snapshot cache errors
//
// Batch Metrics (pkg/batch):
//   - thema_batch_instances_total{kind, outcome} (Counter): Instances by family and
//     outcome (rows, empty, error)
//   - thema_batch_duration_seconds{kind} (Histogram): Batch run duration by family
//
// Example Prometheus Queries:
//
//   # Share of combinations without data
//   sum(rate(thema_batch_instances_total{outcome="empty"}[1h])) /
//   sum(rate(thema_batch_instances_total[1h]))
//
//   # Re-logins forced by early token expiry
//   rate(thema_reauth_retries_total[15m])
//
//   # P95 data request latency
//   histogram_quantile(0.95, rate(thema_request_duration_seconds_bucket[5m]))
//
//   # Master data served without a remote call
//   sum(rate(thema_masterdata_loads_total{origin!="remote"}[1h]))
