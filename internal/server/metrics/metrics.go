// Package metrics holds the Prometheus collectors of the mneme server. They
// are registered with the default registry and exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mneme_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mneme_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// Retention sweeper
	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mneme_sweep_runs_total",
			Help: "Retention sweeps by result",
		},
		[]string{"result"}, // "ok", "error"
	)

	Purged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mneme_purged_records_total",
			Help: "Tombstoned records purged by the retention sweeper",
		},
		[]string{"kind"}, // "journal", "entry"
	)

	// Backups
	Backups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mneme_backups_total",
			Help: "Snapshot attempts by result",
		},
		[]string{"result"},
	)

	BackupsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mneme_backups_pruned_total",
			Help: "Snapshots deleted for being older than the retention window",
		},
	)

	LastBackup = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mneme_last_backup_timestamp_seconds",
			Help: "Unix time of the last successful snapshot",
		},
	)

	// Live updates
	UpdateStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mneme_update_streams",
			Help: "Open live update streams",
		},
	)
)

// ObserveRequest records one served HTTP request.
func ObserveRequest(route, method string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordSweep counts a finished sweep and what it removed.
func RecordSweep(journals, entries int64, err error) {
	SweepRuns.WithLabelValues(result(err)).Inc()
	Purged.WithLabelValues("journal").Add(float64(journals))
	Purged.WithLabelValues("entry").Add(float64(entries))
}

// RecordBackup counts a snapshot attempt.
func RecordBackup(at time.Time, err error) {
	Backups.WithLabelValues(result(err)).Inc()
	if err == nil {
		LastBackup.Set(float64(at.Unix()))
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
