// Package observability holds the job's Prometheus metrics. The job is
// short-lived, so metrics are pushed to a Pushgateway at the end of a run
// instead of being scraped.
package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry holds every metric of the job.
var Registry = prometheus.NewRegistry()

var (
	pagesRequested = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_etl",
		Subsystem: "fetch",
		Name:      "pages_requested_total",
		Help:      "Activity pages requested from the API.",
	})
	quotaPauses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_etl",
		Subsystem: "fetch",
		Name:      "quota_pauses_total",
		Help:      "Fixed pauses taken to stay within the API request quota.",
	})
	activitiesFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_etl",
		Subsystem: "fetch",
		Name:      "activities_total",
		Help:      "Activities newer than the watermark extracted from the API.",
	})
	rowsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activity_etl",
		Subsystem: "load",
		Name:      "rows_loaded",
		Help:      "Rows written to the activity table by the last load.",
	})
	watermarkGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activity_etl",
		Subsystem: "load",
		Name:      "watermark_timestamp_seconds",
		Help:      "Unix timestamp of the stored watermark.",
	})
	lastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activity_etl",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last run that finished without error.",
	})
	runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activity_etl",
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last run.",
	})
	runFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_etl",
		Name:      "run_failures_total",
		Help:      "Runs aborted by an error, by stage.",
	}, []string{"stage"})
)

func init() {
	Registry.MustRegister(
		pagesRequested,
		quotaPauses,
		activitiesFetched,
		rowsLoaded,
		watermarkGauge,
		lastSuccess,
		runDuration,
		runFailures,
	)
}

func RecordPageRequested() {
	pagesRequested.Inc()
}

func RecordQuotaPause() {
	quotaPauses.Inc()
}

func RecordActivitiesFetched(n int) {
	activitiesFetched.Add(float64(n))
}

func RecordRowsLoaded(n int64) {
	rowsLoaded.Set(float64(n))
}

// RecordWatermark updates the watermark gauge.
func RecordWatermark(ts time.Time) {
	if ts.IsZero() {
		return
	}
	watermarkGauge.Set(float64(ts.Unix()))
}

// RecordRunSucceeded marks the end of a successful run.
func RecordRunSucceeded(finished time.Time, took time.Duration) {
	lastSuccess.Set(float64(finished.Unix()))
	runDuration.Set(took.Seconds())
}

// RecordRunFailed counts an aborted run.
func RecordRunFailed(stage string, took time.Duration) {
	runFailures.WithLabelValues(stage).Inc()
	runDuration.Set(took.Seconds())
}

// Push sends the registry to the Pushgateway. It is a no-op when url is empty.
func Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	return push.New(url, job).Gatherer(Registry).PushContext(ctx)
}
