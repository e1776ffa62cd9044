// Package metrics exposes the pipeline's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	StageRowsIn = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "enginewatch",
		Subsystem: "pipeline",
		Name:      "stage_rows_in",
		Help:      "Number of rows entering each pipeline stage",
	}, []string{"stage"})

	StageRowsOut = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "enginewatch",
		Subsystem: "pipeline",
		Name:      "stage_rows_out",
		Help:      "Number of rows leaving each pipeline stage",
	}, []string{"stage"})

	StageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "enginewatch",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Wall-clock duration of each pipeline stage in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 15), // from 10ms to ~5m
	}, []string{"stage"})

	RangeReplacedCnt = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "enginewatch",
		Subsystem: "pipeline",
		Name:      "range_replaced_total",
		Help:      "Total number of out-of-range values replaced per channel",
	}, []string{"channel"})

	IngestRequestCnt = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "enginewatch",
		Subsystem: "ingest",
		Name:      "request_total",
		Help:      "Total number of export requests issued against the DAS endpoint",
	}, []string{"status"})

	IngestRowsFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "enginewatch",
		Subsystem: "ingest",
		Name:      "rows_fetched_total",
		Help:      "Total number of telemetry rows fetched",
	})

	RunsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "enginewatch",
		Subsystem: "pipeline",
		Name:      "runs_completed_total",
		Help:      "Total number of pipeline runs by terminal status",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(StageRowsIn)
	prometheus.MustRegister(StageRowsOut)
	prometheus.MustRegister(StageDuration)
	prometheus.MustRegister(RangeReplacedCnt)
	prometheus.MustRegister(IngestRequestCnt)
	prometheus.MustRegister(IngestRowsFetched)
	prometheus.MustRegister(RunsCompleted)
}
