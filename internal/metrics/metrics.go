package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unclebandit/churn-etl/internal/model"
)

var (
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "churn_pipeline_runs_total",
		Help: "Total number of pipeline runs by outcome",
	}, []string{"pipeline", "outcome"})

	TaskFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "churn_pipeline_task_failures_total",
		Help: "Total number of failed runs by failing task",
	}, []string{"pipeline", "task"})

	RowsExtractedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "churn_pipeline_rows_extracted_total",
		Help: "Total number of rows read from the source database",
	}, []string{"pipeline"})

	RowsLoadedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "churn_pipeline_rows_loaded_total",
		Help: "Total number of rows upserted into the destination table",
	}, []string{"pipeline"})

	RunDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "churn_pipeline_run_duration_seconds",
		Help:    "Wall time of a pipeline run",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.4min
	}, []string{"pipeline"})

	LastSuccessTimestamp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "churn_pipeline_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run",
	}, []string{"pipeline"})
)

func init() {
	prometheus.MustRegister(
		RunsTotal,
		TaskFailuresTotal,
		RowsExtractedTotal,
		RowsLoadedTotal,
		RunDuration,
		LastSuccessTimestamp,
	)
}

// ObserveRun records a finished run.
func ObserveRun(o *model.RunOutcome) {
	RunsTotal.WithLabelValues(o.PipelineName, string(o.Outcome)).Inc()
	RowsExtractedTotal.WithLabelValues(o.PipelineName).Add(float64(o.RowsExtracted))
	RowsLoadedTotal.WithLabelValues(o.PipelineName).Add(float64(o.RowsLoaded))
	RunDuration.WithLabelValues(o.PipelineName).Observe(o.FinishedAt.Sub(o.StartedAt).Seconds())

	if o.Succeeded() {
		LastSuccessTimestamp.WithLabelValues(o.PipelineName).Set(float64(o.FinishedAt.Unix()))
		return
	}
	TaskFailuresTotal.WithLabelValues(o.PipelineName, o.FailingTask).Inc()
}
