// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and instrumentation for the
// AutoML pipeline service.
//
// # Description
//
// This package implements Prometheus metrics for monitoring pipeline
// operations. Metrics include:
//   - Stage counters (by stage and status)
//   - Stage duration histograms
//   - Session gauges (resident sessions)
//   - Upload sizes
//   - Model training counters (by model key and status)
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "aleutian"

// Subsystem for pipeline metrics
const pipelineSubsystem = "automl"

// PipelineMetrics holds all Prometheus metrics for pipeline operations.
//
// # Description
//
// Provides counters, histograms, and gauges for monitoring pipeline
// throughput and latency. Initialize once at startup via InitMetrics().
//
// # Thread Safety
//
// All operations are thread-safe.
type PipelineMetrics struct {
	// StageTotal counts pipeline stage executions.
	// Labels: stage (clean, eda, transform, train, explain), status (success, error)
	StageTotal *prometheus.CounterVec

	// StageDurationSeconds measures stage wall time.
	// Labels: stage
	StageDurationSeconds *prometheus.HistogramVec

	// ActiveSessions tracks resident sessions in the in-memory store.
	ActiveSessions prometheus.Gauge

	// UploadBytes measures uploaded dataset sizes.
	UploadBytes prometheus.Histogram

	// TrainingsTotal counts training runs by model key and status.
	// Labels: model, status (success, error)
	TrainingsTotal *prometheus.CounterVec

	// AssistantTokensTotal counts streamed assistant tokens.
	AssistantTokensTotal prometheus.Counter

	// ChartsTotal counts rendered charts by kind.
	// Labels: kind
	ChartsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of PipelineMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *PipelineMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once at
// application startup.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *PipelineMetrics {
	DefaultMetrics = &PipelineMetrics{
		StageTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "stage_total",
				Help:      "Total pipeline stage executions by stage and status",
			},
			[]string{"stage", "status"},
		),

		StageDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage wall time in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 15.0, 60.0},
			},
			[]string{"stage"},
		),

		ActiveSessions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "active_sessions",
				Help:      "Number of sessions resident in the in-memory store",
			},
		),

		UploadBytes: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "upload_bytes",
				Help:      "Uploaded dataset size in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
			},
		),

		TrainingsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "trainings_total",
				Help:      "Total training runs by model key and status",
			},
			[]string{"model", "status"},
		),

		AssistantTokensTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "assistant_tokens_total",
				Help:      "Total tokens streamed by the suggestion assistant",
			},
		),

		ChartsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "charts_total",
				Help:      "Total charts rendered by kind",
			},
			[]string{"kind"},
		),
	}

	return DefaultMetrics
}

// ObserveStage records one stage execution on the default metrics, if
// initialized. Handlers call this on both success and error paths.
func ObserveStage(stage string, seconds float64, err error) {
	if DefaultMetrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.StageTotal.WithLabelValues(stage, status).Inc()
	if err == nil {
		DefaultMetrics.StageDurationSeconds.WithLabelValues(stage).Observe(seconds)
	}
}
