// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package redo

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the redo engine's counters.
type Metrics struct {
	JobsAdded       prometheus.Counter
	JobsExecuted    prometheus.Counter
	BarrierJobs     prometheus.Counter
	PopRetries      prometheus.Counter
	ExecuteFailures prometheus.Counter
	ExecuteLatency  prometheus.Histogram
}

func makeMetrics() Metrics {
	return Metrics{
		JobsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redo", Name: "jobs_added_total",
			Help: "Number of redo jobs added to the queue.",
		}),
		JobsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redo", Name: "jobs_executed_total",
			Help: "Number of redo jobs executed successfully.",
		}),
		BarrierJobs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redo", Name: "barrier_jobs_total",
			Help: "Number of barrier jobs executed successfully.",
		}),
		PopRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redo", Name: "pop_retries_total",
			Help: "Number of times a worker found no dispatchable job and backed off.",
		}),
		ExecuteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redo", Name: "execute_failures_total",
			Help: "Number of redo jobs whose execution failed.",
		}),
		ExecuteLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "redo", Name: "execute_duration_seconds",
			Help:    "Latency of redo job execution.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.JobsAdded, m.JobsExecuted, m.BarrierJobs, m.PopRetries, m.ExecuteFailures, m.ExecuteLatency,
	}
}

// register adds the metrics and the queue gauges to reg. The returned
// function removes them again.
func (m *Metrics) register(reg prometheus.Registerer, q *JobQueue) (unregister func(), _ error) {
	cs := append(m.collectors(),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "redo", Name: "queue_depth",
			Help: "Number of redo jobs waiting to be dispatched.",
		}, func() float64 { return float64(q.Len()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "redo", Name: "in_progress",
			Help: "Number of redo jobs currently executing.",
		}, func() float64 { return float64(q.InProgress()) }),
	)
	unregister = func() {
		for _, c := range cs {
			reg.Unregister(c)
		}
	}
	for i, c := range cs {
		if err := reg.Register(c); err != nil {
			for _, r := range cs[:i] {
				reg.Unregister(r)
			}
			return nil, errors.Wrap(err, "registering redo metrics")
		}
	}
	return unregister, nil
}
