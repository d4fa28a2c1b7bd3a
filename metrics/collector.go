// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package metrics exposes a *counter.Counter's state as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aristanetworks/tophits/counter"
)

var (
	addsTotalDesc = prometheus.NewDesc(
		"tophits_adds_total",
		"Total number of Add calls observed since startup.",
		nil, nil,
	)
	bucketsDesc = prometheus.NewDesc(
		"tophits_buckets",
		"Number of count buckets currently in the bucket list, including the floor bucket.",
		nil, nil,
	)
)

// TopQueryDuration observes how long a Top/TopCount HTTP request took to
// serve. It is a histogram rather than a Collector-sampled gauge because it
// measures per-request latency, fed by the HTTP handlers themselves instead
// of sampled from counter state; register it alongside Collector with
// prometheus.MustRegister.
var TopQueryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Name:    "tophits_top_query_duration_seconds",
	Help:    "Latency of Top/TopCount HTTP requests.",
	Buckets: prometheus.DefBuckets,
})

// Collector implements prometheus.Collector over a *counter.Counter.
type Collector struct {
	counter *counter.Counter
}

// NewCollector wraps c for Prometheus registration.
func NewCollector(c *counter.Counter) *Collector {
	return &Collector{counter: c}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- addsTotalDesc
	ch <- bucketsDesc
}

// Collect implements prometheus.Collector. It samples the counter's current
// state through its public TotalAdds/Buckets methods, each of which reads
// under the counter's read lock; the metrics are built after the lock is
// released.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(addsTotalDesc, prometheus.CounterValue, float64(c.counter.TotalAdds()))
	ch <- prometheus.MustNewConstMetric(bucketsDesc, prometheus.GaugeValue, float64(c.counter.Buckets()))
}
