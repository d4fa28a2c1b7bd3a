// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/aristanetworks/tophits/counter"
)

func collect(t *testing.T, c *Collector) []*dto.Metric {
	t.Helper()
	ch := make(chan prometheus.Metric, 10)
	c.Collect(ch)
	close(ch)
	var out []*dto.Metric
	for m := range ch {
		var pb dto.Metric
		if err := m.Write(&pb); err != nil {
			t.Fatalf("failed to write metric: %v", err)
		}
		out = append(out, &pb)
	}
	return out
}

func TestCollectReportsAddsAndBuckets(t *testing.T) {
	cnt := counter.New()
	cnt.Add("a.com")
	cnt.Add("a.com")
	cnt.Add("b.com")

	c := NewCollector(cnt)
	metrics := collect(t, c)
	if len(metrics) != 2 {
		t.Fatalf("expected 2 metrics, got %d", len(metrics))
	}
	if got := metrics[0].GetCounter().GetValue(); got != 3 {
		t.Fatalf("adds total = %v, want 3", got)
	}
	if got := metrics[1].GetGauge().GetValue(); got != 2 {
		t.Fatalf("buckets = %v, want 2 (floor + count-2 bucket)", got)
	}
}

func TestCollectOnEmptyCounter(t *testing.T) {
	c := NewCollector(counter.New())
	metrics := collect(t, c)
	if len(metrics) != 2 {
		t.Fatalf("expected 2 metrics, got %d", len(metrics))
	}
	if got := metrics[0].GetCounter().GetValue(); got != 0 {
		t.Fatalf("adds total = %v, want 0", got)
	}
	if got := metrics[1].GetGauge().GetValue(); got != 1 {
		t.Fatalf("buckets = %v, want 1 (floor bucket always exists)", got)
	}
}
