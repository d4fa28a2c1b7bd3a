// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package topology

import (
	"strconv"
	"testing"

	"github.com/aristanetworks/tophits/errs"
)

func domainN(i int) string {
	return "d" + strconv.Itoa(i) + ".com"
}

func TestNodeForIsStable(t *testing.T) {
	r := New([]string{"node-a", "node-b", "node-c"})
	first, err := r.NodeFor("a.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		got, err := r.NodeFor("a.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != first {
			t.Fatalf("NodeFor is not stable: got %s, want %s", got, first)
		}
	}
}

func TestNodeForDistributesAcrossMembers(t *testing.T) {
	r := New([]string{"node-a", "node-b", "node-c"})
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		shard, err := r.NodeFor(domainN(i))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen[shard] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected all 3 shards to be used, got %v", seen)
	}
}

func TestEmptyRouterReturnsNotFound(t *testing.T) {
	r := New(nil)
	_, err := r.NodeFor("a.com")
	if err == nil {
		t.Fatal("expected an error for an empty ring")
	}
	if kind, ok := errs.KindOf(err); !ok || kind != errs.KindNotFound {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

func TestAddRebalancesMinimally(t *testing.T) {
	r := New([]string{"node-a", "node-b"})
	assignments := map[string]string{}
	for i := 0; i < 500; i++ {
		d := domainN(i)
		shard, _ := r.NodeFor(d)
		assignments[d] = shard
	}
	r.Add("node-c")
	moved := 0
	for d, shard := range assignments {
		got, _ := r.NodeFor(d)
		if got != shard {
			moved++
		}
	}
	if moved == 0 {
		t.Fatal("expected adding a shard to move at least some domains")
	}
	if moved > len(assignments)/2 {
		t.Fatalf("expected fewer than half of domains to move, got %d/%d", moved, len(assignments))
	}
}

func TestRemoveDropsShard(t *testing.T) {
	r := New([]string{"node-a", "node-b"})
	r.Remove("node-b")
	shards := r.Shards()
	if len(shards) != 1 || shards[0] != "node-a" {
		t.Fatalf("expected only node-a to remain, got %v", shards)
	}
}
