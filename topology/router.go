// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package topology maps domains to shards in a cluster of tophits nodes
// using a consistent-hash ring, so that a given domain is always routed to
// the same shard regardless of which node receives the original request.
package topology

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/aristanetworks/tophits/errs"
)

const replicasPerShard = 100

// Router assigns domains to shards using consistent hashing, so that
// adding or removing a shard only reshuffles a small fraction of domains.
type Router struct {
	mu      sync.RWMutex
	ring    []uint64          // sorted virtual node hashes
	byHash  map[uint64]string // virtual node hash -> shard name
	members map[string]bool
}

// New builds a Router over the given shard names.
func New(shards []string) *Router {
	r := &Router{
		byHash:  make(map[uint64]string),
		members: make(map[string]bool),
	}
	for _, s := range shards {
		r.addLocked(s)
	}
	r.rebuildLocked()
	return r
}

func (r *Router) addLocked(shard string) {
	r.members[shard] = true
	for i := 0; i < replicasPerShard; i++ {
		h := hashVirtualNode(shard, i)
		r.byHash[h] = shard
	}
}

func (r *Router) rebuildLocked() {
	ring := make([]uint64, 0, len(r.byHash))
	for h := range r.byHash {
		ring = append(ring, h)
	}
	sort.Slice(ring, func(i, j int) bool { return ring[i] < ring[j] })
	r.ring = ring
}

func hashVirtualNode(shard string, replica int) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%s#%d", shard, replica))
}

// Add registers a new shard and rebalances the ring.
func (r *Router) Add(shard string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[shard] {
		return
	}
	r.addLocked(shard)
	r.rebuildLocked()
}

// Remove drops a shard from the ring.
func (r *Router) Remove(shard string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.members[shard] {
		return
	}
	delete(r.members, shard)
	for i := 0; i < replicasPerShard; i++ {
		delete(r.byHash, hashVirtualNode(shard, i))
	}
	r.rebuildLocked()
}

// Shards returns the current shard membership, in no particular order.
func (r *Router) Shards() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.members))
	for s := range r.members {
		out = append(out, s)
	}
	return out
}

// NodeFor returns the shard a domain routes to. It returns an
// errs.KindNotFound error if the ring has no members.
func (r *Router) NodeFor(domain string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.ring) == 0 {
		return "", errs.NewNotFound("no shards registered")
	}
	h := xxhash.Sum64String(domain)
	i := sort.Search(len(r.ring), func(i int) bool { return r.ring[i] >= h })
	if i == len(r.ring) {
		i = 0
	}
	return r.byHash[r.ring[i]], nil
}
