// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package cluster combines the per-shard top-K views produced by topology's
// router into a single cluster-wide ranking, by querying every peer
// concurrently and summing counts for domains reported by more than one
// shard.
package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/aristanetworks/tophits/counter"
)

// PeerFetcher retrieves a peer's current top-n hits. Production callers use
// HTTPFetcher; tests can supply a fake.
type PeerFetcher func(ctx context.Context, peerAddr string, n int) ([]counter.Hit, error)

// Merge queries every peer in peers concurrently for its top n hits and
// returns the combined cluster-wide top n, sorted by descending count. Ties
// break by domain name for a deterministic result. A peer that errors does
// not fail the whole merge; its contribution is simply omitted.
func Merge(ctx context.Context, peers []string, n int, fetch PeerFetcher) ([]counter.Hit, error) {
	results := make([][]counter.Hit, len(peers))
	g, ctx := errgroup.WithContext(ctx)
	for i, peer := range peers {
		i, peer := i, peer
		g.Go(func() error {
			hits, err := fetch(ctx, peer, n)
			if err != nil {
				// A single unreachable shard should not sink the whole
				// cluster view; the merge just proceeds without it.
				return nil
			}
			results[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sumSortTruncate(results, n), nil
}

// sumSortTruncate sums counts per domain across hitSets, sorts the result
// descending by count (domain name as tiebreaker), and truncates to n.
func sumSortTruncate(hitSets [][]counter.Hit, n int) []counter.Hit {
	totals := make(map[string]int)
	for _, hits := range hitSets {
		for _, h := range hits {
			totals[h.Domain] += h.Count
		}
	}

	merged := make([]counter.Hit, 0, len(totals))
	for domain, count := range totals {
		merged = append(merged, counter.Hit{Domain: domain, Count: count})
	}
	// Descending by count, domain as tiebreaker. The single-node bucket
	// list already returns non-increasing order; this sort re-establishes
	// that ordering after summing across shards, which can reorder ties.
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Count != merged[j].Count {
			return merged[i].Count > merged[j].Count
		}
		return merged[i].Domain < merged[j].Domain
	})

	if n < len(merged) {
		merged = merged[:n]
	}
	return merged
}

// Merger answers cluster-wide TopCount queries by combining a node's own
// local view with every peer's, fetched through Merge. It is the component
// api's HTTP handlers consult when the node has peers configured.
type Merger struct {
	local func(ctx context.Context, n int) ([]counter.Hit, error)
	peers func() ([]string, error)
	fetch PeerFetcher
}

// NewMerger builds a Merger. local answers this node's own TopCount; peers
// returns the current peer address list (a static config list or
// registry.Registry.Peers, refreshed on every call); fetch defaults to
// HTTPFetcher(nil) if nil.
func NewMerger(local func(ctx context.Context, n int) ([]counter.Hit, error), peers func() ([]string, error), fetch PeerFetcher) *Merger {
	if fetch == nil {
		fetch = HTTPFetcher(nil)
	}
	return &Merger{local: local, peers: peers, fetch: fetch}
}

// TopCount returns the cluster-wide top n hits: this node's own counts
// summed with every peer's, descending by count. If no peers are currently
// registered it degenerates to the local view.
func (m *Merger) TopCount(ctx context.Context, n int) ([]counter.Hit, error) {
	localHits, err := m.local(ctx, n)
	if err != nil {
		return nil, err
	}
	peerAddrs, err := m.peers()
	if err != nil {
		return nil, err
	}
	if len(peerAddrs) == 0 {
		return localHits, nil
	}
	peerHits, err := Merge(ctx, peerAddrs, n, m.fetch)
	if err != nil {
		return nil, err
	}
	return sumSortTruncate([][]counter.Hit{localHits, peerHits}, n), nil
}

// peerFetchMaxElapsedTime bounds how long a single peer fetch retries before
// giving up and letting Merge drop that peer's contribution.
const peerFetchMaxElapsedTime = 2 * time.Second

// HTTPFetcher builds a PeerFetcher that calls a peer's internal counts
// endpoint, retrying transient failures with an exponential backoff in the
// same style gnmireverse/client uses around its streaming RPC loop.
//
// It hits /internal/counts rather than the public /counts endpoint: the
// public endpoint is merger-aware and would otherwise double-count a peer's
// own peers when fetched transitively across a full mesh.
func HTTPFetcher(client *http.Client) PeerFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, peerAddr string, n int) ([]counter.Hit, error) {
		url := fmt.Sprintf("http://%s/internal/counts/%d", peerAddr, n)

		var hits []counter.Hit
		fetch := func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return backoff.Permanent(err)
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("peer %s returned status %d", peerAddr, resp.StatusCode)
			}
			var decoded []counter.Hit
			if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
				return backoff.Permanent(err)
			}
			hits = decoded
			return nil
		}

		bo := backoff.NewExponentialBackOff()
		bo.MaxElapsedTime = peerFetchMaxElapsedTime
		if err := backoff.Retry(fetch, backoff.WithContext(bo, ctx)); err != nil {
			return nil, err
		}
		return hits, nil
	}
}
