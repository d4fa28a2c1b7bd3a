// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package counter implements the Hit Counter façade: it combines the
// bucket list and the entry index behind a single reader/writer lock,
// giving O(1) amortized Add and O(K) Top/TopCount.
package counter

import (
	"sync"

	"github.com/aristanetworks/tophits/bucketlist"
	"github.com/aristanetworks/tophits/errs"
)

// Hit pairs a domain with its observed count. TopCount returns a slice of
// Hits rather than a map so that traversal order (non-increasing count) is
// preserved.
type Hit struct {
	Domain string
	Count  int
}

// Counter counts Add calls per domain and answers top-K frequency queries.
// The zero value is not usable; construct with New. A *Counter is safe for
// concurrent use by multiple goroutines.
type Counter struct {
	mu    sync.RWMutex
	list  *bucketlist.List
	index *entryIndex
}

// New returns an empty Counter.
func New() *Counter {
	return &Counter{
		list:  bucketlist.New(),
		index: newEntryIndex(),
	}
}

// Add records one observation of domain. Not idempotent: each call
// increments domain's count by exactly one.
func (c *Counter) Add(domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.index.get(domain); ok {
		c.list.Promote(e)
		return
	}
	e := c.list.InsertNew(domain)
	c.index.put(domain, e)
}

// Top returns up to n domains in non-increasing order of count. n < 0 is an
// errs.KindInvalidArgument error; n == 0 returns an empty, non-nil slice.
func (c *Counter) Top(n int) ([]string, error) {
	hits, err := c.TopCount(n)
	if err != nil {
		return nil, err
	}
	domains := make([]string, len(hits))
	for i, h := range hits {
		domains[i] = h.Domain
	}
	return domains, nil
}

// TopCount returns up to n (domain, count) pairs in non-increasing order of
// count. n < 0 is an errs.KindInvalidArgument error; n == 0 returns an
// empty, non-nil slice.
func (c *Counter) TopCount(n int) ([]Hit, error) {
	if n < 0 {
		return nil, errs.NewInvalidArgument("n must be >= 0")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	hits := make([]Hit, 0, n)
	if n == 0 {
		return hits, nil
	}
	c.list.Walk(func(domain string, count int) bool {
		hits = append(hits, Hit{Domain: domain, Count: count})
		return len(hits) < n
	})
	return hits, nil
}

// Len returns the number of distinct domains observed so far.
func (c *Counter) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.len()
}

// TotalAdds returns the cumulative number of successful Add calls. It is
// exactly the bucket list's total weight (invariant I6: count times entries,
// summed over every bucket), read under the same lock as Add.
func (c *Counter) TotalAdds() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.list.TotalWeight()
}

// Buckets returns the number of count buckets currently in use, including
// the permanent floor bucket.
func (c *Counter) Buckets() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.list.Len()
}
