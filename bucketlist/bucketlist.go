// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package bucketlist implements the frequency-ordered bucket list that backs
// the hit counter: a doubly-linked list of count buckets, strictly increasing
// in count from a permanent floor bucket (count 1) toward the current top
// bucket, each owning a doubly-linked list of entries sharing that count.
//
// Promote is the only operation that moves entries between buckets and runs
// in amortized O(1): it
// detaches an entry from its bucket, finds or creates the count+1 bucket,
// and attaches the entry at its head. The vacated bucket is only unlinked
// after the destination splice completes, so a freshly created destination
// is never orphaned by an earlier unlink.
package bucketlist

// Entry represents a single domain tracked by the bucket list. It resides in
// exactly one bucket's entry list at a time.
type Entry struct {
	Domain string

	prev, next *Entry
	bucket     *bucket
}

// Count returns the entry's current hit count.
func (e *Entry) Count() int {
	return e.bucket.count
}

// bucket holds every entry that currently shares the same count.
type bucket struct {
	count int

	prev, next *bucket
	entries    *Entry // head of this bucket's entry list, nil if empty
}

// List is a frequency-ordered bucket list with a permanent floor bucket at
// count 1. The zero value is not usable; construct with New.
type List struct {
	floor *bucket
	top   *bucket
}

// New returns an empty bucket list with its permanent floor bucket in place.
func New() *List {
	floor := &bucket{count: 1}
	return &List{floor: floor, top: floor}
}

// Len reports how many buckets currently exist, for diagnostics and tests.
func (l *List) Len() int {
	n := 0
	for b := l.floor; b != nil; b = b.next {
		n++
	}
	return n
}

// InsertNew attaches a fresh entry at the head of the floor bucket's entry
// list and returns it. The floor bucket always exists, so this never
// allocates a bucket.
func (l *List) InsertNew(domain string) *Entry {
	e := &Entry{Domain: domain, bucket: l.floor}
	l.attachHead(l.floor, e)
	return e
}

// Promote advances e to count+1, creating or reusing the destination bucket
// as needed, and updates top if e reached a new maximum. e must currently
// belong to this list. Promote is infallible: Go's allocator panics rather
// than returning an error on real exhaustion, so there is no failure path
// to surface here (see errs.KindAllocationFailure's doc comment for where
// that kind is actually used).
func (l *List) Promote(e *Entry) {
	b := e.bucket
	c := b.count
	bNext := b.next

	l.detach(b, e)

	unlinkB := b.entries == nil && b != l.floor

	var dest *bucket
	if bNext != nil && bNext.count == c+1 {
		dest = bNext
	} else {
		l.spliceAfter(b, &bucket{count: c + 1})
		dest = b.next
	}

	e.bucket = dest
	l.attachHead(dest, e)

	if unlinkB {
		l.unlink(b)
	}

	if dest.count > l.top.count {
		l.top = dest
	}
}

// detach removes e from its bucket's entry list, fixing neighbor links and
// advancing the bucket's head if e was it.
func (l *List) detach(b *bucket, e *Entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		b.entries = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	e.prev, e.next = nil, nil
}

// attachHead makes e the new head of b's entry list.
func (l *List) attachHead(b *bucket, e *Entry) {
	e.bucket = b
	e.prev = nil
	e.next = b.entries
	if b.entries != nil {
		b.entries.prev = e
	}
	b.entries = e
}

// spliceAfter inserts nb immediately after b in the bucket list.
func (l *List) spliceAfter(b, nb *bucket) {
	nb.prev = b
	nb.next = b.next
	if b.next != nil {
		b.next.prev = nb
	}
	b.next = nb
	if l.top == b {
		l.top = nb
	}
}

// unlink removes b from the bucket list. b must not be the floor bucket.
func (l *List) unlink(b *bucket) {
	if b.prev != nil {
		b.prev.next = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	}
	if l.top == b {
		l.top = b.prev
	}
	b.prev, b.next = nil, nil
}

// Walk calls f for every (domain, count) pair in the list, traversing from
// top toward floor and, within each bucket, from its head forward. It stops
// early if f returns false. Walk never mutates the list and is safe to call
// under a caller-held read lock.
func (l *List) Walk(f func(domain string, count int) bool) {
	for b := l.top; b != nil; b = b.prev {
		for e := b.entries; e != nil; e = e.next {
			if !f(e.Domain, b.count) {
				return
			}
		}
	}
}

// TotalWeight returns the sum, over all buckets, of count times number of
// entries. Exposed for invariant checks in tests (spec invariant I6).
func (l *List) TotalWeight() int {
	total := 0
	for b := l.floor; b != nil; b = b.next {
		n := 0
		for e := b.entries; e != nil; e = e.next {
			n++
		}
		total += n * b.count
	}
	return total
}
