// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package counter

import (
	"hash/maphash"

	"github.com/aristanetworks/tophits/bucketlist"
	"github.com/aristanetworks/tophits/hashmap"
)

// entryIndex maps a domain string to its bucketlist.Entry, giving the
// counter O(1) amortized lookup on Add. It is a thin instantiation of the
// generic open-addressing hashmap.Hashmap for string keys.
type entryIndex struct {
	m *hashmap.Hashmap[string, *bucketlist.Entry]
}

func newEntryIndex() *entryIndex {
	seed := maphash.MakeSeed()
	hash := func(s string) uint64 { return maphash.String(seed, s) }
	equal := func(a, b string) bool { return a == b }
	return &entryIndex{m: hashmap.New[string, *bucketlist.Entry](0, hash, equal)}
}

func (idx *entryIndex) get(domain string) (*bucketlist.Entry, bool) {
	return idx.m.Get(domain)
}

func (idx *entryIndex) put(domain string, e *bucketlist.Entry) {
	idx.m.Set(domain, e)
}

func (idx *entryIndex) len() int {
	return idx.m.Len()
}
