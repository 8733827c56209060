// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package memtable

import (
	"testing"

	"github.com/devlibx/pebble-core/internal/base"
)

func TestMemTableOrdering(t *testing.T) {
	m := New(base.DefaultCompare)
	m.Add(base.MakeInternalKey([]byte("b"), 2, base.InternalKeyKindSet), []byte("B"))
	m.Add(base.MakeInternalKey([]byte("a"), 1, base.InternalKeyKindSet), []byte("A"))
	m.Add(base.MakeInternalKey([]byte("a"), 3, base.InternalKeyKindSet), []byte("A3"))

	it := m.NewIter()
	it.First()
	// "a" with seqnum 3 must sort before "a" with seqnum 1, which must sort
	// before "b": ascending user key, then descending sequence number.
	if string(it.Key().UserKey) != "a" || it.Key().SeqNum() != 3 {
		t.Fatalf("first key = %s#%d, want a#3", it.Key().UserKey, it.Key().SeqNum())
	}
	it.Next()
	if string(it.Key().UserKey) != "a" || it.Key().SeqNum() != 1 {
		t.Fatalf("second key = %s#%d, want a#1", it.Key().UserKey, it.Key().SeqNum())
	}
	it.Next()
	if string(it.Key().UserKey) != "b" {
		t.Fatalf("third key = %s, want b", it.Key().UserKey)
	}
	if it.Next() {
		t.Fatal("expected iterator to be exhausted")
	}
}

func TestMemTableSnapshotStableDuringWrites(t *testing.T) {
	m := New(base.DefaultCompare)
	m.Add(base.MakeInternalKey([]byte("a"), 1, base.InternalKeyKindSet), []byte("A"))
	it := m.NewIter()
	m.Add(base.MakeInternalKey([]byte("z"), 2, base.InternalKeyKindSet), []byte("Z"))
	// The iterator was taken before "z" was added; it must not observe it.
	count := 0
	for ok := it.First(); ok; ok = it.Next() {
		count++
	}
	if count != 1 {
		t.Fatalf("snapshot iterator saw %d entries, want 1", count)
	}
}

func TestMemTableMemoryUsageGrows(t *testing.T) {
	m := New(base.DefaultCompare)
	before := m.MemoryUsage()
	m.Add(base.MakeInternalKey([]byte("a"), 1, base.InternalKeyKindSet), []byte("value"))
	if after := m.MemoryUsage(); after <= before {
		t.Fatalf("usage did not grow: before=%d after=%d", before, after)
	}
}
