// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pebble

import (
	"testing"

	"github.com/devlibx/pebble-core/internal/base"
	"github.com/devlibx/pebble-core/internal/memtable"
)

// buildIter loads writes (in the order given) into a memtable and returns
// an Iterator over it at the given snapshot. Each write is either a put
// (value != nil) or a delete (value == nil).
type write struct {
	key    string
	value  []byte
	seqNum uint64
}

func put(key, value string, seq uint64) write {
	return write{key: key, value: []byte(value), seqNum: seq}
}

func del(key string, seq uint64) write {
	return write{key: key, value: nil, seqNum: seq}
}

func buildIter(t *testing.T, writes []write, snapshot uint64) *Iterator {
	t.Helper()
	m := memtable.New(base.DefaultCompare)
	for _, w := range writes {
		kind := base.InternalKeyKindSet
		if w.value == nil {
			kind = base.InternalKeyKindDelete
		}
		m.Add(base.MakeInternalKey([]byte(w.key), w.seqNum, kind), w.value)
	}
	return NewIter(base.DefaultCompare, m.NewIter(), snapshot, nil, 1)
}

func forwardScan(it *Iterator) []string {
	var got []string
	for ok := it.First(); ok; ok = it.Next() {
		got = append(got, string(it.Key())+"="+string(it.Value()))
	}
	return got
}

func reverseScan(it *Iterator) []string {
	var got []string
	for ok := it.Last(); ok; ok = it.Prev() {
		got = append(got, string(it.Key())+"="+string(it.Value()))
	}
	// Reverse scans accumulate from the end; reverse the slice so the
	// comparison reads in ascending-key order like forwardScan's.
	for l, r := 0, len(got)-1; l < r; l, r = l+1, r-1 {
		got[l], got[r] = got[r], got[l]
	}
	return got
}

func assertEqual(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestScenario1LatestWins(t *testing.T) {
	it := buildIter(t, []write{put("a", "1", 1), put("a", "2", 2)}, 5)
	assertEqual(t, forwardScan(it), []string{"a=2"})
}

func TestScenario2Tombstone(t *testing.T) {
	it := buildIter(t, []write{put("a", "1", 1), del("a", 2)}, 5)
	assertEqual(t, forwardScan(it), nil)
}

func TestScenario3OverwriteAfterTombstone(t *testing.T) {
	it := buildIter(t, []write{put("a", "1", 1), del("a", 2), put("a", "3", 3)}, 5)
	assertEqual(t, forwardScan(it), []string{"a=3"})
}

func TestScenario4SnapshotBeforeTombstone(t *testing.T) {
	it := buildIter(t, []write{put("a", "1", 1), del("a", 2)}, 1)
	assertEqual(t, forwardScan(it), []string{"a=1"})
}

func TestScenario5MultiKeyOrdering(t *testing.T) {
	it := buildIter(t, []write{put("b", "B", 2), put("a", "A", 3)}, 5)
	assertEqual(t, forwardScan(it), []string{"a=A", "b=B"})
}

func TestScenario6ReverseMatchesForward(t *testing.T) {
	it := buildIter(t, []write{put("a", "1", 1), put("a", "2", 2)}, 5)
	assertEqual(t, reverseScan(it), []string{"a=2"})
}

func TestSeekThenPrevAfterScenario5(t *testing.T) {
	it := buildIter(t, []write{put("b", "B", 2), put("a", "A", 3)}, 5)
	if !it.SeekGE([]byte("aa")) {
		t.Fatal("expected seek to land on a valid entry")
	}
	if string(it.Key()) != "b" || string(it.Value()) != "B" {
		t.Fatalf("got %s=%s, want b=B", it.Key(), it.Value())
	}
	if !it.Prev() {
		t.Fatal("expected prev to be valid")
	}
	if string(it.Key()) != "a" || string(it.Value()) != "A" {
		t.Fatalf("got %s=%s, want a=A", it.Key(), it.Value())
	}
	if it.Prev() {
		t.Fatal("expected a further prev to invalidate the iterator")
	}
}

func TestDeduplicationAcrossManyVersions(t *testing.T) {
	var writes []write
	for s := uint64(1); s <= 20; s++ {
		writes = append(writes, put("k", "v", s))
	}
	it := buildIter(t, writes, 20)
	assertEqual(t, forwardScan(it), []string{"k=v"})
}

func TestDirectionIndependenceAcrossManyKeys(t *testing.T) {
	writes := []write{
		put("a", "1", 1),
		put("b", "2", 2),
		del("c", 3),
		put("c", "4", 4),
		put("d", "5", 5),
		del("d", 6),
	}
	fwd := forwardScan(buildIter(t, writes, 10))
	rev := reverseScan(buildIter(t, writes, 10))
	assertEqual(t, fwd, rev)
	assertEqual(t, fwd, []string{"a=1", "b=2", "c=4"})
}

func TestNextThenPrevRoundTrips(t *testing.T) {
	it := buildIter(t, []write{put("a", "1", 1), put("b", "2", 2), put("c", "3", 3)}, 5)
	it.First()
	it.Next() // now at b
	if string(it.Key()) != "b" {
		t.Fatalf("got %s, want b", it.Key())
	}
	it.Prev() // back to a
	if string(it.Key()) != "a" {
		t.Fatalf("got %s, want a", it.Key())
	}
}

func TestIteratorNotValidBeforeFirstSeek(t *testing.T) {
	it := buildIter(t, []write{put("a", "1", 1)}, 5)
	if it.Valid() {
		t.Fatal("expected a freshly constructed Iterator to be invalid")
	}
}

func TestCorruptionIsSticky(t *testing.T) {
	m := memtable.New(base.DefaultCompare)
	// A trailer kind outside {Set, Delete} is corrupt.
	m.Add(base.InternalKey{UserKey: []byte("a"), Trailer: base.MakeTrailer(1, base.InternalKeyKind(7))}, []byte("x"))
	it := NewIter(base.DefaultCompare, m.NewIter(), 10, nil, 1)
	if it.First() {
		t.Fatal("expected corrupt entry to invalidate the iterator")
	}
	if !base.IsCorruptionError(it.Error()) {
		t.Fatalf("expected a corruption error, got %v", it.Error())
	}
	// Once entered, the error is sticky.
	if it.Next() {
		t.Fatal("expected iterator to remain invalid after corruption")
	}
	if !base.IsCorruptionError(it.Error()) {
		t.Fatal("expected corruption error to persist")
	}
}

func TestReadSamplingFiresAndRefills(t *testing.T) {
	var sampled [][]byte
	m := memtable.New(base.DefaultCompare)
	big := make([]byte, kReadBytesPeriod*3)
	m.Add(base.MakeInternalKey([]byte("a"), 1, base.InternalKeyKindSet), big)
	m.Add(base.MakeInternalKey([]byte("b"), 2, base.InternalKeyKindSet), big)
	it := NewIter(base.DefaultCompare, m.NewIter(), 10, func(k []byte) {
		sampled = append(sampled, append([]byte(nil), k...))
	}, 42)
	for ok := it.First(); ok; ok = it.Next() {
	}
	if len(sampled) == 0 {
		t.Fatal("expected at least one read sample to fire across large values")
	}
}
