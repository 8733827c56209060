// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pebble

import (
	"testing"

	"github.com/devlibx/pebble-core/internal/base"
	"github.com/devlibx/pebble-core/vfs"
)

func TestIngestExternalFiles(t *testing.T) {
	fs := vfs.NewMem()
	opts := (&Options{FS: fs}).EnsureDefaults()

	writeTestTable(t, fs, "ext/one.sst", []base.InternalKey{
		base.MakeInternalKey([]byte("a"), 0, base.InternalKeyKindSet),
		base.MakeInternalKey([]byte("b"), 0, base.InternalKeyKindSet),
	}, [][]byte{[]byte("1"), []byte("2")})
	writeTestTable(t, fs, "ext/two.sst", []base.InternalKey{
		base.MakeInternalKey([]byte("c"), 0, base.InternalKeyKindSet),
		base.MakeInternalKey([]byte("d"), 0, base.InternalKeyKindDelete),
	}, [][]byte{[]byte("3"), nil})

	var nextFileNum base.FileNum = 1
	alloc := func() base.FileNum {
		n := nextFileNum
		nextFileNum++
		return n
	}

	fileNums, err := IngestExternalFiles(opts, "db", []string{"ext/two.sst", "ext/one.sst"}, alloc, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(fileNums) != 2 {
		t.Fatalf("got %d file numbers, want 2", len(fileNums))
	}

	cache := NewTableCache("db", opts)
	var got []string
	for _, fn := range fileNums {
		it, err := cache.NewIterator(fn, 0)
		if err != nil {
			t.Fatal(err)
		}
		for ok := it.First(); ok; ok = it.Next() {
			got = append(got, string(it.Key().UserKey))
			if it.Key().SeqNum() == 0 {
				t.Fatalf("ingested key %s still carries seqnum 0", it.Key().UserKey)
			}
		}
		if err := it.Close(); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestIngestRejectsOverlappingRanges(t *testing.T) {
	fs := vfs.NewMem()
	opts := (&Options{FS: fs}).EnsureDefaults()

	writeTestTable(t, fs, "ext/one.sst", []base.InternalKey{
		base.MakeInternalKey([]byte("a"), 0, base.InternalKeyKindSet),
		base.MakeInternalKey([]byte("m"), 0, base.InternalKeyKindSet),
	}, [][]byte{[]byte("1"), []byte("2")})
	writeTestTable(t, fs, "ext/two.sst", []base.InternalKey{
		base.MakeInternalKey([]byte("g"), 0, base.InternalKeyKindSet),
		base.MakeInternalKey([]byte("z"), 0, base.InternalKeyKindSet),
	}, [][]byte{[]byte("3"), []byte("4")})

	var nextFileNum base.FileNum = 1
	alloc := func() base.FileNum {
		n := nextFileNum
		nextFileNum++
		return n
	}

	if _, err := IngestExternalFiles(opts, "db", []string{"ext/one.sst", "ext/two.sst"}, alloc, 100); err == nil {
		t.Fatal("expected an overlap error")
	}
}

func TestIngestRejectsNonZeroSeqNum(t *testing.T) {
	fs := vfs.NewMem()
	opts := (&Options{FS: fs}).EnsureDefaults()

	writeTestTable(t, fs, "ext/one.sst", []base.InternalKey{
		base.MakeInternalKey([]byte("a"), 5, base.InternalKeyKindSet),
	}, [][]byte{[]byte("1")})

	var nextFileNum base.FileNum = 1
	alloc := func() base.FileNum {
		n := nextFileNum
		nextFileNum++
		return n
	}

	if _, err := IngestExternalFiles(opts, "db", []string{"ext/one.sst"}, alloc, 100); err == nil {
		t.Fatal("expected a non-zero-seqnum error")
	}
}
