// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pebble

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/devlibx/pebble-core/internal/base"
	"github.com/devlibx/pebble-core/sstable"
	"github.com/devlibx/pebble-core/vfs"
)

// openCountingFS wraps a vfs.FS and counts calls to Open, so tests can
// assert how many times a file was actually opened rather than served from
// cache.
type openCountingFS struct {
	vfs.FS
	opens int32
}

func (fs *openCountingFS) Open(name string, opts ...vfs.OpenOption) (vfs.File, error) {
	atomic.AddInt32(&fs.opens, 1)
	return fs.FS.Open(name, opts...)
}

func writeTestTable(t *testing.T, fs vfs.FS, name string, entries []base.InternalKey, values [][]byte) {
	t.Helper()
	f, err := fs.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	w := sstable.NewWriter(f)
	for i, k := range entries {
		if err := w.Add(k, values[i]); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestTableCacheOpenAndIterate(t *testing.T) {
	fs := vfs.NewMem()
	opts := (&Options{FS: fs}).EnsureDefaults()
	writeTestTable(t, fs, base.TableFileName("db", 1), []base.InternalKey{
		base.MakeInternalKey([]byte("a"), 1, base.InternalKeyKindSet),
		base.MakeInternalKey([]byte("b"), 2, base.InternalKeyKindSet),
	}, [][]byte{[]byte("1"), []byte("2")})

	c := NewTableCache("db", opts)
	iter, err := c.NewIterator(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer iter.Close()
	if !iter.First() {
		t.Fatal("expected a valid first entry")
	}
	if string(iter.Key().UserKey) != "a" {
		t.Fatalf("got %q, want %q", iter.Key().UserKey, "a")
	}
}

func TestTableCacheMissReturnsUncachedError(t *testing.T) {
	fs := vfs.NewMem()
	opts := (&Options{FS: fs}).EnsureDefaults()
	c := NewTableCache("db", opts)
	if _, err := c.NewIterator(42, 0); err == nil {
		t.Fatal("expected error opening missing file")
	}
	// Write it late -- a transient failure should self-heal on retry.
	writeTestTable(t, fs, base.TableFileName("db", 42), []base.InternalKey{
		base.MakeInternalKey([]byte("k"), 1, base.InternalKeyKindSet),
	}, [][]byte{[]byte("v")})
	iter, err := c.NewIterator(42, 0)
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	iter.Close()
}

func TestTableCacheLegacyNameFallback(t *testing.T) {
	fs := vfs.NewMem()
	opts := (&Options{FS: fs}).EnsureDefaults()
	writeTestTable(t, fs, base.LegacyTableFileName("db", 7), []base.InternalKey{
		base.MakeInternalKey([]byte("k"), 1, base.InternalKeyKindSet),
	}, [][]byte{[]byte("v")})

	c := NewTableCache("db", opts)
	iter, err := c.NewIterator(7, 0)
	if err != nil {
		t.Fatalf("expected legacy-name fallback to succeed: %v", err)
	}
	iter.Close()
}

func TestTableCacheGetPicksLatestVersion(t *testing.T) {
	fs := vfs.NewMem()
	opts := (&Options{FS: fs}).EnsureDefaults()
	writeTestTable(t, fs, base.TableFileName("db", 3), []base.InternalKey{
		base.MakeInternalKey([]byte("k"), 5, base.InternalKeyKindSet),
		base.MakeInternalKey([]byte("k"), 1, base.InternalKeyKindSet),
	}, [][]byte{[]byte("new"), []byte("old")})

	c := NewTableCache("db", opts)
	var got []byte
	err := c.Get(3, 0, []byte("k"), func(_, value []byte) {
		got = append([]byte(nil), value...)
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Fatalf("got %q, want %q", got, "new")
	}
}

func TestTableCacheEvictionSurvivesOutstandingIterator(t *testing.T) {
	fs := vfs.NewMem()
	opts := (&Options{FS: fs}).EnsureDefaults()
	writeTestTable(t, fs, base.TableFileName("db", 9), []base.InternalKey{
		base.MakeInternalKey([]byte("a"), 1, base.InternalKeyKindSet),
	}, [][]byte{[]byte("1")})

	c := NewTableCache("db", opts)
	iter, err := c.NewIterator(9, 0)
	if err != nil {
		t.Fatal(err)
	}
	c.Evict(9)
	// The iterator must still be readable: eviction only drops the cache's
	// own reference, not the iterator's.
	if !iter.First() {
		t.Fatal("expected iterator to remain valid after eviction")
	}
	if err := iter.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestTableCacheConcurrentMissesShareOneOpen(t *testing.T) {
	fs := &openCountingFS{FS: vfs.NewMem()}
	writeTestTable(t, fs, base.TableFileName("db", 1), []base.InternalKey{
		base.MakeInternalKey([]byte("a"), 1, base.InternalKeyKindSet),
	}, [][]byte{[]byte("1")})

	opts := (&Options{FS: fs}).EnsureDefaults()
	c := NewTableCache("db", opts)

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			iter, err := c.NewIterator(1, 0)
			errs[i] = err
			if err == nil {
				iter.Close()
			}
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if got := atomic.LoadInt32(&fs.opens); got != 1 {
		t.Fatalf("file opened %d times across %d concurrent misses, want 1", got, n)
	}
}

func TestTableCacheBoundedSize(t *testing.T) {
	fs := vfs.NewMem()
	opts := (&Options{FS: fs, TableCacheSize: 2}).EnsureDefaults()
	for i := base.FileNum(1); i <= 4; i++ {
		writeTestTable(t, fs, base.TableFileName("db", i), []base.InternalKey{
			base.MakeInternalKey([]byte("a"), uint64(i), base.InternalKeyKindSet),
		}, [][]byte{[]byte("v")})
	}
	c := NewTableCache("db", opts)
	for i := base.FileNum(1); i <= 4; i++ {
		iter, err := c.NewIterator(i, 0)
		if err != nil {
			t.Fatal(err)
		}
		iter.Close()
	}
	c.mu.Lock()
	size := c.size
	c.mu.Unlock()
	if size > opts.TableCacheSize {
		t.Fatalf("cache grew to %d entries, want <= %d", size, opts.TableCacheSize)
	}
}
