// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pebble

import (
	"container/list"
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/redact"
	"golang.org/x/sync/singleflight"

	"github.com/devlibx/pebble-core/internal/base"
	"github.com/devlibx/pebble-core/sstable"
	"github.com/devlibx/pebble-core/vfs"
)

// tableCacheKey is the cache key: the 8-byte little-endian encoding of a
// file number, per the spec's wire format for this lookup.
type tableCacheKey [8]byte

func makeTableCacheKey(fileNum base.FileNum) tableCacheKey {
	var k tableCacheKey
	binary.LittleEndian.PutUint64(k[:], uint64(fileNum))
	return k
}

// tableAndFile pairs a parsed table with the file handle backing it; the
// pair is torn down atomically once the cache entry is evicted and its
// last outstanding reference released.
type tableAndFile struct {
	file  vfs.File
	table *sstable.Reader
}

type tableCacheEntry struct {
	key     tableCacheKey
	value   *tableAndFile
	refs    int32 // 1 while resident in the cache, plus one per outstanding iterator/lookup
	elem    *list.Element
}

func (e *tableCacheEntry) ref() {
	atomic.AddInt32(&e.refs, 1)
}

// unref releases one reference; when the count drops to zero the
// underlying table and file are closed.
func (e *tableCacheEntry) unref() {
	if atomic.AddInt32(&e.refs, -1) == 0 {
		e.value.table.Close()
	}
}

// TableCache caches open sstable handles keyed by file number, so that
// repeated iterator construction and point lookups against the same file
// don't each pay the cost of reopening and re-parsing it. Eviction does not
// free resources out from under an iterator that still holds a reference:
// the (file, table) pair is destroyed only when the last reference -- cache
// residency counting as one -- is released.
type TableCache struct {
	dbDir string
	opts  *Options

	mu      sync.Mutex
	entries map[tableCacheKey]*tableCacheEntry
	lru     *list.List // front = most recently used
	size    int

	// sf collapses concurrent opens of the same file number into a single
	// call to c.open, so a burst of iterator/lookup requests that all miss
	// the cache for the same file don't each pay for a redundant parse.
	sf singleflight.Group
}

// NewTableCache returns a TableCache over files rooted at dbDir, bounded to
// opts.TableCacheSize resident handles past their last external reference.
func NewTableCache(dbDir string, opts *Options) *TableCache {
	opts = opts.EnsureDefaults()
	return &TableCache{
		dbDir:   dbDir,
		opts:    opts,
		entries: make(map[tableCacheKey]*tableCacheEntry),
		lru:     list.New(),
	}
}

// findTable returns a referenced cache entry for fileNum, opening and
// inserting it on a miss. The caller must call unref on the returned entry
// exactly once.
func (c *TableCache) findTable(fileNum base.FileNum, fileSize uint64) (*tableCacheEntry, error) {
	key := makeTableCacheKey(fileNum)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.ref()
		c.lru.MoveToFront(e.elem)
		c.mu.Unlock()
		tableCacheHits.Inc()
		return e, nil
	}
	c.mu.Unlock()
	tableCacheMisses.Inc()

	// Open and insert outside the lock, but serialized per file number by
	// singleflight: I/O should never hold up unrelated lookups, and a burst
	// of concurrent misses for the same file must not each pay for a
	// redundant parse, or -- worse -- race to close a table the others are
	// still holding. Every caller in the burst (leader and followers alike)
	// is handed the same entry and takes its own reference below.
	v, err, _ := c.sf.Do(string(key[:]), func() (interface{}, error) {
		c.mu.Lock()
		if e, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return e, nil
		}
		c.mu.Unlock()

		tf, err := c.open(fileNum)
		if err != nil {
			// Transient errors (or a file a concurrent repair just fixed)
			// are not cached, so the next access retries from scratch.
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if e, ok := c.entries[key]; ok {
			// Lost a race with an opener outside this singleflight call
			// (e.g. a prior, now-completed burst); use its entry instead.
			tf.table.Close()
			return e, nil
		}

		e := &tableCacheEntry{key: key, value: tf, refs: 1} // cache residency
		e.elem = c.lru.PushFront(e)
		c.entries[key] = e
		c.size++
		c.evictOverflowLocked()
		if c.opts.Logger != nil {
			c.opts.Logger.Infof("table-cache: opened %s", redact.Safe(base.TableFileName(c.dbDir, fileNum)))
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}

	e := v.(*tableCacheEntry)
	c.mu.Lock()
	e.ref()
	c.lru.MoveToFront(e.elem)
	c.mu.Unlock()
	return e, nil
}

func (c *TableCache) open(fileNum base.FileNum) (*tableAndFile, error) {
	name := base.TableFileName(c.dbDir, fileNum)
	f, err := c.opts.FS.Open(name)
	if err != nil {
		// Compatibility path: older databases wrote tables under the
		// legacy name. The spec does not say which name won, so neither
		// is logged here -- only that the fallback is attempted in order.
		legacy := base.LegacyTableFileName(c.dbDir, fileNum)
		f, err = c.opts.FS.Open(legacy)
		if err != nil {
			return nil, err
		}
	}
	table, err := sstable.NewReader(f, sstable.ReaderOptions{Comparer: c.opts.Comparer})
	if err != nil {
		return nil, err
	}
	return &tableAndFile{file: f, table: table}, nil
}

// evictOverflowLocked drops cache residency (not outstanding references)
// from least-recently-used entries once the cache exceeds its bound.
// Entries with outstanding iterator/lookup references stay alive in
// memory -- eviction only means the cache itself stops pinning them.
func (c *TableCache) evictOverflowLocked() {
	for c.size > c.opts.TableCacheSize {
		back := c.lru.Back()
		if back == nil {
			return
		}
		e := back.Value.(*tableCacheEntry)
		c.lru.Remove(back)
		delete(c.entries, e.key)
		c.size--
		tableCacheEvictions.Inc()
		e.unref() // releases the cache's own reference
	}
}

// Evict removes fileNum's entry from the cache immediately. Any iterator
// already holding a reference keeps the underlying file and table alive
// until it releases that reference.
func (c *TableCache) Evict(fileNum base.FileNum) {
	key := makeTableCacheKey(fileNum)
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		c.lru.Remove(e.elem)
		delete(c.entries, key)
		c.size--
	}
	c.mu.Unlock()
	if ok {
		e.unref()
	}
}

// NewIterator returns an iterator over the given file. The iterator
// internally holds a reference to the cache entry, released exactly once
// when the iterator is closed -- decoupling the entry's cache residency
// from the iterator's lifetime.
func (c *TableCache) NewIterator(fileNum base.FileNum, fileSize uint64) (base.InternalIterator, error) {
	e, err := c.findTable(fileNum, fileSize)
	if err != nil {
		return nil, err
	}
	iter := e.value.table.NewIter()
	iter.SetCloser(base.CloserFunc(func() error {
		e.unref()
		return nil
	}))
	return iter, nil
}

// Get performs a point lookup of key in the given file. On a hit, saver is
// invoked with the found (key, value) before Get returns. If the newest
// version of key in the file is a tombstone, or key is absent, Get returns
// base.ErrNotFound without invoking saver. The cache reference is released
// before Get returns in every case.
func (c *TableCache) Get(
	fileNum base.FileNum, fileSize uint64, key []byte, saver func(key, value []byte),
) error {
	e, err := c.findTable(fileNum, fileSize)
	if err != nil {
		return err
	}
	defer e.unref()

	cmp := base.DefaultCompare
	if c.opts.Comparer != nil {
		cmp = c.opts.Comparer.Compare
	}

	iter := e.value.table.NewIter()
	defer iter.Close()
	target := base.MakeSearchKey(key, base.SeqNumMax)
	if iter.SeekGE(target) && cmp(iter.Key().UserKey, key) == 0 &&
		iter.Key().Kind() == base.InternalKeyKindSet {
		saver(iter.Key().UserKey, iter.Value())
		return nil
	}
	return base.ErrNotFound
}
