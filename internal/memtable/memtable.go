// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package memtable implements the engine's in-memory write buffer: an
// ordered index over entries whose key and value bytes are copied into an
// arena.Arena, so that iterators handed to readers stay valid for as long
// as the memtable itself does, without any per-entry reference counting.
//
// The index itself is a sorted slice rather than a concurrent skip list --
// the skip-list structure a production memtable uses is explicitly out of
// scope here; what this package exists to exercise is the arena beneath
// it.
package memtable

import (
	"sync"

	"golang.org/x/exp/slices"

	"github.com/devlibx/pebble-core/internal/arena"
	"github.com/devlibx/pebble-core/internal/base"
)

// MemTable is a single writer, many-reader ordered index of internal
// entries backed by an arena.Arena.
type MemTable struct {
	cmp   base.Compare
	arena *arena.Arena

	mu      sync.RWMutex
	entries []base.InternalKey
	values  [][]byte
}

// New returns an empty MemTable ordered by cmp.
func New(cmp base.Compare) *MemTable {
	return &MemTable{cmp: cmp, arena: arena.New()}
}

// Add inserts (key, value) into the index. The bytes of both are copied
// into the arena; the caller's slices may be reused or mutated afterward.
// Add is not safe to call concurrently with itself, only with readers.
func (m *MemTable) Add(key base.InternalKey, value []byte) {
	uk := m.arena.Allocate(len(key.UserKey))
	copy(uk, key.UserKey)
	var v []byte
	if len(value) > 0 {
		v = m.arena.Allocate(len(value))
		copy(v, value)
	}
	stored := base.InternalKey{UserKey: uk, Trailer: key.Trailer}

	m.mu.Lock()
	defer m.mu.Unlock()
	i, _ := slices.BinarySearchFunc(m.entries, stored, func(e, t base.InternalKey) int {
		return base.InternalCompare(m.cmp, e, t)
	})
	// Build fresh slices rather than shifting in place, so that snapshots
	// already handed out by NewIter never see this insertion.
	entries := make([]base.InternalKey, len(m.entries)+1)
	copy(entries, m.entries[:i])
	entries[i] = stored
	copy(entries[i+1:], m.entries[i:])
	m.entries = entries

	values := make([][]byte, len(m.values)+1)
	copy(values, m.values[:i])
	values[i] = v
	copy(values[i+1:], m.values[i:])
	m.values = values
}

// MemoryUsage returns the arena's conservative upper bound on bytes
// reserved, which callers use to decide when to flush the memtable.
func (m *MemTable) MemoryUsage() int64 {
	return m.arena.MemoryUsage()
}

// Empty reports whether the memtable holds no entries.
func (m *MemTable) Empty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries) == 0
}

// NewIter returns an iterator over a point-in-time snapshot of the
// memtable's entries. Because Add only ever grows the arena and never
// mutates previously-returned byte ranges, the snapshot's key and value
// slices remain valid for the iterator's lifetime even as the writer keeps
// adding entries.
func (m *MemTable) NewIter() base.InternalIterator {
	m.mu.RLock()
	entries := m.entries
	values := m.values
	m.mu.RUnlock()
	return &memTableIter{cmp: m.cmp, entries: entries, values: values, pos: -1}
}

type memTableIter struct {
	cmp     base.Compare
	entries []base.InternalKey
	values  [][]byte
	pos     int
	closer  base.Closer
}

var _ base.InternalIterator = (*memTableIter)(nil)

func (it *memTableIter) SeekGE(key base.InternalKey) bool {
	it.pos, _ = slices.BinarySearchFunc(it.entries, key, func(e, t base.InternalKey) int {
		return base.InternalCompare(it.cmp, e, t)
	})
	return it.Valid()
}

func (it *memTableIter) First() bool {
	it.pos = 0
	return it.Valid()
}

func (it *memTableIter) Last() bool {
	it.pos = len(it.entries) - 1
	return it.Valid()
}

func (it *memTableIter) Next() bool {
	if it.pos < len(it.entries) {
		it.pos++
	}
	return it.Valid()
}

func (it *memTableIter) Prev() bool {
	if it.pos >= 0 {
		it.pos--
	}
	return it.Valid()
}

func (it *memTableIter) Valid() bool {
	return it.pos >= 0 && it.pos < len(it.entries)
}

func (it *memTableIter) Key() base.InternalKey {
	return it.entries[it.pos]
}

func (it *memTableIter) Value() []byte {
	return it.values[it.pos]
}

func (it *memTableIter) Error() error { return nil }

func (it *memTableIter) Close() error {
	if it.closer != nil {
		return it.closer.Close()
	}
	return nil
}

func (it *memTableIter) SetCloser(closer base.Closer) {
	it.closer = closer
}
