// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

// InternalIterator is the interface the merged read path is built on: it is
// implemented by the memtable iterator, the sstable iterator, and the
// k-way merging iterator that composes them. UserIter wraps exactly one
// InternalIterator (the "base" iterator).
//
// Implementations are not required to be safe for concurrent use.
type InternalIterator interface {
	// SeekGE moves to the first entry whose internal key is >= key and
	// reports whether the resulting position is valid.
	SeekGE(key InternalKey) bool

	// First moves to the first entry and reports whether it is valid.
	First() bool

	// Last moves to the last entry and reports whether it is valid.
	Last() bool

	// Next moves to the next entry in ascending internal-key order and
	// reports whether the resulting position is valid.
	Next() bool

	// Prev moves to the previous entry in ascending internal-key order and
	// reports whether the resulting position is valid.
	Prev() bool

	// Valid reports whether the iterator is positioned at an entry.
	Valid() bool

	// Key returns the internal key at the current position. Valid() must be
	// true. The returned key is only valid until the next positioning call.
	Key() InternalKey

	// Value returns the value at the current position. Valid() must be
	// true. The returned slice is only valid until the next positioning
	// call.
	Value() []byte

	// Error returns the first error encountered during iteration, if any.
	Error() error

	// Close releases any resources associated with the iterator, running
	// any callbacks registered via SetCloser, and returns the first error
	// recorded.
	Close() error

	// SetCloser registers a closer that is invoked exactly once, when Close
	// is called. TableCache uses this to decouple a cache entry's lifetime
	// from the iterator's.
	SetCloser(closer Closer)
}

// Closer is a single release callback, used to decouple cache-entry
// lifetime from iterator lifetime.
type Closer interface {
	Close() error
}

// CloserFunc adapts a function to a Closer.
type CloserFunc func() error

// Close implements Closer.
func (f CloserFunc) Close() error { return f() }
