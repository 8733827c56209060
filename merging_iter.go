// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pebble

import "github.com/devlibx/pebble-core/internal/base"

// mergingIter composes several InternalIterators (typically one memtable
// iterator and one per sstable) into the single ordered stream UserIter
// wraps. It performs no deduplication or snapshot filtering of its own --
// that is UserIter's job -- it only ever exposes entries in internal-key
// order, merging ties from different sources.
//
// A tagged union of concrete source iterators would serve equally well;
// this implementation picks the current minimum (or, in reverse, maximum)
// by scanning every child on each step, which is the simplest correct thing
// to do for the handful of sources a single read touches.
//
// Every child but the exposed one is left positioned wherever its last
// scan in the *other* direction abandoned it, which is on the wrong side
// of the exposed key for the new direction. mergingDir tracks which way
// the children are currently aligned, and Next/Prev realign every other
// child onto the correct side of the current key before resuming the
// scan -- the same problem UserIter itself solves one level up when its
// own Next/Prev cross a direction change, just applied per child here.
type mergingIter struct {
	cmp     base.Compare
	iters   []base.InternalIterator
	current int // index into iters of the exposed entry, or -1
	dir     mergingDir
	err     error
	closer  base.Closer
}

type mergingDir int8

const (
	mergingDirForward mergingDir = iota
	mergingDirReverse
)

var _ base.InternalIterator = (*mergingIter)(nil)

// newMergingIter returns a merging iterator over iters. It takes ownership
// of iters and closes all of them when it is closed.
func newMergingIter(cmp base.Compare, iters ...base.InternalIterator) *mergingIter {
	return &mergingIter{cmp: cmp, iters: iters, current: -1}
}

func (m *mergingIter) findMin() {
	best := -1
	for i, it := range m.iters {
		if !it.Valid() {
			continue
		}
		if best == -1 || base.InternalCompare(m.cmp, it.Key(), m.iters[best].Key()) < 0 {
			best = i
		}
	}
	m.current = best
}

func (m *mergingIter) findMax() {
	best := -1
	for i, it := range m.iters {
		if !it.Valid() {
			continue
		}
		if best == -1 || base.InternalCompare(m.cmp, it.Key(), m.iters[best].Key()) > 0 {
			best = i
		}
	}
	m.current = best
}

func (m *mergingIter) SeekGE(key base.InternalKey) bool {
	for _, it := range m.iters {
		it.SeekGE(key)
	}
	m.dir = mergingDirForward
	m.findMin()
	return m.Valid()
}

func (m *mergingIter) First() bool {
	for _, it := range m.iters {
		it.First()
	}
	m.dir = mergingDirForward
	m.findMin()
	return m.Valid()
}

func (m *mergingIter) Last() bool {
	for _, it := range m.iters {
		it.Last()
	}
	m.dir = mergingDirReverse
	m.findMax()
	return m.Valid()
}

// switchToForward realigns every child but the exposed one onto the first
// entry strictly greater than the current key, so that findMin -- which
// only ever compares valid children's current positions -- can't pick a
// stale position left over from a reverse scan.
func (m *mergingIter) switchToForward() {
	key := m.iters[m.current].Key()
	for i, it := range m.iters {
		if i == m.current {
			continue
		}
		if it.SeekGE(key) && base.InternalCompare(m.cmp, it.Key(), key) == 0 {
			it.Next()
		}
	}
	m.dir = mergingDirForward
}

// switchToReverse realigns every child but the exposed one onto the last
// entry strictly less than the current key, mirroring switchToForward for
// a scan that is about to resume backwards.
func (m *mergingIter) switchToReverse() {
	key := m.iters[m.current].Key()
	for i, it := range m.iters {
		if i == m.current {
			continue
		}
		if it.SeekGE(key) {
			it.Prev()
		} else {
			it.Last()
		}
	}
	m.dir = mergingDirReverse
}

func (m *mergingIter) Next() bool {
	if m.current < 0 {
		return false
	}
	if m.dir != mergingDirForward {
		m.switchToForward()
	}
	m.iters[m.current].Next()
	m.findMin()
	return m.Valid()
}

func (m *mergingIter) Prev() bool {
	if m.current < 0 {
		return false
	}
	if m.dir != mergingDirReverse {
		m.switchToReverse()
	}
	m.iters[m.current].Prev()
	m.findMax()
	return m.Valid()
}

func (m *mergingIter) Valid() bool {
	return m.current >= 0 && m.current < len(m.iters) && m.iters[m.current].Valid()
}

func (m *mergingIter) Key() base.InternalKey {
	return m.iters[m.current].Key()
}

func (m *mergingIter) Value() []byte {
	return m.iters[m.current].Value()
}

func (m *mergingIter) Error() error {
	if m.err != nil {
		return m.err
	}
	for _, it := range m.iters {
		if err := it.Error(); err != nil {
			return err
		}
	}
	return nil
}

func (m *mergingIter) Close() error {
	var firstErr error
	for _, it := range m.iters {
		if err := it.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if m.closer != nil {
		if err := m.closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *mergingIter) SetCloser(closer base.Closer) {
	m.closer = closer
}
