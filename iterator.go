// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pebble

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/devlibx/pebble-core/internal/base"
)

// kReadBytesPeriod bounds the expected number of key/value bytes read
// between read-sample notifications to the engine's compaction-hinting
// callback. It matches the classic LevelDB constant of 1MiB.
const kReadBytesPeriod = 1 << 20

// largeValueThreshold is the retained saved-value capacity above which
// Iterator swaps in a fresh buffer instead of reusing the old one, so a
// long-lived iterator that once touched a large value doesn't pin that
// peak allocation forever.
const largeValueThreshold = 1 << 20

type iterDirection int8

const (
	dirForward iterDirection = iota
	dirReverse
)

// Iterator is a bidirectional, snapshot-filtered, deduplicating cursor over
// a merged internal iterator (memtable plus sstables). For each user key
// with at least one visible, non-deleted version, it exposes exactly one
// entry: the value of the largest-sequence non-deleted version with
// sequence <= the iterator's snapshot. Tombstoned and shadowed versions
// are hidden.
//
// An Iterator is not safe for concurrent use. It exclusively owns its base
// iterator and closes it when the Iterator itself is closed.
type Iterator struct {
	// id identifies this Iterator instance in logged corruption errors, so
	// that reports from a single long-running process sharing one Logger
	// can be correlated back to the iterator that produced them.
	id       uuid.UUID
	cmp      base.Compare
	iter     base.InternalIterator
	snapshot uint64

	dir   iterDirection
	valid bool
	err   error

	// savedKey and savedValue hold the exposed (key, value) while dir ==
	// dirReverse. While dir == dirForward they are used only as scratch --
	// in particular as the "skip at or below this key" boundary passed through
	// findNextUserEntry.
	savedKey   []byte
	savedValue []byte

	rnd                  *rand.Rand
	bytesUntilReadSample int
	recordReadSample     func(userKey []byte)
}

// NewIter returns an unpositioned Iterator wrapping iter, filtered to
// entries visible as of snapshot. recordReadSample, if non-nil, is invoked
// with a user key roughly once every kReadBytesPeriod bytes of entries
// examined, as a compaction-scheduling hint; it is fire-and-forget and may
// race with other engine operations. iter becomes owned by the returned
// Iterator and is closed when it is.
func NewIter(
	cmp base.Compare, iter base.InternalIterator, snapshot uint64, recordReadSample func(userKey []byte), seed int64,
) *Iterator {
	it := &Iterator{
		id:               uuid.New(),
		cmp:              cmp,
		iter:             iter,
		snapshot:         snapshot,
		rnd:              rand.New(rand.NewSource(seed)),
		recordReadSample: recordReadSample,
	}
	it.bytesUntilReadSample = it.randomCompactionPeriod()
	return it
}

// randomCompactionPeriod picks the number of bytes that may be read before
// the next read-sample fires, uniformly distributed in [0, 2*kReadBytesPeriod)
// so that, in expectation, one sample fires per kReadBytesPeriod bytes read.
func (i *Iterator) randomCompactionPeriod() int {
	return int(i.rnd.Int63n(2 * kReadBytesPeriod))
}

// ID returns this Iterator's correlation identifier, for tying a logged
// corruption error back to the iterator that raised it.
func (i *Iterator) ID() uuid.UUID {
	return i.id
}

// Valid reports whether the iterator is positioned at an entry.
func (i *Iterator) Valid() bool {
	return i.valid
}

// Key returns the user key at the current position. Valid must be true.
func (i *Iterator) Key() []byte {
	if i.dir == dirForward {
		return i.iter.Key().UserKey
	}
	return i.savedKey
}

// Value returns the value at the current position. Valid must be true.
func (i *Iterator) Value() []byte {
	if i.dir == dirForward {
		return i.iter.Value()
	}
	return i.savedValue
}

// Error returns the first corruption error this Iterator observed, which is
// sticky: once set, the iterator stays invalid and every subsequent Error
// call returns the same error. Absent that, it surfaces the base iterator's
// status.
func (i *Iterator) Error() error {
	if i.err != nil {
		return i.err
	}
	return i.iter.Error()
}

// Close releases the base iterator and any resources it holds.
func (i *Iterator) Close() error {
	return i.iter.Close()
}

func (i *Iterator) resetSavedValue() {
	if cap(i.savedValue) > largeValueThreshold {
		i.savedValue = nil
	} else {
		i.savedValue = i.savedValue[:0]
	}
}

// parseKey reads the entry currently under the base iterator, charges it
// against the read-sampling counter (firing recordReadSample as many times
// as the counter depletes), and validates its kind. ok is false -- with i.err
// and i.valid already set -- if the entry is corrupt, or if an earlier
// corruption error is already recorded.
func (i *Iterator) parseKey() (ikey base.InternalKey, ok bool) {
	if i.err != nil {
		i.valid = false
		return base.InternalKey{}, false
	}
	ikey = i.iter.Key()
	switch ikey.Kind() {
	case base.InternalKeyKindSet, base.InternalKeyKindDelete:
	default:
		i.err = base.CorruptionErrorf("pebble: corrupted internal key in Iterator %s: %s", i.id, ikey)
		i.valid = false
		return base.InternalKey{}, false
	}

	bytesRead := len(ikey.UserKey) + 8 + len(i.iter.Value())
	for i.bytesUntilReadSample < bytesRead {
		i.bytesUntilReadSample += i.randomCompactionPeriod()
		if i.recordReadSample != nil {
			i.recordReadSample(ikey.UserKey)
		}
	}
	i.bytesUntilReadSample -= bytesRead
	return ikey, true
}

// findNextUserEntry scans forward from the base iterator's current position
// until it lands on a visible, non-deleted entry or exhausts the base
// iterator. skipping and the initial contents of savedKey (used as the
// "skip at or below this key" boundary) are the caller's accumulated skip
// state; savedKey is updated in place as newer deletions are encountered.
func (i *Iterator) findNextUserEntry(skipping bool) {
	for i.iter.Valid() {
		ikey, ok := i.parseKey()
		if !ok {
			return
		}
		if ikey.SeqNum() <= i.snapshot {
			switch ikey.Kind() {
			case base.InternalKeyKindDelete:
				i.savedKey = append(i.savedKey[:0], ikey.UserKey...)
				skipping = true
			case base.InternalKeyKindSet:
				if skipping && i.cmp(ikey.UserKey, i.savedKey) <= 0 {
					// Hidden by a deletion or a newer version already
					// returned; keep scanning.
				} else {
					i.valid = true
					return
				}
			}
		}
		i.iter.Next()
	}
	i.valid = false
}

// findPrevUserEntry scans backward from the base iterator's current
// position, accumulating the most-recent (largest sequence <= snapshot)
// version of the current candidate user key into savedKey/savedValue.
// Because internal keys sort by descending sequence within a user key,
// scanning backward visits a key's versions oldest-to-newest, so the
// accumulator naturally ends on the largest visible version and only
// crosses into an older key once that version has been captured.
func (i *Iterator) findPrevUserEntry() {
	valueType := base.InternalKeyKindDelete

	if i.iter.Valid() {
		for {
			ikey, ok := i.parseKey()
			if !ok {
				return
			}
			if ikey.SeqNum() <= i.snapshot {
				if valueType != base.InternalKeyKindDelete && i.cmp(ikey.UserKey, i.savedKey) < 0 {
					// Crossed into an older user key; the accumulator
					// already holds that key's largest visible version.
					break
				}
				valueType = ikey.Kind()
				switch valueType {
				case base.InternalKeyKindDelete:
					i.savedKey = i.savedKey[:0]
					i.resetSavedValue()
				case base.InternalKeyKindSet:
					rawValue := i.iter.Value()
					i.resetSavedValue()
					i.savedKey = append(i.savedKey[:0], ikey.UserKey...)
					i.savedValue = append(i.savedValue[:0], rawValue...)
				}
			}
			if !i.iter.Prev() {
				break
			}
		}
	}

	if valueType == base.InternalKeyKindDelete {
		i.valid = false
		i.savedKey = i.savedKey[:0]
		i.resetSavedValue()
		i.dir = dirForward
	} else {
		i.valid = true
	}
}

// Next advances to the next visible user key in ascending order.
func (i *Iterator) Next() bool {
	if !i.valid {
		return false
	}
	if i.dir == dirReverse {
		i.dir = dirForward
		if !i.iter.Valid() {
			i.iter.First()
		} else {
			i.iter.Next()
		}
		if !i.iter.Valid() {
			i.valid = false
			i.savedKey = i.savedKey[:0]
			return false
		}
		// savedKey already holds the previously-exposed user key, which
		// findNextUserEntry must skip past.
	} else {
		i.savedKey = append(i.savedKey[:0], i.iter.Key().UserKey...)
	}
	i.findNextUserEntry(true)
	return i.valid
}

// Prev retreats to the previous visible user key in ascending order.
func (i *Iterator) Prev() bool {
	if !i.valid {
		return false
	}
	if i.dir == dirForward {
		i.savedKey = append(i.savedKey[:0], i.iter.Key().UserKey...)
		for {
			if !i.iter.Prev() {
				i.valid = false
				i.savedKey = i.savedKey[:0]
				i.resetSavedValue()
				return false
			}
			if i.cmp(i.iter.Key().UserKey, i.savedKey) < 0 {
				break
			}
		}
		i.dir = dirReverse
	}
	i.findPrevUserEntry()
	return i.valid
}

// SeekGE moves to the first visible user key >= target.
func (i *Iterator) SeekGE(target []byte) bool {
	i.dir = dirForward
	i.resetSavedValue()
	i.savedKey = i.savedKey[:0]
	// InternalKeyKindSeek shares InternalKeyKindSet's numeric tag and is
	// paired with the snapshot's own sequence number, the largest any
	// visible entry for target may carry, so it sorts at or before every
	// visible entry for target (tying with a Set at exactly the snapshot)
	// and after every invisible one, landing the base seek on the first
	// candidate.
	searchKey := base.MakeSearchKey(target, i.snapshot)
	if i.iter.SeekGE(searchKey) {
		i.findNextUserEntry(false)
	} else {
		i.valid = false
	}
	return i.valid
}

// First moves to the first visible user key.
func (i *Iterator) First() bool {
	i.dir = dirForward
	i.resetSavedValue()
	if i.iter.First() {
		i.findNextUserEntry(false)
	} else {
		i.valid = false
	}
	return i.valid
}

// Last moves to the last visible user key.
func (i *Iterator) Last() bool {
	i.dir = dirReverse
	i.resetSavedValue()
	i.iter.Last()
	i.findPrevUserEntry()
	return i.valid
}
