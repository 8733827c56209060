// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"encoding/binary"
	"fmt"
)

// InternalKeyKind enumerates the kind of a key: whether it carries a value
// or tombstones a previous one. Only two kinds exist in the trailer; a third
// pseudo-kind, InternalKeyKindSeek, shares the Set tag and exists only to
// build lookup targets (see MakeSearchKey).
type InternalKeyKind uint8

const (
	// InternalKeyKindDelete tombstones all earlier versions of a user key.
	InternalKeyKindDelete InternalKeyKind = 0
	// InternalKeyKindSet carries a live value for a user key.
	InternalKeyKindSet InternalKeyKind = 1
	// InternalKeyKindMax is the largest occupied trailer kind.
	InternalKeyKindMax InternalKeyKind = InternalKeyKindSet
	// InternalKeyKindSeek is never stored; it is used only when constructing
	// an internal key to seek with. For an equal (user key, seqnum) pair it
	// ties with InternalKeyKindSet and sorts before InternalKeyKindDelete.
	InternalKeyKindSeek InternalKeyKind = InternalKeyKindSet
	// InternalKeyKindInvalid marks a key that failed to parse.
	InternalKeyKindInvalid InternalKeyKind = 0xff
)

func (k InternalKeyKind) String() string {
	switch k {
	case InternalKeyKindDelete:
		return "DEL"
	case InternalKeyKindSet:
		return "SET"
	case InternalKeyKindInvalid:
		return "INVALID"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(k))
	}
}

// SeqNumMax is the largest representable sequence number: sequence numbers
// occupy the high 56 bits of the 8-byte trailer.
const SeqNumMax = uint64(1)<<56 - 1

// trailerKindMask isolates the low byte of a trailer (the kind).
const trailerKindMask = 0xff

// InternalKeyTrailer packs a sequence number and a kind into the 8 bytes
// that follow a user key inside an encoded internal key.
type InternalKeyTrailer = uint64

// MakeTrailer packs seqNum (must be < 1<<56) and kind into a trailer.
func MakeTrailer(seqNum uint64, kind InternalKeyKind) InternalKeyTrailer {
	return (seqNum << 8) | InternalKeyTrailer(kind)
}

// InternalKey is the ordering key used throughout the merged read path: a
// user key followed by a trailer encoding (sequence number, kind). Its sort
// order is ascending by UserKey, then descending by Trailer -- which, since
// the trailer packs seqnum into the high bits, is descending by sequence
// number and then descending by kind.
type InternalKey struct {
	UserKey []byte
	Trailer InternalKeyTrailer
}

// MakeInternalKey builds an InternalKey from its parts.
func MakeInternalKey(userKey []byte, seqNum uint64, kind InternalKeyKind) InternalKey {
	return InternalKey{UserKey: userKey, Trailer: MakeTrailer(seqNum, kind)}
}

// MakeSearchKey builds an InternalKey suitable for seeking: it sorts at or
// before every real entry for userKey whose sequence number is <= seqNum
// (InternalKeyKindSeek shares InternalKeyKindSet's tag, so it ties with a
// Set entry at exactly seqNum), and after every entry with a larger
// sequence number. Paired with a snapshot's seqNum, a SeekGE with it lands
// on the first entry for userKey visible under that snapshot.
func MakeSearchKey(userKey []byte, seqNum uint64) InternalKey {
	return MakeInternalKey(userKey, seqNum, InternalKeyKindSeek)
}

// SeqNum returns the sequence number encoded in the trailer.
func (k InternalKey) SeqNum() uint64 {
	return k.Trailer >> 8
}

// Kind returns the kind encoded in the trailer.
func (k InternalKey) Kind() InternalKeyKind {
	return InternalKeyKind(k.Trailer & trailerKindMask)
}

// Clone returns a deep copy of k.
func (k InternalKey) Clone() InternalKey {
	if len(k.UserKey) == 0 {
		return k
	}
	u := make([]byte, len(k.UserKey))
	copy(u, k.UserKey)
	return InternalKey{UserKey: u, Trailer: k.Trailer}
}

// String renders k for debugging.
func (k InternalKey) String() string {
	return fmt.Sprintf("%s#%d,%s", k.UserKey, k.SeqNum(), k.Kind())
}

// trailerLen is the fixed width of the encoded trailer.
const trailerLen = 8

// EncodeInternalKey appends the encoded form of key (user key bytes followed
// by the little-endian trailer) to dst and returns the result.
func EncodeInternalKey(dst []byte, key InternalKey) []byte {
	dst = append(dst, key.UserKey...)
	var buf [trailerLen]byte
	binary.LittleEndian.PutUint64(buf[:], key.Trailer)
	return append(dst, buf[:]...)
}

// DecodeInternalKey parses an encoded internal key. ok is false if b is
// shorter than the trailer width, in which case the key is corrupt.
func DecodeInternalKey(b []byte) (key InternalKey, ok bool) {
	if len(b) < trailerLen {
		return InternalKey{}, false
	}
	n := len(b) - trailerLen
	trailer := binary.LittleEndian.Uint64(b[n:])
	return InternalKey{UserKey: b[:n], Trailer: trailer}, true
}

// Compare is a user-key comparator: it returns <0, 0, >0 as a<b, a==b, a>b.
type Compare func(a, b []byte) int

// DefaultCompare orders user keys by plain byte-lexicographic comparison,
// matching bytes.Compare.
func DefaultCompare(a, b []byte) int {
	switch {
	case len(a) == 0 && len(b) == 0:
		return 0
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// InternalCompare orders two internal keys: ascending by user key,
// then descending by trailer (i.e. descending sequence number, then
// descending kind), matching the order the merged iterator must expose.
func InternalCompare(userCmp Compare, a, b InternalKey) int {
	if c := userCmp(a.UserKey, b.UserKey); c != 0 {
		return c
	}
	switch {
	case a.Trailer > b.Trailer:
		return -1
	case a.Trailer < b.Trailer:
		return 1
	default:
		return 0
	}
}
