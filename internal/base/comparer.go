// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "bytes"

// Comparer defines a total order over user keys, used both for sorting and
// for determining key equality. Implementations must be deterministic and
// referentially transparent: the same two inputs always compare the same
// way for the lifetime of the database.
type Comparer struct {
	// Compare returns -1, 0, or +1 depending on whether a is less than,
	// equal to, or greater than b.
	Compare Compare

	// Equal reports whether a and b are the same user key. It must agree
	// with Compare(a, b) == 0.
	Equal func(a, b []byte) bool

	// Name identifies the comparer for persistence compatibility checks.
	Name string
}

// DefaultComparer orders user keys by byte-lexicographic comparison.
var DefaultComparer = &Comparer{
	Compare: DefaultCompare,
	Equal:   bytes.Equal,
	Name:    "leveldb.BytewiseComparator",
}
