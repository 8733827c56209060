// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"github.com/cockroachdb/errors"
)

// corruptionError marks an error as the kind produced by malformed on-disk
// or in-memory encodings, as opposed to a transient I/O failure.
type corruptionError struct {
	error
}

// CorruptionErrorf builds an error marked as a corruption error, formatted
// per fmt.Errorf rules.
func CorruptionErrorf(format string, args ...interface{}) error {
	return corruptionError{errors.Newf(format, args...)}
}

// MarkCorruptionError wraps err, if non-nil, so IsCorruptionError reports
// true for it.
func MarkCorruptionError(err error) error {
	if err == nil {
		return nil
	}
	return corruptionError{err}
}

// IsCorruptionError reports whether err (or one of the errors it wraps) was
// produced by CorruptionErrorf or MarkCorruptionError.
func IsCorruptionError(err error) bool {
	var c corruptionError
	return errors.As(err, &c)
}

// ErrNotFound is returned by point lookups for keys the engine has never
// seen, or whose only visible version is a tombstone.
var ErrNotFound = errors.New("pebble: not found")
