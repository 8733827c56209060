// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pebble

import (
	"github.com/devlibx/pebble-core/internal/base"
	"github.com/devlibx/pebble-core/vfs"
)

// Logger is the subset of structured logging this tree needs from its
// host application. Implementations are expected to be safe for concurrent
// use.
type Logger interface {
	Infof(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// Options collects the externally-injected collaborators the read path
// depends on: the user-key comparator, the file-system abstraction tables
// are opened through, and a logger. Compaction policy, write-ahead logging,
// and concurrent-writer coordination are out of scope and are not modeled
// here.
type Options struct {
	Comparer *base.Comparer
	FS       vfs.FS
	Logger   Logger

	// TableCacheSize bounds the number of open table handles the cache
	// retains past their last reference. Zero selects a small default.
	TableCacheSize int
}

// EnsureDefaults fills in any unset fields with their defaults and returns
// the receiver.
func (o *Options) EnsureDefaults() *Options {
	if o.Comparer == nil {
		o.Comparer = base.DefaultComparer
	}
	if o.FS == nil {
		o.FS = vfs.NewMem()
	}
	if o.Logger == nil {
		o.Logger = discardLogger{}
	}
	if o.TableCacheSize == 0 {
		o.TableCacheSize = 64
	}
	return o
}

type discardLogger struct{}

func (discardLogger) Infof(string, ...interface{})  {}
func (discardLogger) Fatalf(string, ...interface{}) {}
