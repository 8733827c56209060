// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package vfs is the narrow file-system abstraction the rest of the tree
// consumes: TableCache opens sorted-string tables through it, never
// touching os directly. This package fixes the interface shape and
// provides an in-memory implementation for tests (NewMem), a disk-backed
// one (Default) and a logging decorator (WithLogging); the cloud-backed
// implementation lives in cloud/aws.
package vfs

import "os"

// OpenOption configures a call to FS.Open.
type OpenOption interface {
	apply(File)
}

// DiskUsage reports space usage for the device backing a path.
type DiskUsage struct {
	AvailBytes uint64
	TotalBytes uint64
	UsedBytes  uint64
}

// File is the subset of *os.File that table reading and the write path
// need.
type File interface {
	Close() error
	Read(p []byte) (n int, err error)
	ReadAt(p []byte, off int64) (n int, err error)
	Write(p []byte) (n int, err error)
	Preallocate(offset, length int64) error
	Stat() (os.FileInfo, error)
	Sync() error
	SyncTo(length int64) (fullSync bool, err error)
	SyncData() error
	Prefetch(offset int64, length int64) error
	Fd() uintptr
}

// FS is a namespace of files and directories, standing in for the host
// file system (or a cloud-backed / in-memory substitute).
type FS interface {
	Create(name string) (File, error)
	Link(oldname, newname string) error
	Open(name string, opts ...OpenOption) (File, error)
	OpenDir(name string) (File, error)
	Remove(name string) error
	RemoveAll(name string) error
	Rename(oldname, newname string) error
	ReuseForWrite(oldname, newname string) (File, error)
	MkdirAll(dir string, perm os.FileMode) error
	Lock(name string) (Closer, error)
	List(dir string) ([]string, error)
	Stat(name string) (os.FileInfo, error)
	PathBase(path string) string
	PathJoin(elem ...string) string
	PathDir(path string) string
	GetDiskUsage(path string) (DiskUsage, error)
}

// Closer is returned by FS.Lock; Close releases the lock.
type Closer interface {
	Close() error
}
