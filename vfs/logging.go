// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import "os"

// LogFunc receives one formatted line per logged FS operation, in the style
// of fmt.Printf -- a format string and its arguments, not yet joined.
type LogFunc func(fmt string, args ...interface{})

// WithLogging wraps fs so that every operation that can fail -- the ones a
// storage engine cares about when debugging -- is reported to log before it
// returns.
func WithLogging(fs FS, log LogFunc) FS {
	return &loggingFS{fs: fs, log: log}
}

type loggingFS struct {
	fs  FS
	log LogFunc
}

func (l *loggingFS) Create(name string) (File, error) {
	l.log("create: %s", name)
	return l.fs.Create(name)
}

func (l *loggingFS) Link(oldname, newname string) error {
	l.log("link: %s -> %s", oldname, newname)
	return l.fs.Link(oldname, newname)
}

func (l *loggingFS) Open(name string, opts ...OpenOption) (File, error) {
	l.log("open: %s", name)
	return l.fs.Open(name, opts...)
}

func (l *loggingFS) OpenDir(name string) (File, error) {
	l.log("open-dir: %s", name)
	return l.fs.OpenDir(name)
}

func (l *loggingFS) Remove(name string) error {
	l.log("remove: %s", name)
	return l.fs.Remove(name)
}

func (l *loggingFS) RemoveAll(name string) error {
	l.log("remove-all: %s", name)
	return l.fs.RemoveAll(name)
}

func (l *loggingFS) Rename(oldname, newname string) error {
	l.log("rename: %s -> %s", oldname, newname)
	return l.fs.Rename(oldname, newname)
}

func (l *loggingFS) ReuseForWrite(oldname, newname string) (File, error) {
	l.log("reuse-for-write: %s -> %s", oldname, newname)
	return l.fs.ReuseForWrite(oldname, newname)
}

func (l *loggingFS) MkdirAll(dir string, perm os.FileMode) error {
	l.log("mkdir-all: %s", dir)
	return l.fs.MkdirAll(dir, perm)
}

func (l *loggingFS) Lock(name string) (Closer, error) {
	l.log("lock: %s", name)
	return l.fs.Lock(name)
}

func (l *loggingFS) List(dir string) ([]string, error) {
	l.log("list: %s", dir)
	return l.fs.List(dir)
}

func (l *loggingFS) Stat(name string) (os.FileInfo, error) {
	l.log("stat: %s", name)
	return l.fs.Stat(name)
}

func (l *loggingFS) PathBase(path string) string {
	return l.fs.PathBase(path)
}

func (l *loggingFS) PathJoin(elem ...string) string {
	return l.fs.PathJoin(elem...)
}

func (l *loggingFS) PathDir(path string) string {
	return l.fs.PathDir(path)
}

func (l *loggingFS) GetDiskUsage(path string) (DiskUsage, error) {
	l.log("sync-data: disk-usage %s", path)
	return l.fs.GetDiskUsage(path)
}
