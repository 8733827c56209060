// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Default is the FS backed by the real, local file system.
var Default FS = defaultFS{}

type defaultFS struct{}

func (defaultFS) Create(name string) (File, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, err
	}
	return diskFile{f}, nil
}

func (defaultFS) Link(oldname, newname string) error {
	return os.Link(oldname, newname)
}

func (defaultFS) Open(name string, opts ...OpenOption) (File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	df := diskFile{f}
	for _, opt := range opts {
		opt.apply(df)
	}
	return df, nil
}

func (defaultFS) OpenDir(name string) (File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return diskFile{f}, nil
}

func (defaultFS) Remove(name string) error {
	return os.Remove(name)
}

func (defaultFS) RemoveAll(name string) error {
	return os.RemoveAll(name)
}

func (defaultFS) Rename(oldname, newname string) error {
	return os.Rename(oldname, newname)
}

func (defaultFS) ReuseForWrite(oldname, newname string) (File, error) {
	if err := os.Rename(oldname, newname); err != nil {
		return nil, err
	}
	return defaultFS{}.Open(newname)
}

func (defaultFS) MkdirAll(dir string, perm os.FileMode) error {
	return os.MkdirAll(dir, perm)
}

func (defaultFS) Lock(name string) (Closer, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, err
	}
	return &diskLock{f: f}, nil
}

type diskLock struct {
	f *os.File
}

func (l *diskLock) Close() error {
	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	return l.f.Close()
}

func (defaultFS) List(dir string) ([]string, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Readdirnames(-1)
}

func (defaultFS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (defaultFS) PathBase(path string) string {
	return filepath.Base(path)
}

func (defaultFS) PathJoin(elem ...string) string {
	return filepath.Join(elem...)
}

func (defaultFS) PathDir(path string) string {
	return filepath.Dir(path)
}

func (defaultFS) GetDiskUsage(path string) (DiskUsage, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return DiskUsage{}, err
	}
	bsize := uint64(stat.Bsize)
	return DiskUsage{
		AvailBytes: stat.Bavail * bsize,
		TotalBytes: stat.Blocks * bsize,
		UsedBytes:  (stat.Blocks - stat.Bfree) * bsize,
	}, nil
}

// diskFile adapts *os.File to the File interface.
type diskFile struct {
	*os.File
}

func (f diskFile) Preallocate(offset, length int64) error {
	return nil
}

func (f diskFile) SyncTo(length int64) (fullSync bool, err error) {
	return false, f.File.Sync()
}

func (f diskFile) SyncData() error {
	return f.File.Sync()
}

func (f diskFile) Prefetch(offset int64, length int64) error {
	return nil
}
