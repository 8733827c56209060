// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"io"
	"os"
	"path"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// NewMem returns an in-memory FS, used by table cache and table tests that
// have no need to touch a real disk.
func NewMem() FS {
	return &memFS{files: make(map[string]*memFileData)}
}

type memFS struct {
	mu    sync.Mutex
	files map[string]*memFileData
}

type memFileData struct {
	mu   sync.Mutex
	data []byte
}

func (fs *memFS) Create(name string) (File, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	f := &memFileData{}
	fs.files[name] = f
	return &memFile{data: f}, nil
}

func (fs *memFS) Link(oldname, newname string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	f, ok := fs.files[oldname]
	if !ok {
		return os.ErrNotExist
	}
	fs.files[newname] = f
	return nil
}

func (fs *memFS) Open(name string, _ ...OpenOption) (File, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	f, ok := fs.files[name]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	return &memFile{data: f}, nil
}

func (fs *memFS) OpenDir(name string) (File, error) { return fs.Open(name) }

func (fs *memFS) Remove(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.files[name]; !ok {
		return os.ErrNotExist
	}
	delete(fs.files, name)
	return nil
}

func (fs *memFS) RemoveAll(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.files, name)
	return nil
}

func (fs *memFS) Rename(oldname, newname string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	f, ok := fs.files[oldname]
	if !ok {
		return os.ErrNotExist
	}
	fs.files[newname] = f
	delete(fs.files, oldname)
	return nil
}

func (fs *memFS) ReuseForWrite(oldname, newname string) (File, error) {
	if err := fs.Rename(oldname, newname); err != nil {
		return nil, err
	}
	return fs.Open(newname)
}

func (fs *memFS) MkdirAll(dir string, perm os.FileMode) error { return nil }

func (fs *memFS) Lock(name string) (Closer, error) {
	return CloserFunc(func() error { return nil }), nil
}

func (fs *memFS) List(dir string) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var names []string
	for name := range fs.files {
		if path.Dir(name) == dir {
			names = append(names, name)
		}
	}
	return names, nil
}

func (fs *memFS) Stat(name string) (os.FileInfo, error) {
	fs.mu.Lock()
	f, ok := fs.files[name]
	fs.mu.Unlock()
	if !ok {
		return nil, os.ErrNotExist
	}
	return memFileInfo{name: path.Base(name), size: int64(len(f.data))}, nil
}

func (fs *memFS) PathBase(p string) string           { return path.Base(p) }
func (fs *memFS) PathJoin(elem ...string) string     { return path.Join(elem...) }
func (fs *memFS) PathDir(p string) string            { return path.Dir(p) }
func (fs *memFS) GetDiskUsage(string) (DiskUsage, error) {
	return DiskUsage{}, errors.New("vfs: GetDiskUsage unsupported on memFS")
}

// CloserFunc adapts a function to a Closer.
type CloserFunc func() error

// Close implements Closer.
func (f CloserFunc) Close() error { return f() }

type memFile struct {
	data *memFileData
	rpos int
}

func (f *memFile) Close() error { return nil }

func (f *memFile) Read(p []byte) (int, error) {
	f.data.mu.Lock()
	defer f.data.mu.Unlock()
	if f.rpos >= len(f.data.data) {
		return 0, io.EOF
	}
	n := copy(p, f.data.data[f.rpos:])
	f.rpos += n
	return n, nil
}

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	f.data.mu.Lock()
	defer f.data.mu.Unlock()
	if off >= int64(len(f.data.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data.data[off:])
	return n, nil
}

func (f *memFile) Write(p []byte) (int, error) {
	f.data.mu.Lock()
	defer f.data.mu.Unlock()
	f.data.data = append(f.data.data, p...)
	return len(p), nil
}

func (f *memFile) Preallocate(offset, length int64) error           { return nil }
func (f *memFile) Stat() (os.FileInfo, error) {
	f.data.mu.Lock()
	defer f.data.mu.Unlock()
	return memFileInfo{size: int64(len(f.data.data))}, nil
}
func (f *memFile) Sync() error                                { return nil }
func (f *memFile) SyncTo(length int64) (bool, error)           { return true, nil }
func (f *memFile) SyncData() error                             { return nil }
func (f *memFile) Prefetch(offset int64, length int64) error   { return nil }
func (f *memFile) Fd() uintptr                                  { return 0 }

type memFileInfo struct {
	name string
	size int64
}

func (fi memFileInfo) Name() string       { return fi.name }
func (fi memFileInfo) Size() int64        { return fi.size }
func (fi memFileInfo) Mode() os.FileMode  { return 0 }
func (fi memFileInfo) ModTime() time.Time { return time.Time{} }
func (fi memFileInfo) IsDir() bool        { return false }
func (fi memFileInfo) Sys() interface{}   { return nil }
