// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package sstable implements readers and writers for the engine's immutable,
// sorted, on-disk tables.
//
// Tables are opened for reading through a TableCache, which amortizes the
// cost of parsing a table's contents across many iterators and lookups. A
// reader's NewIter method returns a base.InternalIterator that can be
// composed, by a higher layer, into the merged iterator UserIter wraps.
//
// The on-disk layout used here is deliberately simple -- a sorted run of
// length-prefixed (internal key, value) records, each guarded by an
// xxhash64 checksum and optionally Snappy-compressed -- since block
// indexing is a file-format concern this tree does not specify. What
// matters to the read path above is only that NewReader yields entries in
// ascending internal-key order.
package sstable

import (
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/snappy"

	"github.com/devlibx/pebble-core/internal/base"
	"github.com/devlibx/pebble-core/vfs"
)

// record flag byte values.
const (
	recordRaw    byte = 0
	recordSnappy byte = 1
)

// recordHeaderLen is the fixed-size prefix before each record's key and
// stored-value bytes: 1 flag + 4 key length + 4 stored-value length + 8
// xxhash64 checksum.
const recordHeaderLen = 1 + 4 + 4 + 8

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	Comparer *base.Comparer
}

// Reader parses a table's records into memory once, at open time, and then
// serves any number of concurrent iterators over the parsed entries.
type Reader struct {
	cmp     base.Compare
	entries []base.InternalKey
	values  [][]byte
	file    vfs.File
}

// NewReader opens a table previously written by NewWriter. The returned
// Reader owns file and closes it from Close.
func NewReader(file vfs.File, opts ReaderOptions) (*Reader, error) {
	cmp := base.DefaultCompare
	if opts.Comparer != nil {
		cmp = opts.Comparer.Compare
	}
	r := &Reader{cmp: cmp, file: file}
	if err := r.load(); err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) load() error {
	st, err := r.file.Stat()
	if err != nil {
		return err
	}
	buf := make([]byte, st.Size())
	if len(buf) > 0 {
		if _, err := io.ReadFull(readerAt{r.file}, buf); err != nil {
			return base.CorruptionErrorf("pebble/sstable: truncated table: %v", err)
		}
	}
	for off := 0; off < len(buf); {
		if off+recordHeaderLen > len(buf) {
			return base.CorruptionErrorf("pebble/sstable: truncated record header")
		}
		flag := buf[off]
		klen := int(binary.LittleEndian.Uint32(buf[off+1:]))
		vlen := int(binary.LittleEndian.Uint32(buf[off+5:]))
		checksum := binary.LittleEndian.Uint64(buf[off+9:])
		off += recordHeaderLen
		if off+klen+vlen > len(buf) {
			return base.CorruptionErrorf("pebble/sstable: truncated record body")
		}
		body := buf[off : off+klen+vlen]
		if xxhash.Sum64(body) != checksum {
			return base.CorruptionErrorf("pebble/sstable: checksum mismatch in table record")
		}
		key, ok := base.DecodeInternalKey(body[:klen])
		if !ok {
			return base.CorruptionErrorf("pebble/sstable: corrupt internal key")
		}
		storedValue := body[klen:]
		off += klen + vlen

		var value []byte
		switch flag {
		case recordRaw:
			value = storedValue
		case recordSnappy:
			decoded, err := snappy.Decode(nil, storedValue)
			if err != nil {
				return base.CorruptionErrorf("pebble/sstable: corrupt snappy value: %v", err)
			}
			value = decoded
		default:
			return base.CorruptionErrorf("pebble/sstable: unknown record compression flag %d", flag)
		}

		r.entries = append(r.entries, key)
		r.values = append(r.values, value)
	}
	return nil
}

// readerAt adapts a vfs.File into the io.Reader that io.ReadFull takes,
// reading sequentially through File.Read, since the records are read once,
// start to finish.
type readerAt struct{ f vfs.File }

func (r readerAt) Read(p []byte) (int, error) { return r.f.Read(p) }

// Close releases the reader's file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}

// NewIter returns an iterator positioned before the first entry.
func (r *Reader) NewIter() base.InternalIterator {
	return &tableIter{r: r, pos: -1}
}

// tableIter is a binary-search-seekable cursor over a Reader's in-memory
// entries; it implements base.InternalIterator.
type tableIter struct {
	r      *Reader
	pos    int
	closer base.Closer
}

var _ base.InternalIterator = (*tableIter)(nil)

func (t *tableIter) SeekGE(key base.InternalKey) bool {
	lo, hi := 0, len(t.r.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if base.InternalCompare(t.r.cmp, t.r.entries[mid], key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	t.pos = lo
	return t.Valid()
}

func (t *tableIter) First() bool {
	t.pos = 0
	return t.Valid()
}

func (t *tableIter) Last() bool {
	t.pos = len(t.r.entries) - 1
	return t.Valid()
}

func (t *tableIter) Next() bool {
	if t.pos < len(t.r.entries) {
		t.pos++
	}
	return t.Valid()
}

func (t *tableIter) Prev() bool {
	if t.pos >= 0 {
		t.pos--
	}
	return t.Valid()
}

func (t *tableIter) Valid() bool {
	return t.pos >= 0 && t.pos < len(t.r.entries)
}

func (t *tableIter) Key() base.InternalKey {
	return t.r.entries[t.pos]
}

func (t *tableIter) Value() []byte {
	return t.r.values[t.pos]
}

func (t *tableIter) Error() error { return nil }

func (t *tableIter) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

func (t *tableIter) SetCloser(closer base.Closer) {
	t.closer = closer
}

// Writer builds a table from entries presented in ascending internal-key
// order; it is used by tests and by anything that materializes a memtable
// flush into a table.
type Writer struct {
	file     vfs.File
	buf      []byte
	compress bool
}

// NewWriter returns a Writer over file that stores values uncompressed.
func NewWriter(file vfs.File) *Writer {
	return &Writer{file: file}
}

// NewCompressedWriter returns a Writer over file that Snappy-compresses
// every value before it is written, trading a little CPU for less space --
// the same tradeoff the real table format makes per block.
func NewCompressedWriter(file vfs.File) *Writer {
	return &Writer{file: file, compress: true}
}

// Add appends a single (internal key, value) record. Callers must present
// keys in ascending internal-key order; Writer does not enforce this.
func (w *Writer) Add(key base.InternalKey, value []byte) error {
	var hdr [recordHeaderLen]byte
	encodedKey := base.EncodeInternalKey(nil, key)

	flag := recordRaw
	storedValue := value
	if w.compress {
		storedValue = snappy.Encode(nil, value)
		flag = recordSnappy
	}

	hdr[0] = flag
	binary.LittleEndian.PutUint32(hdr[1:5], uint32(len(encodedKey)))
	binary.LittleEndian.PutUint32(hdr[5:9], uint32(len(storedValue)))
	checksum := xxhash.Sum64(append(append([]byte(nil), encodedKey...), storedValue...))
	binary.LittleEndian.PutUint64(hdr[9:17], checksum)

	w.buf = append(w.buf, hdr[:]...)
	w.buf = append(w.buf, encodedKey...)
	w.buf = append(w.buf, storedValue...)
	return nil
}

// Close flushes buffered records to the underlying file and closes it.
func (w *Writer) Close() error {
	if len(w.buf) > 0 {
		if _, err := w.file.Write(w.buf); err != nil {
			w.file.Close()
			return err
		}
	}
	return w.file.Close()
}
