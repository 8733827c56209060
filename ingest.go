// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pebble

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/devlibx/pebble-core/internal/base"
	"github.com/devlibx/pebble-core/sstable"
	"github.com/devlibx/pebble-core/vfs"
)

// ingestMetadata is what ingestLoad1 learns about an external table before
// it is linked into the database directory: enough to sort a batch of
// ingested tables by key range and verify they don't overlap.
type ingestMetadata struct {
	fileNum  base.FileNum
	path     string
	smallest base.InternalKey
	largest  base.InternalKey
}

// ingestValidateKey enforces the external-sstable convention this ingest
// path relies on: every key in a table handed to IngestExternalFiles must
// carry sequence number zero. ingestUpdateSeqNum is what actually assigns
// the table its real, globally-visible sequence number.
func ingestValidateKey(key base.InternalKey) error {
	switch key.Kind() {
	case base.InternalKeyKindSet, base.InternalKeyKindDelete:
	default:
		return base.CorruptionErrorf("pebble: external sstable has corrupted key: %s", key)
	}
	if key.SeqNum() != 0 {
		return base.CorruptionErrorf("pebble: external sstable has non-zero seqnum: %s", key)
	}
	return nil
}

// ingestLoad1 opens path, walks every entry to validate it and determine
// the table's key range, and returns the metadata ingestSortAndVerify and
// ingestLink need. The reader is closed before returning; once ingestLink
// has placed the file in the database directory, rewriteTableSeqNum
// reopens it by its final name.
func ingestLoad1(opts *Options, path string, fileNum base.FileNum) (*ingestMetadata, error) {
	f, err := opts.FS.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := sstable.NewReader(f, sstable.ReaderOptions{Comparer: opts.Comparer})
	if err != nil {
		return nil, err
	}
	defer r.Close()

	it := r.NewIter()
	defer it.Close()
	if !it.First() {
		return nil, errors.Newf("pebble: external sstable %s is empty", path)
	}
	m := &ingestMetadata{fileNum: fileNum, path: path}
	for ; it.Valid(); it.Next() {
		key := it.Key()
		if err := ingestValidateKey(key); err != nil {
			return nil, err
		}
		if m.smallest.UserKey == nil {
			m.smallest = key.Clone()
		}
		m.largest = key.Clone()
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return m, nil
}

// ingestLoad validates every path in paths, pairing each with the file
// number pending assigns it.
func ingestLoad(opts *Options, paths []string, pending []base.FileNum) ([]*ingestMetadata, error) {
	meta := make([]*ingestMetadata, 0, len(paths))
	for i := range paths {
		m, err := ingestLoad1(opts, paths[i], pending[i])
		if err != nil {
			return nil, err
		}
		meta = append(meta, m)
	}
	return meta, nil
}

// ingestSortAndVerify orders meta by smallest user key and rejects a batch
// whose tables have overlapping key ranges, so the ingested tables stay
// non-overlapping with one another, as the files of a single level must be.
func ingestSortAndVerify(cmp base.Compare, meta []*ingestMetadata) error {
	if len(meta) <= 1 {
		return nil
	}
	sort.Slice(meta, func(i, j int) bool {
		return cmp(meta[i].smallest.UserKey, meta[j].smallest.UserKey) < 0
	})
	for i := 1; i < len(meta); i++ {
		if cmp(meta[i-1].largest.UserKey, meta[i].smallest.UserKey) >= 0 {
			return errors.New("pebble: external sstables have overlapping ranges")
		}
	}
	return nil
}

// ingestUpdateSeqNum rewrites every entry across meta's tables so it
// carries seqNum, then increments seqNum for the next table -- mirroring
// the teacher's rule that an ingested batch occupies a contiguous run of
// otherwise-unused sequence numbers, one per file, rather than one shared
// across the whole batch. Real compaction-aware sequence-number minting
// lives with the write path this module does not model; the caller
// supplies the starting number.
func ingestUpdateSeqNum(opts *Options, dbDir string, seqNum uint64, meta []*ingestMetadata) error {
	for _, m := range meta {
		if err := rewriteTableSeqNum(opts, dbDir, m.fileNum, seqNum); err != nil {
			return err
		}
		m.smallest = base.MakeInternalKey(m.smallest.UserKey, seqNum, m.smallest.Kind())
		m.largest = base.MakeInternalKey(m.largest.UserKey, seqNum, m.largest.Kind())
		seqNum++
	}
	return nil
}

// rewriteTableSeqNum rewrites the table already linked at fileNum in-place,
// replacing every entry's sequence number with seqNum. It is a full
// read-then-rewrite because this tree's simplified table format has no
// block structure to patch in place; real sstables instead carry a single
// global-sequence-number property the reader applies to every key it
// parses, avoiding the rewrite entirely.
func rewriteTableSeqNum(opts *Options, dbDir string, fileNum base.FileNum, seqNum uint64) error {
	name := base.TableFileName(dbDir, fileNum)
	f, err := opts.FS.Open(name)
	if err != nil {
		return err
	}
	r, err := sstable.NewReader(f, sstable.ReaderOptions{Comparer: opts.Comparer})
	if err != nil {
		return err
	}

	tmpName := name + ".ingesttmp"
	tmpFile, err := opts.FS.Create(tmpName)
	if err != nil {
		r.Close()
		return err
	}
	w := sstable.NewWriter(tmpFile)
	it := r.NewIter()
	for ok := it.First(); ok; ok = it.Next() {
		key := base.MakeInternalKey(it.Key().UserKey, seqNum, it.Key().Kind())
		if err := w.Add(key, it.Value()); err != nil {
			r.Close()
			return err
		}
	}
	if err := r.Close(); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return opts.FS.Rename(tmpName, name)
}

// ingestLink moves each external table into dbDir under its assigned file
// number, preferring a hard link (cheap, no extra disk space) and falling
// back to a byte-for-byte copy when the two paths don't share a device.
func ingestLink(opts *Options, dbDir string, meta []*ingestMetadata) error {
	for i, m := range meta {
		target := base.TableFileName(dbDir, m.fileNum)
		if err := opts.FS.Link(m.path, target); err == nil {
			continue
		}
		if err := ingestCopy(opts.FS, m.path, target); err != nil {
			_ = ingestCleanup(opts.FS, dbDir, meta[:i])
			return err
		}
	}
	return nil
}

func ingestCopy(fs vfs.FS, src, dst string) error {
	srcFile, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()
	dstFile, err := fs.Create(dst)
	if err != nil {
		return err
	}
	st, err := srcFile.Stat()
	if err != nil {
		dstFile.Close()
		return err
	}
	buf := make([]byte, st.Size())
	if len(buf) > 0 {
		if _, err := srcFile.Read(buf); err != nil {
			dstFile.Close()
			return err
		}
		if _, err := dstFile.Write(buf); err != nil {
			dstFile.Close()
			return err
		}
	}
	return dstFile.Close()
}

// ingestCleanup removes tables already linked by a batch that failed
// partway through, so a retried ingest doesn't collide with their file
// numbers.
func ingestCleanup(fs vfs.FS, dbDir string, meta []*ingestMetadata) error {
	var firstErr error
	for _, m := range meta {
		if err := fs.Remove(base.TableFileName(dbDir, m.fileNum)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// IngestExternalFiles bulk-loads externally-produced sstables (every key
// at sequence number zero, per ingestValidateKey) into dbDir as new,
// immediately queryable files. Tables must not overlap each other in key
// range. On success it returns the file numbers assigned, in ascending
// key-range order, ready to be opened through a TableCache; firstSeqNum is
// the sequence number given to the first (lowest-keyed) table, with each
// subsequent table one higher.
func IngestExternalFiles(
	opts *Options, dbDir string, paths []string, allocFileNum func() base.FileNum, firstSeqNum uint64,
) ([]base.FileNum, error) {
	opts = opts.EnsureDefaults()
	if len(paths) == 0 {
		return nil, nil
	}

	pending := make([]base.FileNum, len(paths))
	for i := range pending {
		pending[i] = allocFileNum()
	}

	meta, err := ingestLoad(opts, paths, pending)
	if err != nil {
		return nil, err
	}

	cmp := base.DefaultCompare
	if opts.Comparer != nil {
		cmp = opts.Comparer.Compare
	}
	if err := ingestSortAndVerify(cmp, meta); err != nil {
		return nil, err
	}

	if err := ingestLink(opts, dbDir, meta); err != nil {
		return nil, err
	}

	if err := ingestUpdateSeqNum(opts, dbDir, firstSeqNum, meta); err != nil {
		_ = ingestCleanup(opts.FS, dbDir, meta)
		return nil, err
	}

	fileNums := make([]base.FileNum, len(meta))
	for i, m := range meta {
		fileNums[i] = m.fileNum
	}
	return fileNums, nil
}
