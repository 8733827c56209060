// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "fmt"

// FileNum identifies a single sstable within a database directory.
type FileNum uint64

// TableFileName returns the primary name under which fileNum's table is
// stored in dbDir.
func TableFileName(dbDir string, fileNum FileNum) string {
	return fmt.Sprintf("%s/%06d.sst", dbDir, uint64(fileNum))
}

// LegacyTableFileName returns the compatibility name consulted when the
// primary name fails to open, for databases carried forward from an older
// on-disk layout.
func LegacyTableFileName(dbDir string, fileNum FileNum) string {
	return fmt.Sprintf("%s/%06d.sst.ldb", dbDir, uint64(fileNum))
}
