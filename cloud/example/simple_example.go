// Command simple_example demonstrates wiring a cloud-backed vfs.FS in front
// of the engine's write and read paths: a memtable absorbs writes, a flush
// materializes it as a table under a CloudFS (so the table is mirrored to
// S3 as it's created), and a TableCache plus Iterator serve it back out.
package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/devlibx/pebble-core/cloud/aws"
	"github.com/devlibx/pebble-core/cloud/common"
	"github.com/devlibx/pebble-core/internal/base"
	"github.com/devlibx/pebble-core/internal/memtable"
	pebble "github.com/devlibx/pebble-core"
	"github.com/devlibx/pebble-core/sstable"
	"github.com/devlibx/pebble-core/vfs"
)

func main() {
	id := "5"
	dbDir := "/tmp/demo_" + id

	baseFS := vfs.Default
	baseFS = aws.NewCloudFS(baseFS, common.CloudFsOption{BasePath: "project_" + id})
	baseFS = vfs.WithLogging(baseFS, func(format string, args ...interface{}) {
		if strings.Contains(format, "sync-data") {
			return
		}
		fmt.Printf(format+"\n", args...)
	})

	if err := baseFS.MkdirAll(dbDir, 0755); err != nil {
		log.Fatal(err)
	}

	m := memtable.New(base.DefaultCompare)
	for i := 0; i < 100; i++ {
		key := []byte(fmt.Sprintf("hello_%06d", i))
		m.Add(base.MakeInternalKey(key, uint64(i+1), base.InternalKeyKindSet), []byte(strings.Repeat("world", 100)))
	}

	const fileNum base.FileNum = 1
	tableFile, err := baseFS.Create(base.TableFileName(dbDir, fileNum))
	if err != nil {
		log.Fatal(err)
	}
	w := sstable.NewWriter(tableFile)
	mi := m.NewIter()
	for ok := mi.First(); ok; ok = mi.Next() {
		if err := w.Add(mi.Key(), mi.Value()); err != nil {
			log.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		log.Fatal(err)
	}

	opts := (&pebble.Options{FS: baseFS}).EnsureDefaults()
	cache := pebble.NewTableCache(dbDir, opts)

	lookupKey := []byte("hello_000042")
	err = cache.Get(fileNum, 0, lookupKey, func(key, value []byte) {
		fmt.Printf("%s -> %d bytes\n", key, len(value))
	})
	if err != nil {
		log.Fatal(err)
	}

	baseIter, err := cache.NewIterator(fileNum, 0)
	if err != nil {
		log.Fatal(err)
	}
	it := pebble.NewIter(base.DefaultCompare, baseIter, base.SeqNumMax, nil, 1)
	defer it.Close()
	count := 0
	for ok := it.First(); ok; ok = it.Next() {
		count++
	}
	fmt.Printf("scanned %d entries\n", count)
}
