// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package pebble

import "github.com/prometheus/client_golang/prometheus"

// tableCacheHits and tableCacheMisses count TableCache lookups across every
// TableCache in the process; tableCacheEvictions counts entries dropped for
// exceeding TableCacheSize (not entries released because their last
// reference went away). They are registered lazily so importing this
// package never requires a running registry.
var (
	tableCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pebble",
		Subsystem: "table_cache",
		Name:      "hits_total",
		Help:      "Number of TableCache lookups served from an already-open table.",
	})
	tableCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pebble",
		Subsystem: "table_cache",
		Name:      "misses_total",
		Help:      "Number of TableCache lookups that had to open a table.",
	})
	tableCacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pebble",
		Subsystem: "table_cache",
		Name:      "evictions_total",
		Help:      "Number of TableCache entries dropped for exceeding TableCacheSize.",
	})
)

// RegisterMetrics adds this package's Prometheus collectors to reg. It is
// the caller's responsibility to call this at most once per registry.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{tableCacheHits, tableCacheMisses, tableCacheEvictions} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
