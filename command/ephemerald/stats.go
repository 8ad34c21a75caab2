// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"runtime"
	"time"

	"github.com/bitmark-inc/logger"
)

const (
	statsDelay = 60 * time.Second
	mega       = 1048576
)

// memoryStats - background process logging heap usage
type memoryStats struct {
	log *logger.L
}

func (m *memoryStats) Run(args interface{}, shutdown <-chan struct{}) {

	log := m.log
	log.Info("starting…")

	ticker := time.NewTicker(statsDelay)
	defer ticker.Stop()

loop:
	for {
		var s runtime.MemStats
		runtime.ReadMemStats(&s)
		log.Warnf("allocated: %d M  cumulative: %d M  OS virtual: %d M  goroutines: %d",
			s.Alloc/mega, s.TotalAlloc/mega, s.Sys/mega, runtime.NumGoroutine())

		select {
		case <-shutdown:
			break loop
		case <-ticker.C:
		}
	}

	log.Info("shutting down…")
	log.Flush()
}
