// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package reservoir

import (
	"time"

	"github.com/bitmark-inc/logger"
)

// retention defaults
const (
	DefaultSweepInterval = time.Hour
	DefaultSweepWindow   = 2 * time.Hour
	DefaultCleanupWindow = 24 * time.Hour
)

// Sweeper - removes old processed entries from a reservoir
type Sweeper struct {
	log      *logger.L
	pool     *Reservoir
	interval time.Duration
	window   time.Duration
}

// NewSweeper - zero durations select the defaults
func NewSweeper(pool *Reservoir, interval time.Duration, window time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if window <= 0 {
		window = DefaultSweepWindow
	}
	return &Sweeper{
		log:      logger.New("expiration"),
		pool:     pool,
		interval: interval,
		window:   window,
	}
}

// Run - background process: sweep once per interval
func (s *Sweeper) Run(args interface{}, shutdown <-chan struct{}) {

	log := s.log
	log.Infof("starting… interval: %s  window: %s", s.interval, s.window)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-ticker.C:
			s.Sweep(s.pool.now().Add(-s.window))
		}
	}

	log.Info("shutting down…")
	log.Flush()
}

// Sweep - delete processed entries older than cutoff, returns the
// number deleted and the number remaining
func (s *Sweeper) Sweep(cutoff time.Time) (int, int) {
	return s.SweepBefore(cutoff.UnixNano() / int64(time.Millisecond))
}

// SweepBefore - as Sweep, with the cutoff in Unix milliseconds
func (s *Sweeper) SweepBefore(olderThan int64) (int, int) {
	deleted, remaining := s.pool.expire(olderThan)
	s.log.Infof("swept: %d  remaining: %d  cutoff: %d ms", deleted, remaining, olderThan)
	return deleted, remaining
}
