// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package reservoir_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/ephemerald/background"
	"github.com/bitmark-inc/ephemerald/reservoir"
)

func TestSweep(t *testing.T) {
	clock := newClock()
	r := reservoir.New(nil, clock.Now)

	a, _ := r.Submit("A", "B", 1, "", "s")
	b, _ := r.Submit("A", "B", 1, "", "s")
	r.MarkProcessed(a)
	clock.Advance(25 * time.Hour)

	s := reservoir.NewSweeper(r, 0, 0)
	deleted, remaining := s.Sweep(clock.Now().Add(-reservoir.DefaultCleanupWindow))
	assert.Equal(t, 1, deleted, "wrong deleted count")
	assert.Equal(t, 1, remaining, "wrong remaining count")

	_, ok := r.Get(b)
	assert.True(t, ok, "pending entry swept")
}

func TestSweepBefore(t *testing.T) {
	clock := newClock()
	r := reservoir.New(nil, clock.Now)

	a, _ := r.Submit("A", "B", 1, "", "s")
	r.MarkProcessed(a)

	s := reservoir.NewSweeper(r, 0, 0)
	deleted, remaining := s.SweepBefore(0)
	assert.Equal(t, 0, deleted, "entry before epoch cutoff swept")
	assert.Equal(t, 1, remaining, "wrong remaining count")

	deleted, remaining = s.SweepBefore(9300000000000)
	assert.Equal(t, 1, deleted, "wrong deleted count")
	assert.Equal(t, 0, remaining, "wrong remaining count")
}

func TestSweeperRun(t *testing.T) {
	clock := newClock()
	r := reservoir.New(nil, clock.Now)

	a, _ := r.Submit("A", "B", 1, "", "s")
	r.MarkProcessed(a)
	clock.Advance(3 * time.Hour)

	s := reservoir.NewSweeper(r, 5*time.Millisecond, 2*time.Hour)
	p := background.Start(background.Processes{s}, nil)

	deadline := time.Now().Add(2 * time.Second)
	for r.Size() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	p.Stop()

	assert.Equal(t, 0, r.Size(), "periodic sweep did not run")
}
