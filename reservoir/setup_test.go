// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package reservoir_test

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bitmark-inc/ephemerald/fixtures"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	result := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(result)
}

// records scheduled ids instead of running them
type recorder struct {
	sync.Mutex
	ids []string
}

func (r *recorder) Schedule(txId string) {
	r.Lock()
	r.ids = append(r.ids, txId)
	r.Unlock()
}

// a clock that only moves when told to
type manualClock struct {
	sync.Mutex
	t time.Time
}

func (c *manualClock) Now() time.Time {
	c.Lock()
	defer c.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.Lock()
	c.t = c.t.Add(d)
	c.Unlock()
}

func newClock() *manualClock {
	return &manualClock{t: time.Unix(1600000000, 0)}
}

func millis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}
