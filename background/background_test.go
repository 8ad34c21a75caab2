// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/ephemerald/background"
)

type ticker struct {
	count    int
	finished bool
}

func (state *ticker) Run(args interface{}, shutdown <-chan struct{}) {
	step := args.(int)

loop:
	for {
		select {
		case <-shutdown:
			break loop
		default:
		}
		state.count += step
		time.Sleep(time.Millisecond)
	}
	state.finished = true
}

func TestBackground(t *testing.T) {
	proc1 := &ticker{}
	proc2 := &ticker{}

	p := background.Start(background.Processes{proc1, proc2}, 3)
	time.Sleep(20 * time.Millisecond)
	p.Stop()

	assert.True(t, proc1.finished, "first process did not finish")
	assert.True(t, proc2.finished, "second process did not finish")
	assert.NotZero(t, proc1.count, "first process did not run")
	assert.Equal(t, 0, proc1.count%3, "wrong step passed to first process")
	assert.Equal(t, 0, proc2.count%3, "wrong step passed to second process")

	// second stop must not block or panic
	p.Stop()
}
