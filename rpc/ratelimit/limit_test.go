// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ratelimit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/ephemerald/fault"
	"github.com/bitmark-inc/ephemerald/rpc/ratelimit"
)

func TestLimit(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)

	assert.Nil(t, ratelimit.Limit(limiter), "first request limited")
	assert.Equal(t, fault.ErrRateLimiting, ratelimit.Limit(limiter), "long wait not refused")
}

func TestClients(t *testing.T) {
	c := ratelimit.New(0.001, 2)

	assert.Nil(t, c.Limit("a"), "first request limited")
	assert.Nil(t, c.Limit("a"), "burst request limited")
	assert.Equal(t, fault.ErrRateLimiting, c.Limit("a"), "limit not applied")

	// clients are independent
	assert.Nil(t, c.Limit("b"), "other client limited")
}

func TestUnlimited(t *testing.T) {
	c := ratelimit.New(0, 0)
	for i := 0; i < 100; i += 1 {
		assert.Nil(t, c.Limit("a"), "%d: unlimited client limited", i)
	}
}
