// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ratelimit - per client request limiting
package ratelimit

import (
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/ephemerald/fault"
)

const (
	// a request that would wait longer than this is refused
	maximumDelay = 2 * time.Second

	// idle clients are forgotten after this
	clientExpiration = 10 * time.Minute
	cleanupInterval  = time.Minute
)

// Limit - limiting for a single request
//
// waits for the limiter if the wait is short, otherwise refuses
func Limit(limiter *rate.Limiter) error {
	r := limiter.Reserve()
	if !r.OK() {
		return fault.ErrRateLimiting
	}
	delay := r.Delay()
	if delay > maximumDelay {
		r.Cancel()
		return fault.ErrRateLimiting
	}
	time.Sleep(delay)
	return nil
}

// Clients - one limiter per client address
type Clients struct {
	limiters *cache.Cache
	limit    rate.Limit
	burst    int
}

// New - perSecond <= 0 disables limiting
func New(perSecond float64, burst int) *Clients {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Clients{
		limiters: cache.New(clientExpiration, cleanupInterval),
		limit:    limit,
		burst:    burst,
	}
}

// Limit - apply the limiter of one client
func (c *Clients) Limit(client string) error {
	return Limit(c.get(client))
}

func (c *Clients) get(client string) *rate.Limiter {
	if l, found := c.limiters.Get(client); found {
		// refresh expiry of an active client
		c.limiters.SetDefault(client, l)
		return l.(*rate.Limiter)
	}

	// Add fails if another request created it first
	l := rate.NewLimiter(c.limit, c.burst)
	if err := c.limiters.Add(client, l, cache.DefaultExpiration); nil != err {
		if existing, found := c.limiters.Get(client); found {
			return existing.(*rate.Limiter)
		}
	}
	return l
}
