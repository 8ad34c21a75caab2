// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package reservoir

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ephemerald/fault"
)

const (
	// DefaultAsset - used when a submission names no asset
	DefaultAsset = "ETH"

	idSize             = 32
	maximumFieldLength = 1024
	redactLength       = 10
)

// Transaction - a submitted transfer
type Transaction struct {
	Id        string
	From      string
	To        string
	Amount    float64
	Asset     string
	Signature string
	Timestamp int64 // milliseconds
	Processed bool
}

// Sanitised - the view of a pending transfer given to clients
type Sanitised struct {
	Id        string  `json:"id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Asset     string  `json:"asset"`
	Timestamp int64   `json:"timestamp"`
}

// Scheduler - arranges for a transaction to be processed later
type Scheduler interface {
	Schedule(txId string)
}

// Reservoir - the intake queue
type Reservoir struct {
	sync.RWMutex
	log       *logger.L
	entries   map[string]*Transaction
	scheduler Scheduler
	random    io.Reader
	now       func() time.Time
}

// New - create an empty queue
//
// now == nil uses the system clock
func New(scheduler Scheduler, now func() time.Time) *Reservoir {
	if nil == now {
		now = time.Now
	}
	return &Reservoir{
		log:       logger.New("reservoir"),
		entries:   make(map[string]*Transaction),
		scheduler: scheduler,
		random:    rand.Reader,
		now:       now,
	}
}

// Submit - validate and enqueue a transfer, returns its id
//
// processing is scheduled before returning but never runs on the
// caller's goroutine
func (r *Reservoir) Submit(from string, to string, amount float64, asset string, signature string) (string, error) {

	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	asset = strings.TrimSpace(asset)

	switch {
	case "" == from:
		return "", fault.ErrMissingFrom
	case "" == to:
		return "", fault.ErrMissingTo
	case "" == signature:
		return "", fault.ErrMissingSignature
	case math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0:
		return "", fault.ErrAmountIsInvalid
	}
	for _, field := range []string{from, to, asset, signature} {
		if len(field) > maximumFieldLength {
			return "", fault.ErrFieldTooLong
		}
	}

	if "" == asset {
		asset = DefaultAsset
	}

	buffer := make([]byte, idSize)
	if _, err := io.ReadFull(r.random, buffer); nil != err {
		r.log.Errorf("transaction id generation error: %s", err)
		return "", err
	}
	id := hex.EncodeToString(buffer)

	tx := &Transaction{
		Id:        id,
		From:      from,
		To:        to,
		Amount:    amount,
		Asset:     asset,
		Signature: signature,
		Timestamp: r.now().UnixNano() / int64(time.Millisecond),
	}

	r.Lock()
	r.entries[id] = tx
	r.Unlock()

	r.log.Debugf("submitted: %s", id)

	if nil != r.scheduler {
		r.scheduler.Schedule(id)
	}
	return id, nil
}

// Get - a copy of an entry
func (r *Reservoir) Get(id string) (Transaction, bool) {
	r.RLock()
	defer r.RUnlock()

	tx, ok := r.entries[id]
	if !ok {
		return Transaction{}, false
	}
	return *tx, true
}

// MarkProcessed - flag an entry as consumed, false if it is unknown
func (r *Reservoir) MarkProcessed(id string) bool {
	r.Lock()
	defer r.Unlock()

	tx, ok := r.entries[id]
	if !ok {
		return false
	}
	tx.Processed = true
	return true
}

// ListPending - unprocessed entries, oldest first, with addresses
// truncated
func (r *Reservoir) ListPending() []Sanitised {
	r.RLock()
	pending := make([]Sanitised, 0, len(r.entries))
	for _, tx := range r.entries {
		if tx.Processed {
			continue
		}
		pending = append(pending, Sanitised{
			Id:        tx.Id,
			From:      redact(tx.From),
			To:        redact(tx.To),
			Amount:    tx.Amount,
			Asset:     tx.Asset,
			Timestamp: tx.Timestamp,
		})
	}
	r.RUnlock()

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Timestamp == pending[j].Timestamp {
			return pending[i].Id < pending[j].Id
		}
		return pending[i].Timestamp < pending[j].Timestamp
	})
	return pending
}

// Delete - remove processed entries older than a cutoff in milliseconds
// and return the number removed
func (r *Reservoir) Delete(olderThan int64) int {
	deleted, _ := r.expire(olderThan)
	return deleted
}

// Counts - number of pending and processed entries
func (r *Reservoir) Counts() (int, int) {
	r.RLock()
	defer r.RUnlock()

	processed := 0
	for _, tx := range r.entries {
		if tx.Processed {
			processed += 1
		}
	}
	return len(r.entries) - processed, processed
}

// Size - total number of entries
func (r *Reservoir) Size() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.entries)
}

// unprocessed entries are never removed regardless of age
func (r *Reservoir) expire(olderThan int64) (int, int) {
	r.Lock()
	defer r.Unlock()

	deleted := 0
	for id, tx := range r.entries {
		if tx.Processed && tx.Timestamp < olderThan {
			delete(r.entries, id)
			deleted += 1
		}
	}
	return deleted, len(r.entries)
}

func redact(address string) string {
	runes := []rune(address)
	if len(runes) > redactLength {
		runes = runes[:redactLength]
	}
	return string(runes) + "..."
}
