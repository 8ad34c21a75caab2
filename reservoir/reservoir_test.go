// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package reservoir_test

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/ephemerald/fault"
	"github.com/bitmark-inc/ephemerald/reservoir"
)

func TestSubmitValidation(t *testing.T) {
	r := reservoir.New(nil, nil)

	long := strings.Repeat("x", 1025)
	items := []struct {
		from      string
		to        string
		amount    float64
		signature string
		expected  error
	}{
		{"", "B", 5, "sig", fault.ErrMissingFrom},
		{"  ", "B", 5, "sig", fault.ErrMissingFrom},
		{"A", "", 5, "sig", fault.ErrMissingTo},
		{"A", "B", 5, "", fault.ErrMissingSignature},
		{"A", "B", 0, "sig", fault.ErrAmountIsInvalid},
		{"A", "B", -1, "sig", fault.ErrAmountIsInvalid},
		{"A", "B", math.NaN(), "sig", fault.ErrAmountIsInvalid},
		{"A", "B", math.Inf(1), "sig", fault.ErrAmountIsInvalid},
		{long, "B", 5, "sig", fault.ErrFieldTooLong},
	}

	for i, item := range items {
		id, err := r.Submit(item.from, item.to, item.amount, "", item.signature)
		assert.Equal(t, item.expected, err, "%d: wrong error", i)
		assert.True(t, fault.IsErrValidation(err), "%d: not a validation error", i)
		assert.Equal(t, "", id, "%d: id returned on error", i)
	}
	assert.Equal(t, 0, r.Size(), "invalid submission was stored")
}

func TestSubmit(t *testing.T) {
	s := &recorder{}
	clock := newClock()
	r := reservoir.New(s, clock.Now)

	id, err := r.Submit("A", "B", 5, "", "sig1")
	assert.Nil(t, err, "submit failed")
	assert.Equal(t, 64, len(id), "wrong id length")
	assert.Equal(t, []string{id}, s.ids, "processing not scheduled")

	tx, ok := r.Get(id)
	assert.True(t, ok, "entry not found")
	assert.Equal(t, "A", tx.From, "wrong from")
	assert.Equal(t, "B", tx.To, "wrong to")
	assert.Equal(t, 5.0, tx.Amount, "wrong amount")
	assert.Equal(t, reservoir.DefaultAsset, tx.Asset, "asset did not default")
	assert.Equal(t, "sig1", tx.Signature, "wrong signature")
	assert.Equal(t, millis(clock.Now()), tx.Timestamp, "wrong timestamp")
	assert.False(t, tx.Processed, "new entry is processed")

	id2, _ := r.Submit("A", "B", 5, "DAI", "sig1")
	assert.NotEqual(t, id, id2, "ids repeated")
	tx2, _ := r.Get(id2)
	assert.Equal(t, "DAI", tx2.Asset, "asset overwritten")

	pending, processed := r.Counts()
	assert.Equal(t, 2, pending, "wrong pending count")
	assert.Equal(t, 0, processed, "wrong processed count")

	assert.True(t, r.MarkProcessed(id), "mark failed")
	assert.False(t, r.MarkProcessed("unknown"), "unknown id marked")
	pending, processed = r.Counts()
	assert.Equal(t, 1, pending, "wrong pending count after mark")
	assert.Equal(t, 1, processed, "wrong processed count after mark")

	// copies must not alias the stored entry
	tx.Processed = false
	again, _ := r.Get(id)
	assert.True(t, again.Processed, "Get returned an alias")
}

func TestListPending(t *testing.T) {
	clock := newClock()
	r := reservoir.New(nil, clock.Now)

	first, _ := r.Submit("0x1234567890abcdef", "short", 1, "", "s")
	clock.Advance(time.Second)
	second, _ := r.Submit("0xfedcba0987654321", "0xaaaaaaaaaaaa", 2, "", "s")
	clock.Advance(time.Second)
	third, _ := r.Submit("C", "D", 3, "", "s")
	r.MarkProcessed(third)

	pending := r.ListPending()
	assert.Equal(t, 2, len(pending), "processed entry listed")

	assert.Equal(t, first, pending[0].Id, "wrong order")
	assert.Equal(t, "0x12345678...", pending[0].From, "wrong redaction")
	assert.Equal(t, "short...", pending[0].To, "wrong short redaction")
	assert.Equal(t, 1.0, pending[0].Amount, "wrong amount")

	assert.Equal(t, second, pending[1].Id, "wrong order")
	assert.Equal(t, "0xaaaaaaaa...", pending[1].To, "wrong redaction")
}

func TestDelete(t *testing.T) {
	clock := newClock()
	r := reservoir.New(nil, clock.Now)

	oldProcessed, _ := r.Submit("A", "B", 1, "", "s")
	oldPending, _ := r.Submit("A", "B", 1, "", "s")
	r.MarkProcessed(oldProcessed)

	clock.Advance(3 * time.Hour)
	newProcessed, _ := r.Submit("A", "B", 1, "", "s")
	r.MarkProcessed(newProcessed)

	cutoff := millis(clock.Now().Add(-time.Hour))
	assert.Equal(t, 1, r.Delete(cutoff), "wrong deleted count")

	_, ok := r.Get(oldProcessed)
	assert.False(t, ok, "old processed entry survived")
	_, ok = r.Get(oldPending)
	assert.True(t, ok, "unprocessed entry was deleted")
	_, ok = r.Get(newProcessed)
	assert.True(t, ok, "recent entry was deleted")

	// cutoff is exclusive
	tx, _ := r.Get(newProcessed)
	assert.Equal(t, 0, r.Delete(tx.Timestamp), "entry at cutoff deleted")
	assert.Equal(t, 1, r.Delete(tx.Timestamp+1), "entry before cutoff kept")
	assert.Equal(t, 1, r.Size(), "wrong remaining size")
}
