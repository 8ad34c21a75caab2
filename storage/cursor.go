// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"math/big"

	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/ephemerald/fault"
)

// FetchCursor - cursor structure
type FetchCursor struct {
	pool     *PoolHandle
	maxRange util.Range
}

// NewFetchCursor - initialise a cursor to the start of a key range
func (p *PoolHandle) NewFetchCursor() *FetchCursor {
	return &FetchCursor{
		pool: p,
		maxRange: util.Range{
			Start: []byte{p.prefix}, // Start of key range, included in the range
			Limit: p.limit,          // Limit of key range, excluded from the range
		},
	}
}

// Seek - move cursor to specific key position
func (cursor *FetchCursor) Seek(key []byte) *FetchCursor {
	cursor.maxRange.Start = cursor.pool.prefixKey(key)
	return cursor
}

// to increment the key
var one = big.NewInt(1)

// Fetch - return up to count elements from the cursor position and
// advance past them
func (cursor *FetchCursor) Fetch(count int) ([]Element, error) {
	if count <= 0 {
		return nil, fault.ErrMissingParameters
	}

	d := cursor.pool.database
	d.RLock()
	defer d.RUnlock()
	if nil == d.db {
		return nil, fault.ErrNotInitialised
	}

	iter := d.db.NewIterator(&cursor.maxRange, nil)

	results := make([]Element, 0, count)
iterating:
	for iter.Next() {
		results = append(results, copyElement(iter.Key(), iter.Value()))
		if len(results) >= count {
			break iterating
		}
	}
	iter.Release()
	err := iter.Error()

	if n := len(results); n > 0 {
		// next start is the last key + 1, zero padded to the same length
		keyLen := len(results[n-1].Key)
		b := big.Int{}
		next := b.SetBytes(results[n-1].Key).Add(&b, one).Bytes()
		start := []byte{cursor.pool.prefix}
		if len(next) < keyLen {
			start = append(start, make([]byte, keyLen-len(next))...)
		}
		cursor.maxRange.Start = append(start, next...)
	}
	return results, err
}

// Map - run a function on all elements in the range
func (cursor *FetchCursor) Map(f func(key []byte, value []byte) error) error {
	d := cursor.pool.database
	d.RLock()
	defer d.RUnlock()
	if nil == d.db {
		return fault.ErrNotInitialised
	}

	iter := d.db.NewIterator(&cursor.maxRange, nil)

	var err error
iterating:
	for iter.Next() {
		e := copyElement(iter.Key(), iter.Value())
		err = f(e.Key, e.Value)
		if nil != err {
			break iterating
		}
	}
	iter.Release()
	if nil == err {
		err = iter.Error()
	}
	return err
}
