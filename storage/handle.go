// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/ephemerald/fault"
)

// PoolHandle - one prefix range of the database
type PoolHandle struct {
	prefix   byte
	limit    []byte
	database *Database
}

// Element - a binary data item
type Element struct {
	Key   []byte
	Value []byte
}

// prepend the prefix onto the key
func (p *PoolHandle) prefixKey(key []byte) []byte {
	prefixedKey := make([]byte, 1, len(key)+1)
	prefixedKey[0] = p.prefix
	return append(prefixedKey, key...)
}

// Has - check if a key exists
func (p *PoolHandle) Has(key []byte) (bool, error) {
	p.database.RLock()
	defer p.database.RUnlock()

	if nil == p.database.db {
		return false, fault.ErrNotInitialised
	}
	return p.database.db.Has(p.prefixKey(key), nil)
}

// LastElement - get the last element in a pool
func (p *PoolHandle) LastElement() (Element, bool, error) {
	maxRange := ldb_util.Range{
		Start: []byte{p.prefix}, // Start of key range, included in the range
		Limit: p.limit,          // Limit of key range, excluded from the range
	}

	p.database.RLock()
	defer p.database.RUnlock()

	if nil == p.database.db {
		return Element{}, false, fault.ErrNotInitialised
	}

	iter := p.database.db.NewIterator(&maxRange, nil)

	found := false
	result := Element{}
	if iter.Last() {
		result = copyElement(iter.Key(), iter.Value())
		found = true
	}
	iter.Release()
	return result, found, iter.Error()
}

// contents of iterator slices must not be modified, and are only
// valid until the next call to Next
func copyElement(key []byte, value []byte) Element {
	dataKey := make([]byte, len(key)-1) // strip the prefix
	copy(dataKey, key[1:])              // ...

	dataValue := make([]byte, len(value))
	copy(dataValue, value)

	return Element{
		Key:   dataKey,
		Value: dataValue,
	}
}

// Batch - a set of writes applied atomically
type Batch struct {
	database *Database
	batch    *leveldb.Batch
}

// NewBatch - start an empty batch
func (d *Database) NewBatch() *Batch {
	return &Batch{
		database: d,
		batch:    new(leveldb.Batch),
	}
}

// Put - add a key/value pair for a pool to the batch
func (b *Batch) Put(p *PoolHandle, key []byte, value []byte) {
	b.batch.Put(p.prefixKey(key), value)
}

// Commit - write the whole batch and sync it to disk
func (b *Batch) Commit() error {
	b.database.RLock()
	defer b.database.RUnlock()

	if nil == b.database.db {
		return fault.ErrNotInitialised
	}
	err := b.database.db.Write(b.batch, &ldb_opt.WriteOptions{Sync: true})
	b.batch.Reset()
	return err
}
