// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/bitmark-inc/ephemerald/storage"
)

// test database file
const (
	databaseFileName = "test.leveldb"
)

// remove all files created by test
func removeFiles() {
	os.RemoveAll(databaseFileName)
}

// configure for testing
func setup(t *testing.T) *storage.Database {
	removeFiles()
	d, err := storage.Open(databaseFileName)
	if nil != err {
		t.Fatalf("storage open error: %s", err)
	}
	return d
}

// post test cleanup
func teardown(d *storage.Database) {
	d.Close()
	removeFiles()
}

// a block at the given height
func makeBlock(height uint64) *storage.Block {
	return &storage.Block{
		State: storage.StateRecord{
			BlockHeight: height,
			Commitment:  fmt.Sprintf("0xstate-%d", height),
			Timestamp:   int64(1600000000000 + height),
			ProofHash:   fmt.Sprintf("0xproof-%d", height),
		},
		Nullifier: storage.NullifierRecord{
			Nullifier:   fmt.Sprintf("nullifier-%03d", 100-height),
			Sequence:    height - 1,
			Timestamp:   int64(1600000000000 + height),
			BlockHeight: height,
		},
		Note: storage.NoteRecord{
			Commitment: fmt.Sprintf("note-%03d", 100-height),
			Sequence:   height - 1,
			Value:      float64(height) + 0.5,
			Recipient:  fmt.Sprintf("recipient-%d", height%2),
			CreatedAt:  int64(1600000000000 + height),
		},
	}
}
