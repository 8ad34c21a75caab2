// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bridge_test

import (
	"os"
	"testing"

	"github.com/bitmark-inc/ephemerald/fixtures"
	"github.com/bitmark-inc/ephemerald/ledger"
	"github.com/bitmark-inc/ephemerald/reservoir"
	"github.com/bitmark-inc/ephemerald/storage"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	result := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(result)
}

// process one transfer and return its nullifier
func transfer(t *testing.T, state *ledger.State, db *storage.Database, from string, to string, amount float64, signature string) string {
	pool := reservoir.New(nil, nil)
	id, err := pool.Submit(from, to, amount, "", signature)
	if nil != err {
		t.Fatalf("submit error: %s", err)
	}
	if err := ledger.NewProcessor(state, pool, db, nil).Process(id); nil != err {
		t.Fatalf("process error: %s", err)
	}
	nullifiers := state.Nullifiers()
	return nullifiers[len(nullifiers)-1].Id
}
