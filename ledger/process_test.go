// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger_test

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/ephemerald/commitment"
	"github.com/bitmark-inc/ephemerald/fault"
	"github.com/bitmark-inc/ephemerald/fixtures"
	"github.com/bitmark-inc/ephemerald/ledger"
	"github.com/bitmark-inc/ephemerald/reservoir"
	"github.com/bitmark-inc/ephemerald/storage/mocks"
)

func TestGenesis(t *testing.T) {
	state := ledger.New()
	info := state.Info()

	assert.Equal(t, commitment.Genesis(), info.Commitment, "wrong genesis commitment")
	assert.Equal(t, uint64(0), info.BlockHeight, "wrong genesis height")
	assert.Equal(t, uint64(0), info.ActiveNotes, "genesis has notes")
	assert.Equal(t, 0, info.NullifierCount, "genesis has nullifiers")
}

func TestProcessTransfer(t *testing.T) {
	e := setup(t, nil)
	defer e.teardown()

	o := &observer{}
	e.processor.AddObserver(o)

	id := e.submit(t, "A", "B", 5, "sig1")
	assert.Nil(t, e.processor.Process(id), "process failed")

	info := e.state.Info()
	assert.Equal(t, uint64(1), info.BlockHeight, "wrong height")
	assert.Equal(t, uint64(1), info.ActiveNotes, "wrong active notes")
	assert.Equal(t, 1, info.NullifierCount, "wrong nullifier count")
	assert.NotEqual(t, commitment.Genesis(), info.Commitment, "head did not move")

	assert.Equal(t, 5.0, e.state.Balance("B"), "wrong recipient balance")
	assert.Equal(t, 0.0, e.state.Balance("A"), "sender note must not exist")

	tx, _ := e.pool.Get(id)
	assert.True(t, tx.Processed, "transaction not marked processed")

	notes := e.state.Notes()
	assert.Equal(t, 1, len(notes), "wrong note count")
	assert.Equal(t, "B", notes[0].Recipient, "wrong recipient")
	assert.False(t, notes[0].Spent, "new note is spent")

	nullifiers := e.state.Nullifiers()
	assert.True(t, e.state.HasNullifier(nullifiers[0].Id), "nullifier not found")
	assert.Equal(t, uint64(1), nullifiers[0].BlockHeight, "wrong nullifier height")

	assert.Equal(t, []ledger.Info{info}, o.infos, "observer not notified")
}

func TestHeadIsRecomputable(t *testing.T) {
	e := setup(t, nil)
	defer e.teardown()

	previous := uint64(0)
	for i, to := range []string{"B", "C", "B"} {
		id := e.submit(t, "A", to, float64(i+1), "sig")
		assert.Nil(t, e.processor.Process(id), "%d: process failed", i)

		head, height := e.state.Head()
		assert.Equal(t, previous+1, height, "%d: height did not increase by one", i)
		previous = height

		notes := []string{}
		for _, n := range e.state.Notes() {
			notes = append(notes, n.Commitment)
		}
		nullifiers := []string{}
		for _, n := range e.state.Nullifiers() {
			nullifiers = append(nullifiers, n.Id)
		}
		assert.Equal(t, commitment.StateDigest(notes, nullifiers, height), head, "%d: head not recomputable", i)
	}

	assert.Equal(t, 4.0, e.state.Balance("B"), "wrong balance for B")
	assert.Equal(t, 2.0, e.state.Balance("C"), "wrong balance for C")
	assert.Equal(t, 0.0, e.state.Balance("nobody"), "unknown address has balance")
}

func TestProcessIdempotent(t *testing.T) {
	e := setup(t, nil)
	defer e.teardown()

	id := e.submit(t, "A", "B", 5, "sig1")
	assert.Nil(t, e.processor.Process(id), "first process failed")
	before := e.state.Info()

	assert.Nil(t, e.processor.Process(id), "second process failed")
	assert.Nil(t, e.processor.Process("no-such-id"), "unknown id failed")
	assert.Equal(t, before, e.state.Info(), "state changed")
}

func TestDuplicateNullifier(t *testing.T) {
	e := setup(t, fixtures.FixedRandom(0x42))
	defer e.teardown()

	// identical sender, amount, secret and randomness give the same nullifier
	first := e.submit(t, "A", "B", 5, "sig1")
	second := e.submit(t, "A", "C", 5, "sig1")

	assert.Nil(t, e.processor.Process(first), "first process failed")
	before := e.state.Info()

	err := e.processor.Process(second)
	assert.Equal(t, fault.ErrDuplicateNullifier, err, "duplicate accepted")
	assert.Equal(t, before, e.state.Info(), "state changed on rejection")

	tx, _ := e.pool.Get(second)
	assert.False(t, tx.Processed, "rejected transaction marked processed")
	assert.Equal(t, 0.0, e.state.Balance("C"), "rejected note credited")
}

func TestPersistenceFailure(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	store := mocks.NewMockHandle(ctl)
	store.EXPECT().Append(gomock.Any()).Return(errors.New("disk full")).Times(1)

	state := ledger.New()
	pool := reservoir.New(nil, nil)
	p := ledger.NewProcessor(state, pool, store, nil)

	o := &observer{}
	p.AddObserver(o)

	id, _ := pool.Submit("A", "B", 5, "", "sig1")
	err := p.Process(id)
	assert.Equal(t, fault.ErrPersistenceFailed, err, "wrong error")
	assert.True(t, fault.IsErrProcess(err), "not a process error")

	info := state.Info()
	assert.Equal(t, uint64(0), info.BlockHeight, "height moved without persistence")
	assert.Equal(t, commitment.Genesis(), info.Commitment, "head moved without persistence")
	assert.Equal(t, 0.0, state.Balance("B"), "note visible without persistence")
	assert.Equal(t, 0, len(o.infos), "observer notified of failed block")

	tx, _ := pool.Get(id)
	assert.False(t, tx.Processed, "failed transaction marked processed")
}

func TestProcessPersists(t *testing.T) {
	e := setup(t, nil)
	defer e.teardown()

	id := e.submit(t, "A", "B", 2.5, "sig1")
	assert.Nil(t, e.processor.Process(id), "process failed")

	snapshot, err := e.db.Load()
	assert.Nil(t, err, "load failed")

	head, height := e.state.Head()
	assert.Equal(t, head, snapshot.Head.Commitment, "stored head differs")
	assert.Equal(t, height, snapshot.Head.BlockHeight, "stored height differs")
	assert.Equal(t, 66, len(snapshot.Head.ProofHash), "missing proof hash")
	assert.Equal(t, 1, len(snapshot.Notes), "note not stored")
	assert.Equal(t, 2.5, snapshot.Notes[0].Value, "wrong stored value")
	assert.Equal(t, "B", snapshot.Notes[0].Recipient, "wrong stored recipient")
	assert.Equal(t, 1, len(snapshot.Nullifiers), "nullifier not stored")
}
