// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ephemerald/commitment"
	"github.com/bitmark-inc/ephemerald/fault"
	"github.com/bitmark-inc/ephemerald/reservoir"
	"github.com/bitmark-inc/ephemerald/storage"
)

// Pool - source of pending transactions
type Pool interface {
	Get(id string) (reservoir.Transaction, bool)
	MarkProcessed(id string) bool
}

// Observer - told about every new head
type Observer interface {
	BlockAdded(info Info)
}

// Processor - applies pending transactions to the ledger
type Processor struct {
	sync.Mutex
	log       *logger.L
	state     *State
	pool      Pool
	store     storage.Handle
	random    io.Reader
	now       func() time.Time
	observers []Observer
}

// the statement hashed into the proof hash of a chain record
type transition struct {
	OldCommitment string          `json:"oldCommitment"`
	NewCommitment string          `json:"newCommitment"`
	Transaction   transitionDelta `json:"transaction"`
}

type transitionDelta struct {
	Amount    float64 `json:"amount"`
	Nullifier string  `json:"nullifier"`
}

// NewProcessor - random == nil uses crypto/rand
func NewProcessor(state *State, pool Pool, store storage.Handle, random io.Reader) *Processor {
	if nil == random {
		random = rand.Reader
	}
	return &Processor{
		log:    logger.New("processor"),
		state:  state,
		pool:   pool,
		store:  store,
		random: random,
		now:    time.Now,
	}
}

// AddObserver - register for new head notifications
//
// must be called before processing starts
func (p *Processor) AddObserver(o Observer) {
	p.observers = append(p.observers, o)
}

// Process - consume one pending transaction
//
// unknown or already processed ids are ignored. On any error nothing
// is changed and the transaction stays pending; it is not retried.
func (p *Processor) Process(txId string) error {
	p.Lock()
	defer p.Unlock()

	tx, ok := p.pool.Get(txId)
	if !ok || tx.Processed {
		p.log.Debugf("skip: %s  found: %t", txId, ok)
		return nil
	}

	block, err := p.stage(&tx)
	if nil != err {
		p.log.Errorf("process: %s  error: %s", txId, err)
		return err
	}

	// the new head must not be visible before it is durable
	if err := p.store.Append(block); nil != err {
		p.log.Errorf("process: %s  persist error: %s", txId, err)
		return fault.ErrPersistenceFailed
	}

	info := p.apply(block)
	p.pool.MarkProcessed(txId)

	p.log.Infof("block: %d  commitment: %s", info.BlockHeight, info.Commitment)

	for _, o := range p.observers {
		o.BlockAdded(info)
	}
	return nil
}

// compute every artifact of the transition without changing state
func (p *Processor) stage(tx *reservoir.Transaction) (*storage.Block, error) {
	recipientRandomness, err := commitment.Randomness(p.random)
	if nil != err {
		return nil, err
	}
	senderRandomness, err := commitment.Randomness(p.random)
	if nil != err {
		return nil, err
	}

	// the sender note is only used to derive the nullifier
	recipientNote := commitment.Commit(tx.Amount, tx.To, recipientRandomness)
	senderNote := commitment.Commit(tx.Amount, tx.From, senderRandomness)
	nullifier := commitment.Nullify(tx.Signature, senderNote)

	s := p.state
	s.RLock()
	defer s.RUnlock()

	if _, ok := s.nullifiers[nullifier]; ok {
		return nil, fault.ErrDuplicateNullifier
	}
	if _, ok := s.notes[recipientNote]; ok {
		return nil, fault.ErrDuplicateCommitment
	}

	height := s.blockHeight + 1
	sequence := uint64(len(s.noteOrder))

	// full slice expressions force a copy so the live slices are untouched
	notes := append(s.noteOrder[:len(s.noteOrder):len(s.noteOrder)], recipientNote)
	nullifiers := append(s.nullifierOrder[:len(s.nullifierOrder):len(s.nullifierOrder)], nullifier)
	newCommitment := commitment.StateDigest(notes, nullifiers, height)

	proofHash, err := commitment.ProofDigest(transition{
		OldCommitment: s.commitment,
		NewCommitment: newCommitment,
		Transaction: transitionDelta{
			Amount:    tx.Amount,
			Nullifier: nullifier,
		},
	})
	if nil != err {
		return nil, err
	}

	timestamp := p.now().UnixNano() / int64(time.Millisecond)

	return &storage.Block{
		State: storage.StateRecord{
			BlockHeight: height,
			Commitment:  newCommitment,
			Timestamp:   timestamp,
			ProofHash:   proofHash,
		},
		Nullifier: storage.NullifierRecord{
			Nullifier:   nullifier,
			Sequence:    uint64(len(s.nullifierOrder)),
			Timestamp:   timestamp,
			BlockHeight: height,
		},
		Note: storage.NoteRecord{
			Commitment: recipientNote,
			Sequence:   sequence,
			Value:      tx.Amount,
			Recipient:  tx.To,
			CreatedAt:  timestamp,
		},
	}, nil
}

// make a persisted block visible
func (p *Processor) apply(block *storage.Block) Info {
	s := p.state
	s.Lock()
	defer s.Unlock()

	s.notes[block.Note.Commitment] = &Note{
		Commitment: block.Note.Commitment,
		Value:      block.Note.Value,
		Recipient:  block.Note.Recipient,
		CreatedAt:  block.Note.CreatedAt,
	}
	s.noteOrder = append(s.noteOrder, block.Note.Commitment)

	s.nullifiers[block.Nullifier.Nullifier] = &Nullifier{
		Id:          block.Nullifier.Nullifier,
		Timestamp:   block.Nullifier.Timestamp,
		BlockHeight: block.Nullifier.BlockHeight,
	}
	s.nullifierOrder = append(s.nullifierOrder, block.Nullifier.Nullifier)

	s.blockHeight = block.State.BlockHeight
	s.commitment = block.State.Commitment
	s.activeNotes.Increment()

	return Info{
		Commitment:     s.commitment,
		BlockHeight:    s.blockHeight,
		ActiveNotes:    s.activeNotes.Uint64(),
		NullifierCount: len(s.nullifierOrder),
	}
}
