// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ephemerald/commitment"
	"github.com/bitmark-inc/ephemerald/counter"
	"github.com/bitmark-inc/ephemerald/fault"
	"github.com/bitmark-inc/ephemerald/storage"
)

// Note - a hidden unit of value owned by a recipient
type Note struct {
	Commitment string  `json:"commitment"`
	Value      float64 `json:"value"`
	Recipient  string  `json:"recipient"`
	CreatedAt  int64   `json:"createdAt"`
	Spent      bool    `json:"spent"`
}

// Nullifier - marks a commitment as spent
type Nullifier struct {
	Id          string `json:"nullifier"`
	Timestamp   int64  `json:"timestamp"`
	BlockHeight uint64 `json:"blockHeight"`
}

// Info - summary of the current state
type Info struct {
	Commitment     string `json:"currentCommitment"`
	BlockHeight    uint64 `json:"blockHeight"`
	ActiveNotes    uint64 `json:"activeNotes"`
	NullifierCount int    `json:"nullifierCount"`
}

// State - the in-memory ledger
type State struct {
	sync.RWMutex
	log            *logger.L
	notes          map[string]*Note
	noteOrder      []string
	nullifiers     map[string]*Nullifier
	nullifierOrder []string
	commitment     string
	blockHeight    uint64
	activeNotes    counter.Counter
}

// New - an empty ledger at genesis
func New() *State {
	return &State{
		log:            logger.New("ledger"),
		notes:          make(map[string]*Note),
		noteOrder:      []string{},
		nullifiers:     make(map[string]*Nullifier),
		nullifierOrder: []string{},
		commitment:     commitment.Genesis(),
	}
}

// Restore - rebuild an empty ledger from persisted records
//
// the head is recomputed and must match the stored one
func (s *State) Restore(snapshot *storage.Snapshot) error {
	s.Lock()
	defer s.Unlock()

	if 0 != s.blockHeight || 0 != len(s.notes) {
		return fault.ErrAlreadyInitialised
	}
	if nil == snapshot.Head {
		if 0 != len(snapshot.Notes) || 0 != len(snapshot.Nullifiers) {
			return fault.ErrCommitmentMismatch
		}
		s.log.Info("restore: empty database, starting at genesis")
		return nil
	}

	notes := make(map[string]*Note, len(snapshot.Notes))
	noteOrder := make([]string, 0, len(snapshot.Notes))
	for _, r := range snapshot.Notes {
		notes[r.Commitment] = &Note{
			Commitment: r.Commitment,
			Value:      r.Value,
			Recipient:  r.Recipient,
			CreatedAt:  r.CreatedAt,
			Spent:      r.Spent,
		}
		noteOrder = append(noteOrder, r.Commitment)
	}

	nullifiers := make(map[string]*Nullifier, len(snapshot.Nullifiers))
	nullifierOrder := make([]string, 0, len(snapshot.Nullifiers))
	for _, r := range snapshot.Nullifiers {
		nullifiers[r.Nullifier] = &Nullifier{
			Id:          r.Nullifier,
			Timestamp:   r.Timestamp,
			BlockHeight: r.BlockHeight,
		}
		nullifierOrder = append(nullifierOrder, r.Nullifier)
	}

	height := snapshot.Head.BlockHeight
	digest := commitment.StateDigest(noteOrder, nullifierOrder, height)
	if digest != snapshot.Head.Commitment {
		s.log.Criticalf("restore: height: %d  computed: %s  stored: %s", height, digest, snapshot.Head.Commitment)
		return fault.ErrCommitmentMismatch
	}

	s.notes = notes
	s.noteOrder = noteOrder
	s.nullifiers = nullifiers
	s.nullifierOrder = nullifierOrder
	s.blockHeight = height
	s.commitment = digest
	s.activeNotes.Set(uint64(len(noteOrder)))

	s.log.Infof("restore: height: %d  notes: %d  nullifiers: %d", height, len(noteOrder), len(nullifierOrder))
	return nil
}

// Head - current commitment and height
func (s *State) Head() (string, uint64) {
	s.RLock()
	defer s.RUnlock()
	return s.commitment, s.blockHeight
}

// HasNullifier - membership test
func (s *State) HasNullifier(id string) bool {
	s.RLock()
	defer s.RUnlock()
	_, ok := s.nullifiers[id]
	return ok
}

// Nullifier - a copy of a nullifier entry
func (s *State) Nullifier(id string) (Nullifier, bool) {
	s.RLock()
	defer s.RUnlock()
	n, ok := s.nullifiers[id]
	if !ok {
		return Nullifier{}, false
	}
	return *n, true
}

// Notes - copies of all notes in insertion order
func (s *State) Notes() []Note {
	s.RLock()
	defer s.RUnlock()
	notes := make([]Note, 0, len(s.noteOrder))
	for _, c := range s.noteOrder {
		notes = append(notes, *s.notes[c])
	}
	return notes
}

// Nullifiers - copies of all nullifiers in insertion order
func (s *State) Nullifiers() []Nullifier {
	s.RLock()
	defer s.RUnlock()
	nullifiers := make([]Nullifier, 0, len(s.nullifierOrder))
	for _, id := range s.nullifierOrder {
		nullifiers = append(nullifiers, *s.nullifiers[id])
	}
	return nullifiers
}
