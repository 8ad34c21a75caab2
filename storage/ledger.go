// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sort"

	"github.com/bitmark-inc/ephemerald/fault"
)

// Block - everything one processed transaction adds
type Block struct {
	State     StateRecord
	Nullifier NullifierRecord
	Note      NoteRecord
}

// Snapshot - the full persisted state
//
// notes and nullifiers are in sequence order, Head is nil for an
// empty database
type Snapshot struct {
	Notes      []NoteRecord
	Nullifiers []NullifierRecord
	Head       *StateRecord
}

// Handle - the persistence operations needed by the ledger
type Handle interface {
	Append(block *Block) error
	Load() (*Snapshot, error)
}

// Append - write all records of a block in one atomic batch
//
// a nullifier or note commitment already on disk is never overwritten
func (d *Database) Append(block *Block) error {
	nullifier := []byte(block.Nullifier.Nullifier)
	if found, err := d.Pool.Nullifiers.Has(nullifier); nil != err {
		return err
	} else if found {
		return fault.ErrDuplicateNullifier
	}
	commitment := []byte(block.Note.Commitment)
	if found, err := d.Pool.Notes.Has(commitment); nil != err {
		return err
	} else if found {
		return fault.ErrDuplicateCommitment
	}

	batch := d.NewBatch()
	batch.Put(d.Pool.StateCommitments, HeightKey(block.State.BlockHeight), block.State.pack())
	batch.Put(d.Pool.Nullifiers, nullifier, block.Nullifier.pack())
	batch.Put(d.Pool.Notes, commitment, block.Note.pack())
	return batch.Commit()
}

// Load - read back the complete persisted state
func (d *Database) Load() (*Snapshot, error) {
	snapshot := &Snapshot{
		Notes:      []NoteRecord{},
		Nullifiers: []NullifierRecord{},
	}

	err := d.Pool.Notes.NewFetchCursor().Map(func(key []byte, value []byte) error {
		note, err := unpackNote(key, value)
		if nil != err {
			return err
		}
		snapshot.Notes = append(snapshot.Notes, note)
		return nil
	})
	if nil != err {
		return nil, err
	}

	err = d.Pool.Nullifiers.NewFetchCursor().Map(func(key []byte, value []byte) error {
		nullifier, err := unpackNullifier(key, value)
		if nil != err {
			return err
		}
		snapshot.Nullifiers = append(snapshot.Nullifiers, nullifier)
		return nil
	})
	if nil != err {
		return nil, err
	}

	// keys are not in insertion order
	sort.Slice(snapshot.Notes, func(i, j int) bool {
		return snapshot.Notes[i].Sequence < snapshot.Notes[j].Sequence
	})
	sort.Slice(snapshot.Nullifiers, func(i, j int) bool {
		return snapshot.Nullifiers[i].Sequence < snapshot.Nullifiers[j].Sequence
	})

	last, found, err := d.Pool.StateCommitments.LastElement()
	if nil != err {
		return nil, err
	}
	if found {
		head, err := unpackState(last.Key, last.Value)
		if nil != err {
			return nil, err
		}
		snapshot.Head = &head
	}

	return snapshot, nil
}

// StateRecords - fetch up to count chain records starting at a height
func (d *Database) StateRecords(start uint64, count int) ([]StateRecord, error) {
	cursor := d.Pool.StateCommitments.NewFetchCursor().Seek(HeightKey(start))
	elements, err := cursor.Fetch(count)
	if nil != err {
		return nil, err
	}

	records := make([]StateRecord, 0, len(elements))
	for _, e := range elements {
		r, err := unpackState(e.Key, e.Value)
		if nil != err {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
