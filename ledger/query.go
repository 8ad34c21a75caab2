// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

// Info - current head and counts
func (s *State) Info() Info {
	s.RLock()
	defer s.RUnlock()
	return Info{
		Commitment:     s.commitment,
		BlockHeight:    s.blockHeight,
		ActiveNotes:    s.activeNotes.Uint64(),
		NullifierCount: len(s.nullifierOrder),
	}
}

// Balance - sum of the values of all notes held by an address
//
// the spent flag is not consulted: processing never sets it
func (s *State) Balance(address string) float64 {
	s.RLock()
	defer s.RUnlock()

	balance := 0.0
	for _, c := range s.noteOrder {
		note := s.notes[c]
		if note.Recipient == address {
			balance += note.Value
		}
	}
	return balance
}
