// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"math"

	"github.com/bitmark-inc/ephemerald/fault"
	"github.com/bitmark-inc/ephemerald/util"
)

// StateRecord - one entry of the state commitment chain
type StateRecord struct {
	BlockHeight uint64 `json:"blockHeight"`
	Commitment  string `json:"commitment"`
	Timestamp   int64  `json:"timestamp"`
	ProofHash   string `json:"proofHash"`
}

// NullifierRecord - a spent marker
type NullifierRecord struct {
	Nullifier   string `json:"nullifier"`
	Sequence    uint64 `json:"sequence"`
	Timestamp   int64  `json:"timestamp"`
	BlockHeight uint64 `json:"blockHeight"`
}

// NoteRecord - a note as stored
type NoteRecord struct {
	Commitment string  `json:"commitment"`
	Sequence   uint64  `json:"sequence"`
	Value      float64 `json:"value"`
	Recipient  string  `json:"recipient"`
	CreatedAt  int64   `json:"createdAt"`
	Spent      bool    `json:"spent"`
}

// HeightKey - big endian key so that heights sort numerically
func HeightKey(height uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, height)
	return key
}

// layout: timestamp(8) ++ varint length ++ commitment ++ varint length ++ proof hash
func (r *StateRecord) pack() []byte {
	buffer := make([]byte, 8, 8+2*util.Varint64MaximumBytes+len(r.Commitment)+len(r.ProofHash))
	binary.BigEndian.PutUint64(buffer, uint64(r.Timestamp))
	buffer = appendString(buffer, r.Commitment)
	return appendString(buffer, r.ProofHash)
}

func unpackState(key []byte, buffer []byte) (StateRecord, error) {
	if 8 != len(key) || len(buffer) < 8 {
		return StateRecord{}, fault.ErrCannotDecodeRecord
	}
	r := StateRecord{
		BlockHeight: binary.BigEndian.Uint64(key),
		Timestamp:   int64(binary.BigEndian.Uint64(buffer[:8])),
	}
	var err error
	buffer = buffer[8:]
	r.Commitment, buffer, err = takeString(buffer)
	if nil != err {
		return StateRecord{}, err
	}
	r.ProofHash, _, err = takeString(buffer)
	if nil != err {
		return StateRecord{}, err
	}
	return r, nil
}

// layout: sequence(8) ++ timestamp(8) ++ height(8)
func (r *NullifierRecord) pack() []byte {
	buffer := make([]byte, 24)
	binary.BigEndian.PutUint64(buffer[0:8], r.Sequence)
	binary.BigEndian.PutUint64(buffer[8:16], uint64(r.Timestamp))
	binary.BigEndian.PutUint64(buffer[16:24], r.BlockHeight)
	return buffer
}

func unpackNullifier(key []byte, buffer []byte) (NullifierRecord, error) {
	if 24 != len(buffer) {
		return NullifierRecord{}, fault.ErrCannotDecodeRecord
	}
	return NullifierRecord{
		Nullifier:   string(key),
		Sequence:    binary.BigEndian.Uint64(buffer[0:8]),
		Timestamp:   int64(binary.BigEndian.Uint64(buffer[8:16])),
		BlockHeight: binary.BigEndian.Uint64(buffer[16:24]),
	}, nil
}

// layout: sequence(8) ++ created(8) ++ value bits(8) ++ spent(1) ++ recipient
func (r *NoteRecord) pack() []byte {
	buffer := make([]byte, 25, 25+len(r.Recipient))
	binary.BigEndian.PutUint64(buffer[0:8], r.Sequence)
	binary.BigEndian.PutUint64(buffer[8:16], uint64(r.CreatedAt))
	binary.BigEndian.PutUint64(buffer[16:24], math.Float64bits(r.Value))
	if r.Spent {
		buffer[24] = 1
	}
	return append(buffer, r.Recipient...)
}

func unpackNote(key []byte, buffer []byte) (NoteRecord, error) {
	if len(buffer) < 25 {
		return NoteRecord{}, fault.ErrCannotDecodeRecord
	}
	return NoteRecord{
		Commitment: string(key),
		Sequence:   binary.BigEndian.Uint64(buffer[0:8]),
		CreatedAt:  int64(binary.BigEndian.Uint64(buffer[8:16])),
		Value:      math.Float64frombits(binary.BigEndian.Uint64(buffer[16:24])),
		Spent:      0 != buffer[24],
		Recipient:  string(buffer[25:]),
	}, nil
}

func appendString(buffer []byte, s string) []byte {
	buffer = append(buffer, util.ToVarint64(uint64(len(s)))...)
	return append(buffer, s...)
}

func takeString(buffer []byte) (string, []byte, error) {
	length, n := util.FromVarint64(buffer)
	if 0 == n || uint64(len(buffer)-n) < length {
		return "", nil, fault.ErrCannotDecodeRecord
	}
	end := n + int(length)
	return string(buffer[n:end]), buffer[end:], nil
}
