// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bridge

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ephemerald/commitment"
	"github.com/bitmark-inc/ephemerald/fault"
	"github.com/bitmark-inc/ephemerald/ledger"
)

// ZeroToken - token address meaning the native coin
var ZeroToken = common.Address{}.Hex()

// Ledger - the state an effect proof is checked against
type Ledger interface {
	Head() (string, uint64)
	Nullifier(id string) (ledger.Nullifier, bool)
}

// EffectProof - authorisation for the bridge to release funds
type EffectProof struct {
	StateCommitment string `json:"stateCommitment"`
	Nullifier       string `json:"nullifier"`
	Recipient       string `json:"recipient"`
	Token           string `json:"token"`
	Amount          string `json:"amount"` // wei, decimal
	ZkProof         string `json:"zkProof"`
	BlockHeight     uint64 `json:"blockHeight"`
	NullifierHeight uint64 `json:"nullifierHeight"`
	Calldata        string `json:"calldata,omitempty"`
}

// the statement hashed into zkProof
type statement struct {
	StateCommitment string `json:"stateCommitment"`
	Effect          effect `json:"effect"`
}

type effect struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Token     string `json:"token"`
	Nullifier string `json:"nullifier"`
}

// Generator - builds effect proofs
type Generator struct {
	log    *logger.L
	ledger Ledger
	unlock *unlockEncoder
}

// New - create a generator reading from a ledger
func New(l Ledger) (*Generator, error) {
	unlock, err := newUnlockEncoder()
	if nil != err {
		return nil, err
	}
	return &Generator{
		log:    logger.New("bridge"),
		ledger: l,
		unlock: unlock,
	}, nil
}

// Generate - proof that nullifier was spent, for a withdrawal of
// amount ether to recipient
//
// the proof is bound to the current head, which may be later than
// the block holding the nullifier; both heights are reported
func (g *Generator) Generate(recipient string, amount string, token string, nullifier string) (*EffectProof, error) {

	recipient = strings.TrimSpace(recipient)
	token = strings.TrimSpace(token)
	nullifier = strings.TrimSpace(nullifier)

	switch {
	case "" == recipient:
		return nil, fault.ErrMissingRecipient
	case "" == strings.TrimSpace(amount):
		return nil, fault.ErrMissingAmount
	case "" == nullifier:
		return nil, fault.ErrMissingNullifier
	}

	n, ok := g.ledger.Nullifier(nullifier)
	if !ok {
		g.log.Debugf("unknown nullifier: %s", nullifier)
		return nil, fault.ErrInvalidNullifier
	}

	wei, err := ParseEther(amount)
	if nil != err {
		return nil, err
	}

	if "" == token {
		token = ZeroToken
	}

	head, height := g.ledger.Head()

	zkProof, err := commitment.ProofDigest(statement{
		StateCommitment: head,
		Effect: effect{
			Recipient: recipient,
			Amount:    wei.Dec(),
			Token:     token,
			Nullifier: nullifier,
		},
	})
	if nil != err {
		return nil, err
	}

	proof := &EffectProof{
		StateCommitment: head,
		Nullifier:       nullifier,
		Recipient:       recipient,
		Token:           token,
		Amount:          wei.Dec(),
		ZkProof:         zkProof,
		BlockHeight:     height,
		NullifierHeight: n.BlockHeight,
	}

	proof.Calldata = g.calldata(proof, wei)

	g.log.Infof("effect proof: nullifier: %s  height: %d  nullifier height: %d", nullifier, height, n.BlockHeight)
	return proof, nil
}

// blank when any field cannot be expressed in the contract types
func (g *Generator) calldata(proof *EffectProof, wei *uint256.Int) string {
	data, err := g.unlock.pack(proof, wei)
	if nil != err {
		g.log.Debugf("no calldata: %s", err)
		return ""
	}
	return "0x" + common.Bytes2Hex(data)
}
