// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bridge

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/bitmark-inc/ephemerald/fault"
)

// UnlockMethod - contract entry point that releases locked assets
const UnlockMethod = "unlockAsset"

const unlockABI = `[{
  "type": "function",
  "name": "unlockAsset",
  "stateMutability": "nonpayable",
  "inputs": [{
    "name": "_proof",
    "type": "tuple",
    "components": [
      {"name": "stateCommitment", "type": "bytes32"},
      {"name": "nullifier", "type": "bytes32"},
      {"name": "recipient", "type": "address"},
      {"name": "token", "type": "address"},
      {"name": "amount", "type": "uint256"},
      {"name": "zkProof", "type": "bytes"}
    ]
  }],
  "outputs": []
}]`

// field names must match the tuple components
type unlockProof struct {
	StateCommitment [32]byte
	Nullifier       [32]byte
	Recipient       common.Address
	Token           common.Address
	Amount          *big.Int
	ZkProof         []byte
}

type unlockEncoder struct {
	contract abi.ABI
}

func newUnlockEncoder() (*unlockEncoder, error) {
	contract, err := abi.JSON(strings.NewReader(unlockABI))
	if nil != err {
		return nil, err
	}
	return &unlockEncoder{contract: contract}, nil
}

func (u *unlockEncoder) pack(proof *EffectProof, wei *uint256.Int) ([]byte, error) {
	if !common.IsHexAddress(proof.Recipient) || !common.IsHexAddress(proof.Token) {
		return nil, fault.ErrInvalidAddress
	}
	stateCommitment, err := toBytes32(proof.StateCommitment)
	if nil != err {
		return nil, err
	}
	nullifier, err := toBytes32(proof.Nullifier)
	if nil != err {
		return nil, err
	}

	return u.contract.Pack(UnlockMethod, unlockProof{
		StateCommitment: stateCommitment,
		Nullifier:       nullifier,
		Recipient:       common.HexToAddress(proof.Recipient),
		Token:           common.HexToAddress(proof.Token),
		Amount:          wei.ToBig(),
		ZkProof:         common.FromHex(proof.ZkProof),
	})
}

// hex with or without 0x, exactly 32 bytes
func toBytes32(s string) ([32]byte, error) {
	var result [32]byte
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if nil != err || len(b) != len(result) {
		return result, fault.ErrInvalidHex32
	}
	copy(result[:], b)
	return result, nil
}
