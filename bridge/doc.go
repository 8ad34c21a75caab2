// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bridge - effect proofs for the lock and release contract
//
// An effect proof binds a spent nullifier and a withdrawal (recipient,
// token, amount in wei) to the current ledger head.  When the
// addresses are well formed the proof also carries the ABI encoded
// unlockAsset call for the contract.
package bridge
