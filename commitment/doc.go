// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package commitment - the one-way functions of the ledger
//
// Commitments and nullifiers are SHA-256 over a colon separated text
// form and are returned as plain hex.  State digests are SHA-256 over
// a JSON object and carry a "0x" prefix.  Proof digests are
// Keccak-256 over a JSON statement so a bridge contract can recompute
// them.
package commitment
