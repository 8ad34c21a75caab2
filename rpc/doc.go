// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpc - the JSON HTTP API and the state stream
//
//   GET    /api/state          current head and counts
//   POST   /api/transaction    submit a transfer
//   POST   /api/balance        balance of an address
//   GET    /api/txpool         pending transfers, addresses truncated
//   DELETE /api/cleanup        purge processed transfers (?olderThan=ms)
//   POST   /api/effect-proof   proof for a bridge withdrawal
//   GET    /api/stream         websocket, one state object per block
//   GET    /health             liveness
package rpc
