// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ledger - notes, nullifiers and the state commitment chain
//
// State holds the in-memory ledger and answers queries.  Processor is
// its only writer: it turns one pending transfer into a recipient
// note, a nullifier and a new chain head, persists those artifacts and
// only then makes them visible.
package ledger
