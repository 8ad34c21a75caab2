// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - the persisted state of the ledger
//
// A single LevelDB database holds three pools distinguished by a one
// byte key prefix:
//
//   S ++ height(8 BE)  -> state commitment record
//   N ++ nullifier     -> nullifier record
//   C ++ commitment    -> note record
//
// All three are append only. The content of submitted transactions is
// never written.
package storage

//go:generate mockgen -destination=mocks/handle.go -package=mocks github.com/bitmark-inc/ephemerald/storage Handle
