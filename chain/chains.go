// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain - names of the chains a bridge can settle on
package chain

// names of all chains
const (
	Ethereum = "ethereum"
	Testing  = "testing"
	Local    = "local"
)

// numeric chain ids, matched to the names above
var chainIds = map[string]uint64{
	Ethereum: 1,
	Testing:  11155111,
	Local:    31337,
}

// Valid - validate a chain name
func Valid(name string) bool {
	_, ok := chainIds[name]
	return ok
}

// Id - numeric id of a chain, 0 if the name is not valid
func Id(name string) uint64 {
	return chainIds[name]
}
