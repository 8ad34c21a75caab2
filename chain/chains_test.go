// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/ephemerald/chain"
)

func TestChains(t *testing.T) {
	assert.True(t, chain.Valid(chain.Local), "local not valid")
	assert.True(t, chain.Valid(chain.Testing), "testing not valid")
	assert.True(t, chain.Valid(chain.Ethereum), "ethereum not valid")
	assert.False(t, chain.Valid("bitcoin"), "unknown chain valid")

	assert.Equal(t, uint64(31337), chain.Id(chain.Local), "wrong local id")
	assert.Equal(t, uint64(1), chain.Id(chain.Ethereum), "wrong ethereum id")
	assert.Equal(t, uint64(0), chain.Id("bitcoin"), "unknown chain has id")
}
