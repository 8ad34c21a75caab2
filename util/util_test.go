// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/ephemerald/util"
)

var varint64Tests = []struct {
	value   uint64
	encoded []byte
}{
	{0, []byte{0x00}},
	{127, []byte{0x7f}},
	{128, []byte{0x80, 0x01}},
	{300, []byte{0xac, 0x02}},
	{16384, []byte{0x80, 0x80, 0x01}},
	{0xffffffffffffffff, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
}

func TestVarint64(t *testing.T) {
	for i, item := range varint64Tests {
		encoded := util.ToVarint64(item.value)
		assert.Equal(t, item.encoded, encoded, "%d: wrong encoding", i)

		value, count := util.FromVarint64(append(encoded, 0x55))
		assert.Equal(t, item.value, value, "%d: wrong decoded value", i)
		assert.Equal(t, len(item.encoded), count, "%d: wrong byte count", i)
	}
}

func TestVarint64Truncated(t *testing.T) {
	for i, buffer := range [][]byte{{}, {0x80}, {0xff, 0xff}} {
		value, count := util.FromVarint64(buffer)
		assert.Equal(t, uint64(0), value, "%d: truncated value", i)
		assert.Equal(t, 0, count, "%d: truncated count", i)
	}
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/data/x.db", util.EnsureAbsolute("/data", "x.db"), "relative not joined")
	assert.Equal(t, "/other/x.db", util.EnsureAbsolute("/data", "/other/x.db"), "absolute was changed")

	assert.True(t, util.IsPlainName("ledger.leveldb"), "plain name rejected")
	assert.False(t, util.IsPlainName("dir/ledger.leveldb"), "path accepted as plain name")

	name := filepath.Join(os.TempDir(), "ephemerald-util-test")
	_ = os.Remove(name)
	assert.False(t, util.EnsureFileExists(name), "file should not exist")
	f, err := os.Create(name)
	assert.Nil(t, err, "create failed")
	f.Close()
	defer os.Remove(name)
	assert.True(t, util.EnsureFileExists(name), "file should exist")
}
