// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bridge

import (
	"strings"

	"github.com/holiman/uint256"

	"github.com/bitmark-inc/ephemerald/fault"
)

// EtherDecimals - wei per ether is 10^EtherDecimals
const EtherDecimals = 18

// ParseEther - convert a decimal ether amount to wei
func ParseEther(amount string) (*uint256.Int, error) {
	amount = strings.TrimSpace(amount)
	if "" == amount {
		return nil, fault.ErrMissingAmount
	}

	whole, fraction := amount, ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		whole, fraction = amount[:i], amount[i+1:]
	}
	if "" == whole && "" == fraction {
		return nil, fault.ErrAmountIsInvalid
	}
	if !isDigits(whole) || !isDigits(fraction) {
		return nil, fault.ErrAmountIsInvalid
	}

	// trailing zeros carry no value
	fraction = strings.TrimRight(fraction, "0")
	if len(fraction) > EtherDecimals {
		return nil, fault.ErrAmountTooPrecise
	}

	digits := strings.TrimLeft(whole+fraction+strings.Repeat("0", EtherDecimals-len(fraction)), "0")
	if "" == digits {
		return nil, fault.ErrAmountIsInvalid
	}

	wei, err := uint256.FromDecimal(digits)
	if nil != err {
		return nil, fault.ErrAmountIsInvalid
	}
	return wei, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
