// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/bitmark-inc/ephemerald/fault"
)

// amount - a JSON number or a numeric string
type amount struct {
	present bool
	text    string
}

func (a *amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && '"' == data[0] {
		s := ""
		if err := json.Unmarshal(data, &s); nil != err {
			return err
		}
		a.present = "" != strings.TrimSpace(s)
		a.text = strings.TrimSpace(s)
		return nil
	}

	n := json.Number("")
	if err := json.Unmarshal(data, &n); nil != err {
		return fault.ErrAmountIsInvalid
	}
	a.present = true
	a.text = n.String()
	return nil
}

// value as a float
func (a amount) Float() (float64, error) {
	if !a.present {
		return 0, fault.ErrMissingAmount
	}
	f, err := strconv.ParseFloat(a.text, 64)
	if nil != err {
		return 0, fault.ErrAmountIsInvalid
	}
	return f, nil
}

// value as plain decimal text, exponents expanded
func (a amount) Decimal() (string, error) {
	if !a.present {
		return "", fault.ErrMissingAmount
	}
	if !strings.ContainsAny(a.text, "eE") {
		return a.text, nil
	}
	f, err := a.Float()
	if nil != err {
		return "", err
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}
