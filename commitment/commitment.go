// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package commitment

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// RandomnessSize - bytes of blinding randomness in a note
	RandomnessSize = 16

	hexPrefix   = "0x"
	genesisSeed = "genesis"
)

// Commit - hide a value and recipient behind a note commitment
func Commit(value float64, recipient string, randomness string) string {
	text := FormatValue(value) + ":" + recipient + ":" + randomness
	digest := sha256.Sum256([]byte(text))
	return hex.EncodeToString(digest[:])
}

// Nullify - derive the spend marker of a commitment from a secret
func Nullify(secret string, commitment string) string {
	digest := sha256.Sum256([]byte(secret + ":" + commitment))
	return hex.EncodeToString(digest[:])
}

// Genesis - the head of an empty chain
func Genesis() string {
	digest := sha256.Sum256([]byte(genesisSeed))
	return hexPrefix + hex.EncodeToString(digest[:])
}

// the JSON form hashed into a state digest
//
// field order is significant
type stateForm struct {
	Notes       []string `json:"notes"`
	Nullifiers  []string `json:"nullifiers"`
	BlockHeight uint64   `json:"blockHeight"`
}

// StateDigest - digest of the complete ledger state
//
// notes and nullifiers must be given in insertion order
func StateDigest(notes []string, nullifiers []string, blockHeight uint64) string {
	if nil == notes {
		notes = []string{}
	}
	if nil == nullifiers {
		nullifiers = []string{}
	}
	form := stateForm{
		Notes:       notes,
		Nullifiers:  nullifiers,
		BlockHeight: blockHeight,
	}

	// cannot fail: only strings and an integer
	buffer, _ := json.Marshal(form)
	digest := sha256.Sum256(buffer)
	return hexPrefix + hex.EncodeToString(digest[:])
}

// ProofDigest - Keccak-256 of the JSON encoding of a statement
func ProofDigest(statement interface{}) (string, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(statement); nil != err {
		return "", err
	}

	// drop the newline written by Encode
	digest := Keccak256(bytes.TrimSuffix(buffer.Bytes(), []byte{'\n'}))
	return hexPrefix + hex.EncodeToString(digest[:]), nil
}

// Keccak256 - legacy Keccak as used by the EVM
func Keccak256(data []byte) [32]byte {
	var digest [32]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	h.Sum(digest[:0])
	return digest
}

// Randomness - fresh blinding value as hex, rand == nil means crypto/rand
func Randomness(random io.Reader) (string, error) {
	if nil == random {
		random = rand.Reader
	}
	buffer := make([]byte, RandomnessSize)
	if _, err := io.ReadFull(random, buffer); nil != err {
		return "", err
	}
	return hex.EncodeToString(buffer), nil
}

// FormatValue - shortest text of a value in ECMAScript Number form:
// 5, 2.5, 0.000001 but 5e-7 and 1e+21 outside [1e-6, 1e21)
func FormatValue(value float64) string {
	switch {
	case 0 == value:
		return "0" // includes negative zero
	case math.IsNaN(value):
		return "NaN"
	case math.IsInf(value, 1):
		return "Infinity"
	case math.IsInf(value, -1):
		return "-Infinity"
	}

	magnitude := math.Abs(value)
	if magnitude >= 1e-6 && magnitude < 1e21 {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}

	// Go pads the exponent to two digits: 1e-07
	text := strconv.FormatFloat(value, 'e', -1, 64)
	e := strings.IndexByte(text, 'e')
	mantissa, sign, digits := text[:e], text[e+1:e+2], strings.TrimLeft(text[e+2:], "0")
	return mantissa + "e" + sign + digits
}
