// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"testing"

	"github.com/bitmark-inc/ephemerald/fault"
)

var (
	ErrExistsOne     = fault.ExistsError("exists one ")
	ErrExistsTwo     = fault.ExistsError("exists two")
	ErrInvalidOne    = fault.InvalidError("invalid one")
	ErrInvalidTwo    = fault.InvalidError("invalid two")
	ErrNullifierOne  = fault.InvalidNullifierError("nullifier one")
	ErrNotFoundOne   = fault.NotFoundError("not found one")
	ErrNotFoundTwo   = fault.NotFoundError("not found two")
	ErrProcessOne    = fault.ProcessError("process one")
	ErrProcessTwo    = fault.ProcessError("process two")
	ErrValidationOne = fault.ValidationError("validation one")
	ErrValidationTwo = fault.ValidationError("validation two")
)

// test that the error classes do not overlap
func TestClasses(t *testing.T) {
	errorList := []struct {
		err        error
		exists     bool
		invalid    bool
		nullifier  bool
		notFound   bool
		process    bool
		validation bool
	}{
		{ErrExistsOne, true, false, false, false, false, false},
		{ErrExistsTwo, true, false, false, false, false, false},
		{ErrInvalidOne, false, true, false, false, false, false},
		{ErrInvalidTwo, false, true, false, false, false, false},
		{ErrNullifierOne, false, false, true, false, false, false},
		{fault.ErrInvalidNullifier, false, false, true, false, false, false},
		{ErrNotFoundOne, false, false, false, true, false, false},
		{ErrNotFoundTwo, false, false, false, true, false, false},
		{ErrProcessOne, false, false, false, false, true, false},
		{ErrProcessTwo, false, false, false, false, true, false},
		{fault.ErrPersistenceFailed, false, false, false, false, true, false},
		{ErrValidationOne, false, false, false, false, false, true},
		{ErrValidationTwo, false, false, false, false, false, true},
		{fault.ErrMissingFrom, false, false, false, false, false, true},
		{fault.ErrDuplicateNullifier, true, false, false, false, false, false},
	}

	for i, e := range errorList {
		err := e.err
		if fault.IsErrExists(err) != e.exists {
			t.Errorf("%d: expected 'exists' == %v for err = %v", i, e.exists, err)
		}
		if fault.IsErrInvalid(err) != e.invalid {
			t.Errorf("%d: expected 'invalid' == %v for err = %v", i, e.invalid, err)
		}
		if fault.IsErrInvalidNullifier(err) != e.nullifier {
			t.Errorf("%d: expected 'invalid nullifier' == %v for err = %v", i, e.nullifier, err)
		}
		if fault.IsErrNotFound(err) != e.notFound {
			t.Errorf("%d: expected 'not found' == %v for err = %v", i, e.notFound, err)
		}
		if fault.IsErrProcess(err) != e.process {
			t.Errorf("%d: expected 'process' == %v for err = %v", i, e.process, err)
		}
		if fault.IsErrValidation(err) != e.validation {
			t.Errorf("%d: expected 'validation' == %v for err = %v", i, e.validation, err)
		}
	}
}
