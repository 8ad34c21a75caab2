// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type InvalidNullifierError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type ValidationError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised           = ExistsError("already initialised")
	ErrAmountIsInvalid              = ValidationError("amount is invalid")
	ErrAmountTooPrecise             = ValidationError("amount has more than 18 decimal places")
	ErrCannotDecodeRecord           = ProcessError("cannot decode record")
	ErrCertificateFileAlreadyExists = ExistsError("certificate file already exists")
	ErrCommitmentMismatch           = ProcessError("restored state commitment does not match stored head")
	ErrDuplicateCommitment          = ExistsError("note commitment already exists")
	ErrDuplicateNullifier           = ExistsError("nullifier already spent")
	ErrFieldTooLong                 = ValidationError("field is too long")
	ErrInvalidAddress               = InvalidError("invalid address")
	ErrInvalidChain                 = InvalidError("invalid chain")
	ErrInvalidCutoff                = ValidationError("olderThan is invalid")
	ErrInvalidHex32                 = InvalidError("invalid 32 byte hex value")
	ErrInvalidListenAddress         = InvalidError("invalid listen address")
	ErrInvalidNullifier             = InvalidNullifierError("Invalid nullifier")
	ErrInvalidRequestBody           = ValidationError("invalid request body")
	ErrKeyFileAlreadyExists         = ExistsError("key file already exists")
	ErrMissingAddress               = ValidationError("Missing required fields: address")
	ErrMissingAmount                = ValidationError("Missing required fields: amount")
	ErrMissingFrom                  = ValidationError("Missing required fields: from")
	ErrMissingNullifier             = ValidationError("Missing required fields: nullifier")
	ErrMissingParameters            = InvalidError("missing parameters")
	ErrMissingRecipient             = ValidationError("Missing required fields: recipient")
	ErrMissingSignature             = ValidationError("Missing required fields: signature")
	ErrMissingTo                    = ValidationError("Missing required fields: to")
	ErrNotInitialised               = NotFoundError("not initialised")
	ErrPersistenceFailed            = ProcessError("persisting state failed")
	ErrRateLimiting                 = InvalidError("rate limiting")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string           { return string(e) }
func (e InvalidError) Error() string          { return string(e) }
func (e InvalidNullifierError) Error() string { return string(e) }
func (e NotFoundError) Error() string         { return string(e) }
func (e ProcessError) Error() string          { return string(e) }
func (e ValidationError) Error() string       { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool           { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool          { _, ok := e.(InvalidError); return ok }
func IsErrInvalidNullifier(e error) bool { _, ok := e.(InvalidNullifierError); return ok }
func IsErrNotFound(e error) bool         { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool          { _, ok := e.(ProcessError); return ok }
func IsErrValidation(e error) bool       { _, ok := e.(ValidationError); return ok }
