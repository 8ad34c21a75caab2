// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bitmark-inc/ephemerald/bridge"
	"github.com/bitmark-inc/ephemerald/fault"
	"github.com/bitmark-inc/ephemerald/reservoir"
)

// response messages
const (
	submittedMessage = "Transaction submitted to ephemeral pool"
	cleanupMessage   = "Ephemeral transaction data cleaned up"
	proofMessage     = "Effect proof generated for cross-chain withdrawal"
	nativeCurrency   = "ETH"
)

type stateReply struct {
	CurrentCommitment string `json:"currentCommitment"`
	BlockHeight       uint64 `json:"blockHeight"`
	ActiveNotes       uint64 `json:"activeNotes"`
	NullifierCount    int    `json:"nullifierCount"`
	ProofGenerated    bool   `json:"proofGenerated"`
}

type transactionRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    amount `json:"amount"`
	Asset     string `json:"asset"`
	Signature string `json:"signature"`
}

type transactionReply struct {
	Success       bool   `json:"success"`
	TransactionId string `json:"transactionId"`
	Message       string `json:"message"`
}

type balanceRequest struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"` // accepted, not used
}

type balanceReply struct {
	Address  string  `json:"address"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

type txpoolReply struct {
	Pending      []reservoir.Sanitised `json:"pending"`
	TotalPending int                   `json:"totalPending"`
	Processed    int                   `json:"processed"`
}

type cleanupReply struct {
	Success               bool   `json:"success"`
	DeletedTransactions   int    `json:"deletedTransactions"`
	RemainingTransactions int    `json:"remainingTransactions"`
	Message               string `json:"message"`
}

type effectProofRequest struct {
	Recipient string `json:"recipient"`
	Amount    amount `json:"amount"`
	Token     string `json:"token"`
	Nullifier string `json:"nullifier"`
}

type effectProofReply struct {
	Success bool                `json:"success"`
	Proof   *bridge.EffectProof `json:"proof"`
	Message string              `json:"message"`
}

type healthReply struct {
	Status                 string `json:"status"`
	ChainId                uint64 `json:"chainId"`
	BlockHeight            uint64 `json:"blockHeight"`
	TransactionsInBlackBox int    `json:"transactionsInBlackBox"`
	Version                string `json:"version,omitempty"`
}

// GET /
func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	sendNotFound(w)
}

// GET /api/state
func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	if http.MethodGet != r.Method {
		sendMethodNotAllowed(w)
		return
	}
	info := s.deps.Ledger.Info()
	sendReply(w, stateReply{
		CurrentCommitment: info.Commitment,
		BlockHeight:       info.BlockHeight,
		ActiveNotes:       info.ActiveNotes,
		NullifierCount:    info.NullifierCount,
		ProofGenerated:    true,
	})
}

// POST /api/transaction
func (s *Server) transaction(w http.ResponseWriter, r *http.Request) {
	if http.MethodPost != r.Method {
		sendMethodNotAllowed(w)
		return
	}
	if !s.rateLimit(w, r) {
		return
	}

	var request transactionRequest
	if !s.decode(w, r, &request) {
		return
	}

	value, err := request.Amount.Float()
	if nil != err {
		sendBadRequest(w, err)
		return
	}

	id, err := s.deps.Pool.Submit(request.From, request.To, value, request.Asset, request.Signature)
	if nil != err {
		s.sendFailure(w, err)
		return
	}

	sendReply(w, transactionReply{
		Success:       true,
		TransactionId: id,
		Message:       submittedMessage,
	})
}

// POST /api/balance
func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	if http.MethodPost != r.Method {
		sendMethodNotAllowed(w)
		return
	}
	if !s.rateLimit(w, r) {
		return
	}

	var request balanceRequest
	if !s.decode(w, r, &request) {
		return
	}

	address := strings.TrimSpace(request.Address)
	if "" == address {
		sendBadRequest(w, fault.ErrMissingAddress)
		return
	}

	sendReply(w, balanceReply{
		Address:  address,
		Balance:  s.deps.Ledger.Balance(address),
		Currency: nativeCurrency,
	})
}

// GET /api/txpool
func (s *Server) txpool(w http.ResponseWriter, r *http.Request) {
	if http.MethodGet != r.Method {
		sendMethodNotAllowed(w)
		return
	}

	pending := s.deps.Pool.ListPending()
	_, processed := s.deps.Pool.Counts()
	sendReply(w, txpoolReply{
		Pending:      pending,
		TotalPending: len(pending),
		Processed:    processed,
	})
}

// DELETE /api/cleanup?olderThan=<ms>
func (s *Server) cleanup(w http.ResponseWriter, r *http.Request) {
	if http.MethodDelete != r.Method {
		sendMethodNotAllowed(w)
		return
	}
	if !s.isAllowed("cleanup", r) {
		sendForbidden(w)
		return
	}

	cutoff := s.deps.Now().Add(-s.deps.CleanupWindow).UnixNano() / int64(time.Millisecond)
	if olderThan := strings.TrimSpace(r.URL.Query().Get("olderThan")); "" != olderThan {
		ms, err := strconv.ParseInt(olderThan, 10, 64)
		if nil != err || ms < 0 {
			sendBadRequest(w, fault.ErrInvalidCutoff)
			return
		}
		cutoff = ms
	}

	deleted, remaining := s.deps.Sweeper.SweepBefore(cutoff)
	sendReply(w, cleanupReply{
		Success:               true,
		DeletedTransactions:   deleted,
		RemainingTransactions: remaining,
		Message:               cleanupMessage,
	})
}

// POST /api/effect-proof
func (s *Server) effectProof(w http.ResponseWriter, r *http.Request) {
	if http.MethodPost != r.Method {
		sendMethodNotAllowed(w)
		return
	}
	if !s.rateLimit(w, r) {
		return
	}

	var request effectProofRequest
	if !s.decode(w, r, &request) {
		return
	}

	value := ""
	if request.Amount.present {
		text, err := request.Amount.Decimal()
		if nil != err {
			sendBadRequest(w, err)
			return
		}
		value = text
	}

	proof, err := s.deps.Prover.Generate(request.Recipient, value, request.Token, request.Nullifier)
	if nil != err {
		s.sendFailure(w, err)
		return
	}

	sendReply(w, effectProofReply{
		Success: true,
		Proof:   proof,
		Message: proofMessage,
	})
}

// GET /health
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if http.MethodGet != r.Method {
		sendMethodNotAllowed(w)
		return
	}
	sendReply(w, healthReply{
		Status:                 "healthy",
		ChainId:                s.deps.ChainId,
		BlockHeight:            s.deps.Ledger.Info().BlockHeight,
		TransactionsInBlackBox: s.deps.Pool.Size(),
		Version:                s.deps.Version,
	})
}

// GET /api/stream
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	if http.MethodGet != r.Method {
		sendMethodNotAllowed(w)
		return
	}
	if nil == s.deps.Stream {
		sendNotFound(w)
		return
	}
	s.deps.Stream.ServeWs(w, r)
}

// false if a reply has already been sent
func (s *Server) rateLimit(w http.ResponseWriter, r *http.Request) bool {
	if err := s.limiter.Limit(clientAddress(r)); nil != err {
		s.log.Warnf("rate limit: %q", r.RemoteAddr)
		sendTooManyRequests(w)
		return false
	}
	return true
}

// false if a reply has already been sent
func (s *Server) decode(w http.ResponseWriter, r *http.Request, request interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maximumBodySize)
	if err := json.NewDecoder(r.Body).Decode(request); nil != err {
		s.log.Debugf("decode: %s", err)
		if fault.IsErrValidation(err) {
			sendBadRequest(w, err)
		} else {
			sendBadRequest(w, fault.ErrInvalidRequestBody)
		}
		return false
	}
	return true
}

// client errors are 400, everything else is internal
func (s *Server) sendFailure(w http.ResponseWriter, err error) {
	switch {
	case fault.IsErrValidation(err), fault.IsErrInvalidNullifier(err):
		sendBadRequest(w, err)
	default:
		s.log.Errorf("request failed: %s", err)
		sendInternalServerError(w)
	}
}
