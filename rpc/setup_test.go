// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/ephemerald/background"
	"github.com/bitmark-inc/ephemerald/bridge"
	"github.com/bitmark-inc/ephemerald/fixtures"
	"github.com/bitmark-inc/ephemerald/ledger"
	"github.com/bitmark-inc/ephemerald/reservoir"
	"github.com/bitmark-inc/ephemerald/rpc"
	"github.com/bitmark-inc/ephemerald/scheduler"
	"github.com/bitmark-inc/ephemerald/storage"
)

const testChainId = 31337

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	result := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(result)
}

type environment struct {
	db        *storage.Database
	state     *ledger.State
	queue     *scheduler.Queue
	pool      *reservoir.Reservoir
	processor *ledger.Processor
	stream    *rpc.Stream
	processes *background.T
	server    *httptest.Server
}

func defaultConfiguration() *rpc.Configuration {
	return &rpc.Configuration{
		MaximumConnections: 20,
	}
}

func setup(t *testing.T, configuration *rpc.Configuration) *environment {
	db, err := storage.Open("")
	if nil != err {
		t.Fatalf("storage open error: %s", err)
	}

	state := ledger.New()
	queue := scheduler.New(0, nil)
	pool := reservoir.New(queue, nil)
	processor := ledger.NewProcessor(state, pool, db, nil)

	generator, err := bridge.New(state)
	if nil != err {
		t.Fatalf("bridge error: %s", err)
	}

	stream := rpc.NewStream(state)
	processor.AddObserver(stream)

	if nil == configuration {
		configuration = defaultConfiguration()
	}
	s, err := rpc.New(configuration, rpc.Dependencies{
		Ledger:  state,
		Pool:    pool,
		Sweeper: reservoir.NewSweeper(pool, 0, 0),
		Prover:  generator,
		Stream:  stream,
		ChainId: testChainId,
		Version: "test",
	})
	if nil != err {
		t.Fatalf("server error: %s", err)
	}

	return &environment{
		db:        db,
		state:     state,
		queue:     queue,
		pool:      pool,
		processor: processor,
		stream:    stream,
		processes: background.Start(background.Processes{stream}, nil),
		server:    httptest.NewServer(s.Handler()),
	}
}

func (e *environment) teardown() {
	e.server.Close()
	e.processes.Stop()
	_ = e.db.Close()
}

// run everything scheduled so far
func (e *environment) processAll() int {
	return e.queue.RunDue(time.Now().Add(time.Hour), e.processor)
}

func (e *environment) do(t *testing.T, method string, path string, body interface{}) (int, map[string]interface{}) {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if nil != err {
			t.Fatalf("marshal error: %s", err)
		}
		reader = bytes.NewReader(data)
	}

	request, err := http.NewRequest(method, e.server.URL+path, reader)
	if nil != err {
		t.Fatalf("request error: %s", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := e.server.Client().Do(request)
	if nil != err {
		t.Fatalf("%s %s error: %s", method, path, err)
	}
	defer response.Body.Close()

	reply := make(map[string]interface{})
	if err := json.NewDecoder(response.Body).Decode(&reply); nil != err {
		t.Fatalf("%s %s decode error: %s", method, path, err)
	}
	return response.StatusCode, reply
}

func (e *environment) submit(t *testing.T, from string, to string, amount interface{}, signature string) string {
	code, reply := e.do(t, http.MethodPost, "/api/transaction", map[string]interface{}{
		"from":      from,
		"to":        to,
		"amount":    amount,
		"signature": signature,
	})
	if http.StatusOK != code {
		t.Fatalf("submit status: %d  reply: %v", code, reply)
	}
	return reply["transactionId"].(string)
}
