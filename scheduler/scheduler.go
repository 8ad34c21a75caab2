// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package scheduler - run transaction processing after a fixed delay
//
// Tasks are held in due order and executed one at a time, so the
// handler is the only writer of ledger state.  RunDue lets a caller
// drive time explicitly; Run is the background loop used by the
// daemon.
package scheduler

import (
	"container/heap"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
)

// DefaultDelay - block time: gap between submission and processing
const DefaultDelay = time.Second

// Handler - processes one transaction
type Handler interface {
	Process(txId string) error
}

// Queue - pending processing tasks ordered by due time
type Queue struct {
	sync.Mutex
	log      *logger.L
	delay    time.Duration
	now      func() time.Time
	tasks    taskHeap
	sequence uint64
	wake     chan struct{}
}

// New - create an empty queue
//
// delay < 0 selects DefaultDelay, now == nil uses the system clock
func New(delay time.Duration, now func() time.Time) *Queue {
	if delay < 0 {
		delay = DefaultDelay
	}
	if nil == now {
		now = time.Now
	}
	return &Queue{
		log:   logger.New("scheduler"),
		delay: delay,
		now:   now,
		tasks: make(taskHeap, 0, 16),
		wake:  make(chan struct{}, 1),
	}
}

// Schedule - queue a transaction to be processed after the delay
//
// never blocks
func (q *Queue) Schedule(txId string) {
	q.Lock()
	q.sequence += 1
	heap.Push(&q.tasks, &task{
		txId:     txId,
		due:      q.now().Add(q.delay),
		sequence: q.sequence,
	})
	q.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len - number of tasks not yet run
func (q *Queue) Len() int {
	q.Lock()
	defer q.Unlock()
	return len(q.tasks)
}

// RunDue - run every task due at or before now, in due order, on the
// calling goroutine; returns the number run
func (q *Queue) RunDue(now time.Time, handler Handler) int {
	n := 0
	for {
		q.Lock()
		if 0 == len(q.tasks) || q.tasks[0].due.After(now) {
			q.Unlock()
			return n
		}
		t := heap.Pop(&q.tasks).(*task)
		q.Unlock()

		// failures are reported by the handler, nothing is retried
		if err := handler.Process(t.txId); nil != err {
			q.log.Debugf("task: %s  error: %s", t.txId, err)
		}
		n += 1
	}
}

// time of the earliest task
func (q *Queue) next() (time.Time, bool) {
	q.Lock()
	defer q.Unlock()
	if 0 == len(q.tasks) {
		return time.Time{}, false
	}
	return q.tasks[0].due, true
}

// Run - background process, args must be the Handler
func (q *Queue) Run(args interface{}, shutdown <-chan struct{}) {
	handler := args.(Handler)

	log := q.log
	log.Infof("starting… delay: %s", q.delay)

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

loop:
	for {
		wait := time.Hour
		if due, ok := q.next(); ok {
			wait = due.Sub(q.now())
		}
		if wait <= 0 {
			q.RunDue(q.now(), handler)
			continue loop
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-shutdown:
			break loop
		case <-q.wake:
		case <-timer.C:
			q.RunDue(q.now(), handler)
		}
	}

	log.Infof("shutting down… %d tasks dropped", q.Len())
	log.Flush()
}

type task struct {
	txId     string
	due      time.Time
	sequence uint64
}

// min-heap on due time, ties in scheduling order
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].sequence < h[j].sequence
	}
	return h[i].due.Before(h[j].due)
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x interface{}) {
	*h = append(*h, x.(*task))
}

func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
