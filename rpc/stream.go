// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ephemerald/ledger"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maximumReadSize = 512
	clientQueueSize = 256
	broadcastSize   = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Stream - pushes a state object to websocket clients on every new
// head
type Stream struct {
	log        *logger.L
	ledger     Ledger
	clients    map[*streamClient]struct{}
	register   chan *streamClient
	unregister chan *streamClient
	broadcast  chan []byte
	done       chan struct{}
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewStream - the current state of l is sent to each client on connect
func NewStream(l Ledger) *Stream {
	return &Stream{
		log:        logger.New("stream"),
		ledger:     l,
		clients:    make(map[*streamClient]struct{}),
		register:   make(chan *streamClient),
		unregister: make(chan *streamClient),
		broadcast:  make(chan []byte, broadcastSize),
		done:       make(chan struct{}),
	}
}

// Run - background process owning the client set
func (s *Stream) Run(args interface{}, shutdown <-chan struct{}) {

	log := s.log
	log.Info("starting…")

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case client := <-s.register:
			s.clients[client] = struct{}{}
			log.Debugf("clients: %d", len(s.clients))

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}

		case message := <-s.broadcast:
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					log.Warnf("slow client dropped: %s", client.conn.RemoteAddr())
					delete(s.clients, client)
					close(client.send)
				}
			}
		}
	}

	close(s.done)
	for client := range s.clients {
		close(client.send)
	}

	log.Info("shutting down…")
	log.Flush()
}

// BlockAdded - queue the new state for every client, never blocks
// the processor
func (s *Stream) BlockAdded(info ledger.Info) {
	message, err := encodeState(info)
	if nil != err {
		s.log.Errorf("encode state: %s", err)
		return
	}
	select {
	case s.broadcast <- message:
	default:
		s.log.Warnf("broadcast queue full: height: %d dropped", info.BlockHeight)
	}
}

// ServeWs - upgrade the request and attach the connection
func (s *Stream) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if nil != err {
		s.log.Warnf("upgrade: %q  error: %s", r.RemoteAddr, err)
		return
	}

	client := &streamClient{
		conn: conn,
		send: make(chan []byte, clientQueueSize),
	}

	if message, err := encodeState(s.ledger.Info()); nil == err {
		client.send <- message
	}

	select {
	case s.register <- client:
	case <-s.done:
		_ = conn.Close()
		return
	}

	go s.writePump(client)
	go s.readPump(client)
}

func encodeState(info ledger.Info) ([]byte, error) {
	return json.Marshal(stateReply{
		CurrentCommitment: info.Commitment,
		BlockHeight:       info.BlockHeight,
		ActiveNotes:       info.ActiveNotes,
		NullifierCount:    info.NullifierCount,
		ProofGenerated:    true,
	})
}

// only control frames are expected from the client
func (s *Stream) readPump(c *streamClient) {
	defer func() {
		select {
		case s.unregister <- c:
		case <-s.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maximumReadSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); nil != err {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debugf("read: %s", err)
			}
			return
		}
	}
}

func (s *Stream) writePump(c *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); nil != err {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); nil != err {
				return
			}
		}
	}
}
