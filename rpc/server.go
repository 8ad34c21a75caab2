// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/cors"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ephemerald/bridge"
	"github.com/bitmark-inc/ephemerald/counter"
	"github.com/bitmark-inc/ephemerald/fault"
	"github.com/bitmark-inc/ephemerald/ledger"
	"github.com/bitmark-inc/ephemerald/reservoir"
	"github.com/bitmark-inc/ephemerald/rpc/ratelimit"
)

const (
	logName            = "http_rpc"
	minConnectionCount = 1
	readWriteTimeout   = 10 * time.Second
	maximumBodySize    = 64 * 1024
)

// Configuration - configuration file data for the API listener
type Configuration struct {
	MaximumConnections uint64              `gluamapper:"maximum_connections" json:"maximum_connections"`
	Listen             []string            `gluamapper:"listen" json:"listen"`
	Certificate        string              `gluamapper:"certificate" json:"certificate"`
	PrivateKey         string              `gluamapper:"private_key" json:"private_key"`
	RequestsPerSecond  float64             `gluamapper:"requests_per_second" json:"requests_per_second"`
	Burst              int                 `gluamapper:"burst" json:"burst"`
	AllowedOrigins     []string            `gluamapper:"allowed_origins" json:"allowed_origins"`
	Allow              map[string][]string `gluamapper:"allow" json:"allow"`
}

// Ledger - read access to the committed state
type Ledger interface {
	Info() ledger.Info
	Balance(address string) float64
}

// Pool - the intake queue
type Pool interface {
	Submit(from string, to string, amount float64, asset string, signature string) (string, error)
	ListPending() []reservoir.Sanitised
	Counts() (int, int)
	Size() int
}

// Sweeper - on-demand retention cleanup
type Sweeper interface {
	SweepBefore(olderThan int64) (int, int)
}

// Prover - builds effect proofs
type Prover interface {
	Generate(recipient string, amount string, token string, nullifier string) (*bridge.EffectProof, error)
}

// Dependencies - the components served by the API
type Dependencies struct {
	Ledger        Ledger
	Pool          Pool
	Sweeper       Sweeper
	Prover        Prover
	Stream        *Stream // nil disables /api/stream
	ChainId       uint64
	Version       string
	CleanupWindow time.Duration    // default age for DELETE /api/cleanup
	Now           func() time.Time // nil uses the system clock
}

// Server - the HTTP API
type Server struct {
	sync.Mutex

	log         *logger.L
	deps        Dependencies
	limiter     *ratelimit.Clients
	allow       map[string][]*net.IPNet
	listen      []string
	tlsConfig   *tls.Config
	maximum     uint64
	connections counter.Counter
	handler     http.Handler
	servers     []*http.Server
}

// New - create the server, nothing is bound until Start
func New(configuration *Configuration, deps Dependencies) (*Server, error) {

	log := logger.New(logName)

	if configuration.MaximumConnections < minConnectionCount {
		log.Errorf("invalid maximum connection limit: %d", configuration.MaximumConnections)
		return nil, fault.ErrMissingParameters
	}
	if nil == deps.Ledger || nil == deps.Pool || nil == deps.Sweeper || nil == deps.Prover {
		return nil, fault.ErrMissingParameters
	}
	if nil == deps.Now {
		deps.Now = time.Now
	}
	if deps.CleanupWindow <= 0 {
		deps.CleanupWindow = reservoir.DefaultCleanupWindow
	}

	// access control lists, keyed by the path element after /api/
	allow := make(map[string][]*net.IPNet)
	for path, addresses := range configuration.Allow {
		set := make([]*net.IPNet, len(addresses))
		for i, ip := range addresses {
			_, cidr, err := net.ParseCIDR(strings.TrimSpace(ip))
			if nil != err {
				log.Errorf("allow: %q  cidr: %q  error: %s", path, ip, err)
				return nil, err
			}
			set[i] = cidr
		}
		allow[path] = set
	}

	// change "*:PORT" to "[::]:PORT"
	// on the assumption that this will listen on tcp4 and tcp6
	listen := make([]string, 0, len(configuration.Listen))
	for _, address := range configuration.Listen {
		host, port, err := net.SplitHostPort(strings.TrimSpace(address))
		if nil != err || "" == port {
			log.Errorf("listen: %q  is not HOST:PORT", address)
			return nil, fault.ErrInvalidListenAddress
		}
		if "*" == host {
			host = "::"
		}
		listen = append(listen, net.JoinHostPort(host, port))
	}

	s := &Server{
		log:     log,
		deps:    deps,
		limiter: ratelimit.New(configuration.RequestsPerSecond, configuration.Burst),
		allow:   allow,
		listen:  listen,
		maximum: configuration.MaximumConnections,
	}

	if "" != configuration.Certificate && "" != configuration.PrivateKey {
		keyPair, err := tls.LoadX509KeyPair(configuration.Certificate, configuration.PrivateKey)
		if nil != err {
			log.Errorf("certificate: %q  error: %s", configuration.Certificate, err)
			return nil, err
		}
		s.tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{keyPair},
			NextProtos:   []string{"http/1.1"},
			MinVersion:   tls.VersionTLS12,
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", s.state)
	mux.HandleFunc("/api/transaction", s.transaction)
	mux.HandleFunc("/api/balance", s.balance)
	mux.HandleFunc("/api/txpool", s.txpool)
	mux.HandleFunc("/api/cleanup", s.cleanup)
	mux.HandleFunc("/api/effect-proof", s.effectProof)
	mux.HandleFunc("/api/stream", s.stream)
	mux.HandleFunc("/health", s.health)
	mux.HandleFunc("/", s.root)

	origins := configuration.AllowedOrigins
	if 0 == len(origins) {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	s.handler = s.limitConnections(c.Handler(mux))

	return s, nil
}

// Handler - the complete request handler, for embedding or testing
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start - bind every listen address and serve in the background
func (s *Server) Start() error {
	s.Lock()
	defer s.Unlock()

	if 0 == len(s.listen) {
		s.log.Info("no listen addresses: API disabled")
		return nil
	}

	for _, listen := range s.listen {
		s.log.Infof("starting server: %s on: %q  tls: %t", logName, listen, nil != s.tlsConfig)

		ln, err := net.Listen("tcp", listen)
		if nil != err {
			s.log.Errorf("listen: %q  error: %s", listen, err)
			return err
		}
		if nil != s.tlsConfig {
			ln = tls.NewListener(ln, s.tlsConfig)
		}

		server := &http.Server{
			Addr:           listen,
			Handler:        s.handler,
			ReadTimeout:    readWriteTimeout,
			WriteTimeout:   readWriteTimeout,
			MaxHeaderBytes: 1 << 20,
		}
		s.servers = append(s.servers, server)

		go func(addr string) {
			err := server.Serve(ln)
			if nil != err && http.ErrServerClosed != err {
				s.log.Errorf("serve: %q  error: %s", addr, err)
			}
		}(listen)
	}
	return nil
}

// Shutdown - stop accepting and wait for active requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	s.log.Info("shutting down…")

	var first error
	for _, server := range s.servers {
		if err := server.Shutdown(ctx); nil != err && nil == first {
			first = err
		}
	}
	s.servers = nil
	return first
}

// reject requests beyond the configured number in flight
func (s *Server) limitConnections(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.connections.Increment() > s.maximum {
			s.connections.Decrement()
			s.log.Warnf("connection limit reached: %q", r.RemoteAddr)
			sendServiceUnavailable(w)
			return
		}
		defer s.connections.Decrement()
		next.ServeHTTP(w, r)
	})
}

// the host part of the remote address
func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if nil != err {
		return r.RemoteAddr
	}
	return host
}

// true if the path has no access list or the client is in it
func (s *Server) isAllowed(path string, r *http.Request) bool {
	set, ok := s.allow[path]
	if !ok {
		return true
	}
	ip := net.ParseIP(clientAddress(r))
	if nil == ip {
		return false
	}
	for _, cidr := range set {
		if cidr.Contains(ip) {
			return true
		}
	}
	s.log.Warnf("Deny access: %q  path: %q", r.RemoteAddr, path)
	return false
}
