// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ephemerald/background"
	"github.com/bitmark-inc/ephemerald/bridge"
	"github.com/bitmark-inc/ephemerald/chain"
	"github.com/bitmark-inc/ephemerald/ledger"
	"github.com/bitmark-inc/ephemerald/reservoir"
	"github.com/bitmark-inc/ephemerald/rpc"
	"github.com/bitmark-inc/ephemerald/scheduler"
	"github.com/bitmark-inc/ephemerald/storage"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

const shutdownTimeout = 5 * time.Second

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
		{Long: "memory-stats", HasArg: getoptions.NO_ARGUMENT, Short: 'm'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration and
	// process data needed for initial setup
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// start a profiling http server
	// this uses the default builtin HTTP handler
	// and is not associated with the API server
	if "" != theConfiguration.ProfileHTTP {
		go func() {
			log.Warnf("profile listener on: %s", theConfiguration.ProfileHTTP)
			err := http.ListenAndServe(theConfiguration.ProfileHTTP, nil)
			exitwithstatus.Message("profile error: %s", err)
		}()
	}

	// general info
	chainId := chain.Id(theConfiguration.Chain)
	log.Infof("chain: %s  id: %d", theConfiguration.Chain, chainId)
	log.Debugf("%s = %#v", "ClientRPC", theConfiguration.ClientRPC)
	log.Debugf("%s = %#v", "Timing", theConfiguration.timing)

	// start the data storage
	databaseName := theConfiguration.Database.Name
	if theConfiguration.Database.InMemory {
		databaseName = ""
		log.Warn("database: in memory, the ledger will not survive a restart")
	} else {
		log.Infof("database: %q", databaseName)
	}

	log.Info("initialise storage")
	db, err := storage.Open(databaseName)
	if nil != err {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}
	defer db.Close()

	// these commands are allowed to access the internal database
	if len(arguments) > 0 && processDataCommand(arguments, db) {
		return
	}

	// rebuild the ledger before anything can submit
	log.Info("restore ledger")
	snapshot, err := db.Load()
	if nil != err {
		log.Criticalf("ledger load error: %s", err)
		exitwithstatus.Message("ledger load error: %s", err)
	}
	state := ledger.New()
	err = state.Restore(snapshot)
	if nil != err {
		log.Criticalf("ledger restore error: %s", err)
		exitwithstatus.Message("ledger restore error: %s", err)
	}
	info := state.Info()
	log.Infof("commitment: %s  height: %d  notes: %d", info.Commitment, info.BlockHeight, info.ActiveNotes)

	timing := theConfiguration.timing

	queue := scheduler.New(timing.ProcessingDelay, nil)
	pool := reservoir.New(queue, nil)
	processor := ledger.NewProcessor(state, pool, db, nil)

	generator, err := bridge.New(state)
	if nil != err {
		log.Criticalf("bridge initialise error: %s", err)
		exitwithstatus.Message("bridge initialise error: %s", err)
	}

	stream := rpc.NewStream(state)
	processor.AddObserver(stream)

	sweeper := reservoir.NewSweeper(pool, timing.SweepInterval, timing.SweepWindow)

	services := background.Processes{stream, sweeper}
	if len(options["memory-stats"]) > 0 {
		services = append(services, &memoryStats{log: logger.New("memory")})
	}
	support := background.Start(services, nil)
	defer support.Stop()

	// the single writer
	worker := background.Start(background.Processes{queue}, processor)
	defer worker.Stop()

	// start up the API
	server, err := rpc.New(&theConfiguration.ClientRPC, rpc.Dependencies{
		Ledger:        state,
		Pool:          pool,
		Sweeper:       sweeper,
		Prover:        generator,
		Stream:        stream,
		ChainId:       chainId,
		Version:       version,
		CleanupWindow: timing.CleanupWindow,
	})
	if nil != err {
		log.Criticalf("rpc initialise error: %s", err)
		exitwithstatus.Message("rpc initialise error: %s", err)
	}
	if err := server.Start(); nil != err {
		log.Criticalf("rpc start error: %s", err)
		exitwithstatus.Message("rpc start error: %s", err)
	}

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); nil != err {
		log.Errorf("rpc shutdown error: %s", err)
	}
}
