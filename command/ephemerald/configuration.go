// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ephemerald/chain"
	"github.com/bitmark-inc/ephemerald/configuration"
	"github.com/bitmark-inc/ephemerald/fault"
	"github.com/bitmark-inc/ephemerald/reservoir"
	"github.com/bitmark-inc/ephemerald/rpc"
	"github.com/bitmark-inc/ephemerald/scheduler"
	"github.com/bitmark-inc/ephemerald/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultKeyFile         = "rpc.key"
	defaultCertificateFile = "rpc.crt"

	defaultLevelDBDirectory = "data"
	defaultEthereumDatabase = chain.Ethereum + ".leveldb"
	defaultTestingDatabase  = chain.Testing + ".leveldb"
	defaultLocalDatabase    = chain.Local + ".leveldb"

	defaultLogDirectory = "log"
	defaultLogFile      = "ephemerald.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultRPCClients        = 100
	defaultRequestsPerSecond = 20
	defaultBurst             = 40
)

// LoglevelMap - to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

// DatabaseType - where the derived ledger is kept
type DatabaseType struct {
	Directory string `gluamapper:"directory" json:"directory"`
	Name      string `gluamapper:"name" json:"name"`
	InMemory  bool   `gluamapper:"in_memory" json:"in_memory"`
}

// TimingType - durations in time.ParseDuration format
type TimingType struct {
	ProcessingDelay string `gluamapper:"processing_delay" json:"processing_delay"`
	SweepInterval   string `gluamapper:"sweep_interval" json:"sweep_interval"`
	SweepWindow     string `gluamapper:"sweep_window" json:"sweep_window"`
	CleanupWindow   string `gluamapper:"cleanup_window" json:"cleanup_window"`
}

// Timing - parsed form of TimingType
type Timing struct {
	ProcessingDelay time.Duration
	SweepInterval   time.Duration
	SweepWindow     time.Duration
	CleanupWindow   time.Duration
}

// Configuration - the whole configuration file
type Configuration struct {
	DataDirectory string       `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string       `gluamapper:"pidfile" json:"pidfile"`
	Chain         string       `gluamapper:"chain" json:"chain"`
	ProfileHTTP   string       `gluamapper:"profile_http" json:"profile_http"`
	Database      DatabaseType `gluamapper:"database" json:"database"`
	Timing        TimingType   `gluamapper:"timing" json:"timing"`

	ClientRPC rpc.Configuration    `gluamapper:"client_rpc" json:"client_rpc"`
	Logging   logger.Configuration `gluamapper:"logging" json:"logging"`

	timing Timing
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default
		Chain:         chain.Local,

		Database: DatabaseType{
			Directory: defaultLevelDBDirectory,
			Name:      defaultEthereumDatabase,
		},

		Timing: TimingType{
			ProcessingDelay: scheduler.DefaultDelay.String(),
			SweepInterval:   reservoir.DefaultSweepInterval.String(),
			SweepWindow:     reservoir.DefaultSweepWindow.String(),
			CleanupWindow:   reservoir.DefaultCleanupWindow.String(),
		},

		ClientRPC: rpc.Configuration{
			MaximumConnections: defaultRPCClients,
			RequestsPerSecond:  defaultRequestsPerSecond,
			Burst:              defaultBurst,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	// abort if the chain name is not recognised
	options.Chain = strings.ToLower(options.Chain)
	if !chain.Valid(options.Chain) {
		return nil, fault.ErrInvalidChain
	}

	// if database was not changed from default
	if options.Database.Name == defaultEthereumDatabase {
		switch options.Chain {
		case chain.Ethereum:
			// already correct default
		case chain.Testing:
			options.Database.Name = defaultTestingDatabase
		case chain.Local:
			options.Database.Name = defaultLocalDatabase
		default:
			return nil, fmt.Errorf("Chain: %s no default database setting", options.Chain)
		}
	}

	timing, err := options.Timing.parse()
	if nil != err {
		return nil, err
	}
	options.timing = timing

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("Path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("Path: %q is not a directory", options.DataDirectory)
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.Database.Directory,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = util.EnsureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
		&options.ClientRPC.Certificate,
		&options.ClientRPC.PrivateKey,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if any of these are not simple file names, then add the
	// directory prefix if one is paired with it
	mustNotBePaths := [][2]*string{
		{&options.Logging.File, nil},
	}
	if !options.Database.InMemory {
		mustNotBePaths = append(mustNotBePaths, [2]*string{&options.Database.Name, &options.Database.Directory})
	}
	for _, f := range mustNotBePaths {
		if !util.IsPlainName(*f[0]) {
			return nil, fmt.Errorf("Files: %q is not plain name", *f[0])
		}
		if nil != f[1] {
			*f[0] = util.EnsureAbsolute(*f[1], *f[0])
		}
	}

	// create directories if they do not already exist
	directories := []*string{
		&options.Logging.Directory,
	}
	if !options.Database.InMemory {
		directories = append(directories, &options.Database.Directory)
	}
	for _, d := range directories {
		if err := os.MkdirAll(*d, 0700); nil != err {
			return nil, err
		}
	}

	// done
	return options, nil
}

// blank fields take the defaults
func (t TimingType) parse() (Timing, error) {
	timing := Timing{
		ProcessingDelay: scheduler.DefaultDelay,
		SweepInterval:   reservoir.DefaultSweepInterval,
		SweepWindow:     reservoir.DefaultSweepWindow,
		CleanupWindow:   reservoir.DefaultCleanupWindow,
	}

	fields := []struct {
		name     string
		text     string
		value    *time.Duration
		positive bool
	}{
		{"processing_delay", t.ProcessingDelay, &timing.ProcessingDelay, false},
		{"sweep_interval", t.SweepInterval, &timing.SweepInterval, true},
		{"sweep_window", t.SweepWindow, &timing.SweepWindow, true},
		{"cleanup_window", t.CleanupWindow, &timing.CleanupWindow, true},
	}
	for _, f := range fields {
		if "" == strings.TrimSpace(f.text) {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(f.text))
		if nil != err {
			return Timing{}, fmt.Errorf("timing: %s: %s", f.name, err)
		}
		if d < 0 || (f.positive && 0 == d) {
			return Timing{}, fmt.Errorf("timing: %s: %q is out of range", f.name, f.text)
		}
		*f.value = d
	}
	return timing, nil
}
