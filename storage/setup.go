// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_storage "github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/bitmark-inc/logger"
)

// storage pools
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	StateCommitments *PoolHandle `prefix:"S"`
	Nullifiers       *PoolHandle `prefix:"N"`
	Notes            *PoolHandle `prefix:"C"`
}

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const (
	currentDBVersion = 0x100
)

// Database - an open ledger database
type Database struct {
	sync.RWMutex
	name string
	db   *leveldb.DB
	Pool pools
}

// Open - open or create the database
//
// an empty name gives a memory only database
func Open(name string) (*Database, error) {

	db, version, err := getDB(name)
	if nil != err {
		return nil, err
	}

	ok := false
	defer func() {
		if !ok {
			db.Close()
		}
	}()

	// ensure no database downgrade
	if version > currentDBVersion {
		logger.Criticalf("database version: %d > current version: %d", version, currentDBVersion)
		return nil, fmt.Errorf("database version: %d > current version: %d", version, currentDBVersion)
	}

	if 0 == version {
		// database was empty so tag as current version
		err = putVersion(db, currentDBVersion)
		if nil != err {
			return nil, err
		}
	}

	d := &Database{
		name: name,
		db:   db,
	}

	// this will be a struct type
	poolType := reflect.TypeOf(d.Pool)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&d.Pool).Elem()

	// scan each field
	for i := 0; i < poolType.NumField(); i += 1 {

		fieldInfo := poolType.Field(i)

		prefixTag := fieldInfo.Tag.Get("prefix")
		if 1 != len(prefixTag) {
			return nil, fmt.Errorf("pool: %v has invalid prefix: %q", fieldInfo, prefixTag)
		}

		prefix := prefixTag[0]
		limit := []byte(nil)
		if prefix < 255 {
			limit = []byte{prefix + 1}
		}

		p := &PoolHandle{
			prefix:   prefix,
			limit:    limit,
			database: d,
		}
		poolValue.Field(i).Set(reflect.ValueOf(p))
	}

	ok = true // prevent db close
	return d, nil
}

// Close - close the database
func (d *Database) Close() error {
	d.Lock()
	defer d.Unlock()

	if nil == d.db {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// Name - file name of the database, blank if in memory
func (d *Database) Name() string {
	return d.name
}

// return:
//   database handle
//   version number
func getDB(name string) (*leveldb.DB, int, error) {
	var db *leveldb.DB
	var err error

	if "" == name {
		db, err = leveldb.Open(ldb_storage.NewMemStorage(), nil)
	} else {
		opt := &ldb_opt.Options{
			ErrorIfExist:   false,
			ErrorIfMissing: false,
		}
		db, err = leveldb.OpenFile(name, opt)
	}
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return db, version, nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	return db.Put(versionKey, currentVersion, nil)
}
