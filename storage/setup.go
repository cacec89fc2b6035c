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

	"github.com/bitmark-inc/logger"
	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_storage "github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/bitmark-inc/provenanced/fault"
)

// Pools - the set of exported pools
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type Pools struct {
	Pending     *PoolHandle `prefix:"P" database:"ledger"`
	State       *PoolHandle `prefix:"S" database:"ledger"`
	TxIndex     *PoolHandle `prefix:"T" database:"ledger"`
	Descriptors *PoolHandle `prefix:"D" database:"ledger"`
	IndexTier   *PoolHandle `prefix:"X" database:"tier"`
}

// DB - handle to the opened databases
type DB struct {
	Pools

	sync.RWMutex
	log      *logger.L
	dbLedger *leveldb.DB
	dbTier   *leveldb.DB
}

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const (
	currentLedgerDBVersion = 0x100
	currentTierDBVersion   = 0x100
)

// pool access modes
const (
	ReadOnly  = true
	ReadWrite = false
)

// Open - open up the database files
//
// creates: <database>-ledger.leveldb and <database>-tier.leveldb
func Open(database string, readOnly bool) (*DB, error) {
	log := logger.New("storage")

	ledger, err := openFile(database+"-ledger.leveldb", readOnly)
	if nil != err {
		return nil, err
	}
	tier, err := openFile(database+"-tier.leveldb", readOnly)
	if nil != err {
		ledger.Close()
		return nil, err
	}
	return setup(log, ledger, tier, readOnly)
}

// OpenMemory - open a pair of in-memory databases, used for testing
func OpenMemory() (*DB, error) {
	log := logger.New("storage")

	ledger, err := leveldb.Open(ldb_storage.NewMemStorage(), nil)
	if nil != err {
		return nil, err
	}
	tier, err := leveldb.Open(ldb_storage.NewMemStorage(), nil)
	if nil != err {
		ledger.Close()
		return nil, err
	}
	return setup(log, ledger, tier, ReadWrite)
}

func openFile(name string, readOnly bool) (*leveldb.DB, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}
	return leveldb.OpenFile(name, opt)
}

// check versions and bind each pool to its database
func setup(log *logger.L, ledger *leveldb.DB, tier *leveldb.DB, readOnly bool) (*DB, error) {
	db := &DB{
		log:      log,
		dbLedger: ledger,
		dbTier:   tier,
	}

	ok := false
	defer func() {
		if !ok {
			db.Close()
		}
	}()

	for _, v := range []struct {
		name    string
		db      *leveldb.DB
		current int
	}{
		{"ledger", ledger, currentLedgerDBVersion},
		{"tier", tier, currentTierDBVersion},
	} {
		version, err := getVersion(v.db)
		if nil != err {
			return nil, err
		}
		switch {
		case 0 == version && !readOnly:
			// database was empty so tag as current version
			if err := putVersion(v.db, v.current); nil != err {
				return nil, err
			}
		case version != v.current:
			log.Criticalf("%s database version: %d  current version: %d", v.name, version, v.current)
			return nil, fault.ErrUnsupportedDatabaseVersion
		}
	}

	// this will be a struct type
	poolType := reflect.TypeOf(db.Pools)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&db.Pools).Elem()

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

		var database *leveldb.DB
		switch dbName := fieldInfo.Tag.Get("database"); dbName {
		case "ledger":
			database = ledger
		case "tier":
			database = tier
		default:
			return nil, fmt.Errorf("pool: %v  has invalid database: %q", fieldInfo, dbName)
		}

		p := &PoolHandle{
			prefix:   prefix,
			limit:    limit,
			database: database,
		}
		poolValue.Field(i).Set(reflect.ValueOf(p))
	}

	ok = true // prevent db close
	return db, nil
}

// Close - close the database connections
func (db *DB) Close() {
	db.Lock()
	defer db.Unlock()

	if nil != db.dbTier {
		db.dbTier.Close()
		db.dbTier = nil
	}
	if nil != db.dbLedger {
		db.dbLedger.Close()
		db.dbLedger = nil
	}
}

// NewBatch - start an atomic set of writes to the ledger database
func (db *DB) NewBatch() *Batch {
	return &Batch{
		database: db.dbLedger,
		batch:    new(leveldb.Batch),
	}
}

// return the version number, zero for an empty database
func getVersion(db *leveldb.DB) (int, error) {
	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return 0, nil
	} else if nil != err {
		return 0, err
	}

	if 4 != len(versionValue) {
		return 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	return int(binary.BigEndian.Uint32(versionValue)), nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	return db.Put(versionKey, currentVersion, nil)
}
