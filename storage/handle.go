// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/provenanced/fault"
)

// PoolHandle - a prefixed table in one database
type PoolHandle struct {
	prefix   byte
	limit    []byte
	database *leveldb.DB
}

// Element - a binary data item
type Element struct {
	Key   []byte
	Value []byte
}

// prepend the prefix onto the key
func (p *PoolHandle) prefixKey(key []byte) []byte {
	prefixedKey := make([]byte, 1, len(key)+1)
	prefixedKey[0] = p.prefix
	return append(prefixedKey, key...)
}

// Put - store a key/value bytes pair to the database
func (p *PoolHandle) Put(key []byte, value []byte) error {
	return p.database.Put(p.prefixKey(key), value, nil)
}

// PutN - store a uint64 as an 8 byte big endian value
func (p *PoolHandle) PutN(key []byte, value uint64) error {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, value)
	return p.Put(key, buffer)
}

// Delete - remove a key from the database
func (p *PoolHandle) Delete(key []byte) error {
	return p.database.Delete(p.prefixKey(key), nil)
}

// Get - read a value for a given key
//
// returns nil data and no error if the key is absent
func (p *PoolHandle) Get(key []byte) ([]byte, error) {
	value, err := p.database.Get(p.prefixKey(key), nil)
	if leveldb.ErrNotFound == err {
		return nil, nil
	}
	return value, err
}

// GetN - read a record and decode first 8 bytes as big endian uint64
//
// second parameter is false if record was not found
func (p *PoolHandle) GetN(key []byte) (uint64, bool, error) {
	buffer, err := p.Get(key)
	if nil != err || nil == buffer {
		return 0, false, err
	}
	if len(buffer) < 8 {
		return 0, false, fault.ErrInvalidRecord
	}
	return binary.BigEndian.Uint64(buffer[:8]), true, nil
}

// Has - check if a key exists
func (p *PoolHandle) Has(key []byte) (bool, error) {
	return p.database.Has(p.prefixKey(key), nil)
}

// Each - visit every element of the pool in key order
//
// the element data is only valid during the callback
func (p *PoolHandle) Each(fn func(Element) error) error {
	iter := p.database.NewIterator(&ldb_util.Range{
		Start: []byte{p.prefix},
		Limit: p.limit,
	}, nil)
	defer iter.Release()

	for iter.Next() {
		e := Element{
			Key:   iter.Key()[1:],
			Value: iter.Value(),
		}
		if err := fn(e); nil != err {
			return err
		}
	}
	return iter.Error()
}

// Count - number of elements in the pool
func (p *PoolHandle) Count() (int, error) {
	n := 0
	err := p.Each(func(Element) error {
		n += 1
		return nil
	})
	return n, err
}
