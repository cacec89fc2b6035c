// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/bitmark-inc/provenanced/fault"
)

// Batch - a set of writes applied atomically by Commit
type Batch struct {
	database *leveldb.DB
	batch    *leveldb.Batch
	err      error
}

// Put - add a write to the batch
func (b *Batch) Put(p *PoolHandle, key []byte, value []byte) {
	if p.database != b.database {
		b.err = fault.ErrCrossDatabaseBatch
		return
	}
	b.batch.Put(p.prefixKey(key), value)
}

// PutN - add a uint64 write to the batch
func (b *Batch) PutN(p *PoolHandle, key []byte, value uint64) {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, value)
	b.Put(p, key, buffer)
}

// Delete - add a delete to the batch
func (b *Batch) Delete(p *PoolHandle, key []byte) {
	if p.database != b.database {
		b.err = fault.ErrCrossDatabaseBatch
		return
	}
	b.batch.Delete(p.prefixKey(key))
}

// Len - number of operations in the batch
func (b *Batch) Len() int {
	return b.batch.Len()
}

// Commit - write all operations or none
func (b *Batch) Commit() error {
	if nil != b.err {
		return b.err
	}
	return b.database.Write(b.batch, &ldb_opt.WriteOptions{Sync: true})
}
