// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package reservoir

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/storage"
	"github.com/bitmark-inc/provenanced/transactionrecord"
)

// keys in the state pool
var (
	pendingCountKey = []byte("pending-count")
	nextSequenceKey = []byte("next-sequence")
)

// Item - a pending transaction and its insertion sequence
type Item struct {
	Sequence    uint64
	Transaction *transactionrecord.Transaction
}

// Reservoir - durable pool of transactions waiting to be mined
type Reservoir struct {
	sync.Mutex

	log *logger.L
	db  *storage.DB
}

// New - pool over an opened database
func New(db *storage.DB) *Reservoir {
	return &Reservoir{
		log: logger.New("reservoir"),
		db:  db,
	}
}

// Store - add a transaction to the pool
//
// fails if the id is already pending or already confirmed
func (r *Reservoir) Store(tx *transactionrecord.Transaction) error {
	packed, err := tx.Pack()
	if nil != err {
		return err
	}
	id := []byte(tx.Id)

	r.Lock()
	defer r.Unlock()

	for _, pool := range []*storage.PoolHandle{r.db.Pending, r.db.TxIndex} {
		found, err := pool.Has(id)
		if nil != err {
			return err
		}
		if found {
			return fault.ErrTransactionAlreadyExists
		}
	}

	sequence, _, err := r.db.State.GetN(nextSequenceKey)
	if nil != err {
		return err
	}
	count, _, err := r.db.State.GetN(pendingCountKey)
	if nil != err {
		return err
	}

	record := make([]byte, 8, 8+len(packed))
	binary.BigEndian.PutUint64(record, sequence)
	record = append(record, packed...)

	batch := r.db.NewBatch()
	batch.Put(r.db.Pending, id, record)
	batch.PutN(r.db.State, nextSequenceKey, sequence+1)
	batch.PutN(r.db.State, pendingCountKey, count+1)
	if err := batch.Commit(); nil != err {
		r.log.Errorf("store: %s  error: %s", tx.Id, err)
		return err
	}

	r.log.Debugf("stored: %s  sequence: %d", tx.Id, sequence)
	return nil
}

// Count - number of pending transactions
func (r *Reservoir) Count() (uint64, error) {
	n, _, err := r.db.State.GetN(pendingCountKey)
	return n, err
}

// Get - a pending transaction by id
func (r *Reservoir) Get(id string) (*transactionrecord.Transaction, error) {
	record, err := r.db.Pending.Get([]byte(id))
	if nil != err {
		return nil, err
	}
	if nil == record {
		return nil, fault.ErrTransactionNotFound
	}
	item, err := unpackItem(record)
	if nil != err {
		return nil, err
	}
	return item.Transaction, nil
}

// Snapshot - all pending transactions in insertion order, ties by id
func (r *Reservoir) Snapshot() ([]*Item, error) {
	items := []*Item{}
	err := r.db.Pending.Each(func(e storage.Element) error {
		item, err := unpackItem(e.Value)
		if nil != err {
			r.log.Errorf("pending: %q  error: %s", e.Key, err)
			return err
		}
		items = append(items, item)
		return nil
	})
	if nil != err {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Sequence != items[j].Sequence {
			return items[i].Sequence < items[j].Sequence
		}
		return items[i].Transaction.Id < items[j].Transaction.Id
	})
	return items, nil
}

// Commit - remove mined items and apply the rest of the batch atomically
//
// the pending count is recomputed from the entries that remain
func (r *Reservoir) Commit(batch *storage.Batch, mined []*Item) error {
	r.Lock()
	defer r.Unlock()

	n, err := r.db.Pending.Count()
	if nil != err {
		return err
	}

	removed := 0
	for _, item := range mined {
		id := []byte(item.Transaction.Id)
		found, err := r.db.Pending.Has(id)
		if nil != err {
			return err
		}
		if found {
			removed += 1
		}
		batch.Delete(r.db.Pending, id)
	}
	batch.PutN(r.db.State, pendingCountKey, uint64(n-removed))

	if err := batch.Commit(); nil != err {
		r.log.Errorf("commit: %d items  error: %s", len(mined), err)
		return err
	}
	r.log.Infof("removed: %d  remaining: %d", removed, n-removed)
	return nil
}

func unpackItem(record []byte) (*Item, error) {
	if len(record) < 8 {
		return nil, fault.ErrInvalidRecord
	}
	tx, err := transactionrecord.Unpack(record[8:])
	if nil != err {
		return nil, err
	}
	return &Item{
		Sequence:    binary.BigEndian.Uint64(record[:8]),
		Transaction: tx,
	}, nil
}
