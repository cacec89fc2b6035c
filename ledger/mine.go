// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"context"
	"strconv"

	"github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/provenanced/blockrecord"
	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/reservoir"
	"github.com/bitmark-inc/provenanced/storage"
	"github.com/bitmark-inc/provenanced/tier"
	"github.com/bitmark-inc/provenanced/transactionrecord"
	"github.com/bitmark-inc/provenanced/verifier"
)

// MineBlock - turn the pending pool into the next block
//
// waits for any other mining operation to finish first
func (l *Ledger) MineBlock(ctx context.Context) (*blockrecord.Block, error) {
	l.miningLock.Lock()
	defer l.miningLock.Unlock()
	return l.mine(ctx)
}

// TryMineBlock - as MineBlock but fails with fault.ErrMiningInProgress
// instead of waiting
func (l *Ledger) TryMineBlock(ctx context.Context) (*blockrecord.Block, error) {
	if !l.miningLock.TryLock() {
		return nil, fault.ErrMiningInProgress
	}
	defer l.miningLock.Unlock()
	return l.mine(ctx)
}

// must hold miningLock
//
// the pool is only changed after the block is stored in every
// required tier; any earlier failure leaves the pool untouched
func (l *Ledger) mine(ctx context.Context) (*blockrecord.Block, error) {
	if err := ctx.Err(); nil != err {
		return nil, err
	}

	items, err := l.pool.Snapshot()
	if nil != err {
		return nil, err
	}
	if 0 == len(items) {
		return nil, fault.ErrEmptyPool
	}

	number, previousHash, ok := l.Latest()
	if !ok {
		return nil, fault.ErrUninitialisedChain
	}

	txs := make([]*transactionrecord.Transaction, len(items))
	for i, item := range items {
		txs[i] = item.Transaction
	}

	b := &blockrecord.Block{
		Number:       number + 1,
		Timestamp:    l.millis(),
		PreviousHash: previousHash,
		Transactions: txs,
	}
	if err := l.seal(b); nil != err {
		l.metrics.miningFailed.Inc()
		return nil, err
	}

	// tier writes are not interrupted by the caller
	if err := l.persist(context.WithoutCancel(ctx), b); nil != err {
		l.metrics.miningFailed.Inc()
		l.log.Errorf("mine: block: %d  not persisted, pool unchanged: %s", b.Number, err)
		return nil, err
	}

	batch := l.db.NewBatch()
	batch.Put(l.db.State, latestBlockKey, packLatest(b.Number, b.Hash))
	for _, tx := range txs {
		batch.PutN(l.db.TxIndex, []byte(tx.Id), b.Number)
	}
	if err := l.commit(batch, items, b); nil != err {
		return nil, err
	}

	l.metrics.mined.Inc()
	if n, err := l.pool.Count(); nil == err {
		l.metrics.pending.Set(float64(n))
	}
	l.log.Infof("mined block: %d  hash: %s  transactions: %d", b.Number, b.Hash, len(txs))
	return b, nil
}

// apply the pointer, index and pool changes in one batch then move
// the in-memory pointer
func (l *Ledger) commit(batch *storage.Batch, items []*reservoir.Item, b *blockrecord.Block) error {
	l.Lock()
	defer l.Unlock()

	if err := l.pool.Commit(batch, items); nil != err {
		// block is stored but unreferenced, a retry mines the same number again
		l.log.Criticalf("commit: block: %d  error: %s", b.Number, err)
		return err
	}

	l.setLatest(b.Number, b.Hash)
	if packed, err := b.Pack(); nil == err {
		l.blocks.Set(strconv.FormatUint(b.Number, 10), packed, cache.DefaultExpiration)
	}
	return nil
}

// fill in root and hash, sign, then check the result
func (l *Ledger) seal(b *blockrecord.Block) error {
	system, err := l.keys.Current()
	if nil != err {
		return err
	}
	if nil != b.Genesis {
		b.Genesis.PublicKey = system.PublicKey
		b.Genesis.KeyVersion = system.Version
	}

	b.MerkleRoot = b.ComputeMerkleRoot()
	b.Hash = b.ComputeHash()

	payload, err := b.SigningPayload()
	if nil != err {
		return err
	}
	s, err := l.oracle.Sign(payload, system.Handle)
	if nil != err {
		return err
	}
	b.BlockSignature = blockrecord.Signature{
		PublicKey:  system.PublicKey,
		Signature:  s,
		KeyVersion: system.Version,
	}

	return l.verifier.CheckBlock(b, verifier.Options{})
}

// store the packed block in every policy tier
func (l *Ledger) persist(ctx context.Context, b *blockrecord.Block) error {
	packed, err := b.Pack()
	if nil != err {
		return err
	}
	metadata := map[string]string{
		tier.MetaBlockNumber: strconv.FormatUint(b.Number, 10),
		tier.MetaHash:        b.Hash,
	}
	result, err := l.coordinator.Store(ctx, b.Key(), packed, metadata, l.policy)
	if nil != err {
		return err
	}
	b.Descriptor = result.Descriptor
	return nil
}

// CreateGenesisBlock - create block 0 holding the system key material
func (l *Ledger) CreateGenesisBlock(ctx context.Context) (*blockrecord.Block, error) {
	l.miningLock.Lock()
	defer l.miningLock.Unlock()

	if _, _, ok := l.Latest(); ok {
		return nil, fault.ErrGenesisAlreadyExists
	}

	// the ledger database may be new while the tiers still hold a chain
	_, source, err := l.coordinator.Retrieve(ctx, blockrecord.Key(blockrecord.GenesisNumber), l.policy)
	if nil == err {
		l.log.Warnf("genesis: block 0 already stored in tier: %s", source)
		return nil, fault.ErrGenesisAlreadyExists
	}
	if fault.ErrObjectNotFound != err {
		return nil, err
	}

	b := &blockrecord.Block{
		Number:       blockrecord.GenesisNumber,
		Timestamp:    l.millis(),
		PreviousHash: blockrecord.GenesisPreviousHash,
		Transactions: []*transactionrecord.Transaction{},
		Genesis: &blockrecord.GenesisData{
			Algorithm: l.algorithm,
		},
	}
	if err := l.seal(b); nil != err {
		return nil, err
	}

	if err := l.persist(context.WithoutCancel(ctx), b); nil != err {
		l.log.Errorf("genesis: not persisted: %s", err)
		return nil, err
	}

	batch := l.db.NewBatch()
	batch.Put(l.db.State, latestBlockKey, packLatest(b.Number, b.Hash))
	if err := l.commit(batch, nil, b); nil != err {
		return nil, err
	}

	l.log.Infof("genesis block: %s  key version: %d", b.Hash, b.BlockSignature.KeyVersion)
	return b, nil
}
