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
	"github.com/bitmark-inc/provenanced/tiered"
	"github.com/bitmark-inc/provenanced/verifier"
)

// GetBlock - a block by number with its current storage descriptor
func (l *Ledger) GetBlock(ctx context.Context, number uint64) (*blockrecord.Block, error) {
	latest, _, ok := l.Latest()
	if !ok || number > latest {
		return nil, fault.ErrBlockNotFound
	}

	// packed form is cached so every caller decodes its own copy
	cacheKey := strconv.FormatUint(number, 10)
	if cached, found := l.blocks.Get(cacheKey); found {
		return l.unpackWithDescriptor(cached.([]byte))
	}

	packed, from, err := l.coordinator.RetrieveValid(ctx, blockrecord.Key(number), l.policy, BlockValidator(number))
	if fault.ErrObjectNotFound == err {
		l.log.Errorf("block: %d  not found in any tier", number)
		return nil, fault.ErrBlockNotFound
	}
	if nil != err {
		return nil, err
	}
	l.log.Debugf("block: %d  read from: %s", number, from)

	b, err := l.unpackWithDescriptor(packed)
	if nil != err {
		return nil, err
	}
	l.blocks.Set(cacheKey, packed, cache.DefaultExpiration)
	return b, nil
}

// GetLatestBlock - the most recently mined block
func (l *Ledger) GetLatestBlock(ctx context.Context) (*blockrecord.Block, error) {
	number, _, ok := l.Latest()
	if !ok {
		return nil, fault.ErrUninitialisedChain
	}
	return l.GetBlock(ctx, number)
}

// VerifyBlock - run every block check, failures are logged
func (l *Ledger) VerifyBlock(b *blockrecord.Block, options verifier.Options) bool {
	return l.verifier.VerifyBlock(b, options)
}

// decode a block and attach its latest descriptor
func (l *Ledger) unpackWithDescriptor(packed []byte) (*blockrecord.Block, error) {
	b, err := blockrecord.Unpack(packed)
	if nil != err {
		return nil, err
	}
	d, err := l.coordinator.Descriptor(b.Key())
	if nil != err {
		if fault.ErrDescriptorNotFound != err {
			l.log.Warnf("block: %d  descriptor error: %s", b.Number, err)
		}
		return b, nil
	}
	b.Descriptor = d
	return b, nil
}

// BlockValidator - accept a stored copy that decodes to the expected
// block number with a self consistent hash
//
// signatures are not checked; full verification is the job of the
// verification engine
func BlockValidator(number uint64) tiered.Validator {
	return func(packed []byte) error {
		b, err := blockrecord.Unpack(packed)
		if nil != err {
			return err
		}
		if number != b.Number {
			return fault.ErrWrongBlockSequence
		}
		if b.ComputeHash() != b.Hash && blockrecord.LegacyHeaderHash(b.Number, b.PreviousHash, b.MerkleRoot, b.Timestamp) != b.Hash {
			return fault.ErrInvalidDigest
		}
		return nil
	}
}
