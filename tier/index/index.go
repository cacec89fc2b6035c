// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package index

import (
	"context"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/storage"
	"github.com/bitmark-inc/provenanced/tier"
)

// Store - index tier held in a local leveldb pool
type Store struct {
	log  *logger.L
	pool *storage.PoolHandle
}

var _ tier.IndexStore = (*Store)(nil)

// New - index tier over an existing pool
func New(pool *storage.PoolHandle) *Store {
	return &Store{
		log:  logger.New("index"),
		pool: pool,
	}
}

// Get - read a value
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); nil != err {
		return nil, err
	}
	value, err := s.pool.Get([]byte(key))
	if nil != err {
		s.log.Errorf("get: %q  error: %s", key, err)
		return nil, err
	}
	if nil == value {
		return nil, fault.ErrObjectNotFound
	}
	return value, nil
}

// Put - write a value
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); nil != err {
		return err
	}
	err := s.pool.Put([]byte(key), value)
	if nil != err {
		s.log.Errorf("put: %q  error: %s", key, err)
	}
	return err
}
