// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package index_test

import (
	"context"
	"os"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/storage"
	"github.com/bitmark-inc/provenanced/tier/index"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "index")
	if nil != err {
		panic(err)
	}
	_ = logger.Initialise(logger.Configuration{
		Directory: dir,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	})
	rc := m.Run()
	logger.Finalise()
	os.RemoveAll(dir)
	os.Exit(rc)
}

func TestIndexStore(t *testing.T) {
	db, err := storage.OpenMemory()
	require.Nil(t, err)
	defer db.Close()

	s := index.New(db.IndexTier)
	ctx := context.Background()

	_, err = s.Get(ctx, "blocks/00000000000000000001")
	assert.Equal(t, fault.ErrObjectNotFound, err)

	require.Nil(t, s.Put(ctx, "blocks/00000000000000000001", []byte("block one")))
	value, err := s.Get(ctx, "blocks/00000000000000000001")
	assert.Nil(t, err)
	assert.Equal(t, []byte("block one"), value)

	// the ledger pools do not see tier data
	n, err := db.State.Count()
	assert.Nil(t, err)
	assert.Equal(t, 0, n)
}

func TestIndexStoreCancelled(t *testing.T) {
	db, err := storage.OpenMemory()
	require.Nil(t, err)
	defer db.Close()

	s := index.New(db.IndexTier)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, context.Canceled, s.Put(ctx, "k", []byte("v")))
	_, err = s.Get(ctx, "k")
	assert.Equal(t, context.Canceled, err)
}
