// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package maintenance_test

import (
	"context"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/provenanced/blockrecord"
	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/fixtures"
	"github.com/bitmark-inc/provenanced/ledger"
	"github.com/bitmark-inc/provenanced/maintenance"
	"github.com/bitmark-inc/provenanced/signature"
	"github.com/bitmark-inc/provenanced/storage"
	"github.com/bitmark-inc/provenanced/tier"
	"github.com/bitmark-inc/provenanced/tier/content"
	"github.com/bitmark-inc/provenanced/tier/index"
	"github.com/bitmark-inc/provenanced/tier/object"
	"github.com/bitmark-inc/provenanced/tiered"
	"github.com/bitmark-inc/provenanced/transactionrecord"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

var reportPolicy = tiered.Policy{
	Tiers:   maintenance.ReportTiers(),
	Timeout: time.Second,
}

type fixture struct {
	db      *storage.DB
	keys    *fixtures.Keys
	tiers   tiered.Tiers
	content datastore.Datastore
	ledger  *ledger.Ledger
	walker  *maintenance.Walker
	blocks  []*blockrecord.Block
}

// chain of genesis plus mined blocks, each holding the given number of transactions
func setup(t *testing.T, txCounts ...int) *fixture {
	db, err := storage.OpenMemory()
	require.Nil(t, err)
	t.Cleanup(db.Close)

	f := &fixture{
		db:      db,
		keys:    fixtures.NewKeys(),
		content: dssync.MutexWrap(datastore.NewMapDatastore()),
	}
	f.tiers = tiered.Tiers{
		Index:   index.New(db.IndexTier),
		Object:  object.NewMemory(),
		Content: content.New(f.content, ""),
	}
	c := tiered.New(f.tiers, db.Descriptors, nil)
	c.SetRetry(0, time.Millisecond)

	f.ledger, err = ledger.New(ledger.Parameters{
		Database:    db,
		Oracle:      f.keys.Keyring,
		SystemKeys:  f.keys.Keyring,
		Algorithm:   signature.Ed25519,
		Coordinator: c,
		Policy: tiered.Policy{
			Tiers:   tier.All(),
			Timeout: time.Second,
		},
	})
	require.Nil(t, err)
	clock := int64(fixtures.Timestamp)
	f.ledger.SetClock(func() time.Time {
		return time.Unix(0, atomic.AddInt64(&clock, 1000)*int64(time.Millisecond))
	})

	f.walker = maintenance.NewWalker(f.ledger, db, reportPolicy, 0, nil)

	ctx := context.Background()
	if 0 == len(txCounts) {
		return f
	}
	genesis, err := f.ledger.CreateGenesisBlock(ctx)
	require.Nil(t, err)
	f.blocks = append(f.blocks, genesis)

	for _, n := range txCounts {
		for i := 0; i < n; i += 1 {
			_, err := f.ledger.AddTransaction(transactionrecord.DocumentRecordTag, map[string]interface{}{
				"documentHash": "abc",
				"index":        i,
			}, f.keys.UserHandle, f.keys.UserPublic)
			require.Nil(t, err)
		}
		b, err := f.ledger.MineBlock(ctx)
		require.Nil(t, err)
		f.blocks = append(f.blocks, b)
	}
	return f
}

// overwrite every stored copy of a block with garbage
func (f *fixture) destroy(t *testing.T, b *blockrecord.Block) {
	ctx := context.Background()
	garbage := []byte("not a block")
	require.Nil(t, f.tiers.Index.Put(ctx, b.Key(), garbage))
	require.Nil(t, f.tiers.Object.Put(ctx, b.Key(), garbage, nil))

	packed, err := b.Pack()
	require.Nil(t, err)
	address, err := content.Address(packed)
	require.Nil(t, err)
	require.Nil(t, f.content.Put(ctx, datastore.NewKey(address), garbage))
}

func TestUninitialisedChain(t *testing.T) {
	f := setup(t)
	_, err := f.walker.Run(context.Background(), maintenance.Options{})
	assert.Equal(t, fault.ErrUninitialisedChain, err)

	_, err = f.walker.LatestReport(context.Background())
	assert.Equal(t, fault.ErrReportNotFound, err)
}

func TestHealthyChain(t *testing.T) {
	f := setup(t, 2, 3)
	ctx := context.Background()

	report, err := f.walker.Run(ctx, maintenance.Options{})
	require.Nil(t, err)
	assert.True(t, report.Complete)
	assert.Equal(t, 3, report.Verified)
	assert.Equal(t, 0, report.Repaired)
	assert.Equal(t, 0, report.Errors)
	assert.Equal(t, 5, report.IndexedTransactions)
	assert.Equal(t, uint64(2), report.LastBlock)
	assert.Equal(t, uint64(3), report.NextBlock)
	require.Len(t, report.Blocks, 3)
	for i, detail := range report.Blocks {
		assert.Equal(t, uint64(i), detail.Number)
		assert.Equal(t, maintenance.StatusVerified, detail.Status)
	}

	stored, err := f.walker.LatestReport(ctx)
	require.Nil(t, err)
	assert.Equal(t, report, stored)
}

func TestRepairLostCopy(t *testing.T) {
	f := setup(t, 1)
	ctx := context.Background()
	b := f.blocks[1]

	require.Nil(t, f.tiers.Object.Put(ctx, b.Key(), []byte("damaged"), nil))

	report, err := f.walker.Run(ctx, maintenance.Options{})
	require.Nil(t, err)
	assert.Equal(t, 1, report.Verified)
	assert.Equal(t, 1, report.Repaired)
	assert.Equal(t, 0, report.Errors)

	detail := report.Blocks[1]
	assert.Equal(t, maintenance.StatusRepaired, detail.Status)
	assert.Equal(t, tier.Index.String(), detail.Source)
	assert.Equal(t, []tier.Tier{tier.ObjectStore}, detail.Repaired)

	expected, err := b.Pack()
	require.Nil(t, err)
	repaired, metadata, err := f.tiers.Object.Get(ctx, b.Key())
	require.Nil(t, err)
	assert.Equal(t, expected, repaired)
	assert.Equal(t, "1", metadata[tier.MetaBlockNumber])

	// second walk finds nothing to do
	report, err = f.walker.Run(ctx, maintenance.Options{})
	require.Nil(t, err)
	assert.Equal(t, 2, report.Verified)
	assert.Equal(t, 0, report.Repaired)
}

func TestUnrecoverableBlock(t *testing.T) {
	f := setup(t, 1, 1)
	ctx := context.Background()

	f.destroy(t, f.blocks[1])

	report, err := f.walker.Run(ctx, maintenance.Options{})
	require.Nil(t, err)
	assert.True(t, report.Complete)
	assert.Equal(t, 2, report.Verified)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, maintenance.StatusError, report.Blocks[1].Status)
	assert.NotEmpty(t, report.Blocks[1].Error)
	assert.Equal(t, maintenance.StatusVerified, report.Blocks[2].Status)

	// nothing was written over the damaged copies
	damaged, err := f.tiers.Index.Get(ctx, f.blocks[1].Key())
	require.Nil(t, err)
	assert.Equal(t, []byte("not a block"), damaged)
}

func TestCancelledWalkResumes(t *testing.T) {
	f := setup(t, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.walker.Run(ctx, maintenance.Options{})
	assert.Equal(t, context.Canceled, err)
	require.NotNil(t, report)
	assert.False(t, report.Complete)
	assert.Equal(t, uint64(0), report.NextBlock)
	assert.Empty(t, report.Blocks)

	// the partial report is still kept
	stored, err := f.walker.LatestReport(context.Background())
	require.Nil(t, err)
	assert.False(t, stored.Complete)

	report, err = f.walker.Run(context.Background(), maintenance.Options{FromBlock: 1})
	require.Nil(t, err)
	assert.True(t, report.Complete)
	assert.Equal(t, uint64(1), report.FirstBlock)
	assert.Equal(t, 2, report.Verified)
}

func TestIndexRebuild(t *testing.T) {
	f := setup(t, 2, 1)
	ctx := context.Background()

	ids := append(f.blocks[1].TxIds(), f.blocks[2].TxIds()...)
	for _, id := range ids {
		require.Nil(t, f.db.TxIndex.Delete([]byte(id)))
	}
	_, err := f.ledger.GetTransaction(ctx, ids[0])
	assert.Equal(t, fault.ErrTransactionNotFound, err)

	report, err := f.walker.Run(ctx, maintenance.Options{})
	require.Nil(t, err)
	assert.Equal(t, 3, report.IndexedTransactions)

	for i, id := range ids {
		n, found, err := f.db.TxIndex.GetN([]byte(id))
		require.Nil(t, err)
		assert.True(t, found)
		expected := uint64(1)
		if i == 2 {
			expected = 2
		}
		assert.Equal(t, expected, n)
	}

	info, err := f.ledger.GetTransaction(ctx, ids[0])
	require.Nil(t, err)
	assert.True(t, info.Confirmed)
}

func TestStaleIndexEntriesRemoved(t *testing.T) {
	f := setup(t, 2, 1)
	ctx := context.Background()

	require.Nil(t, f.db.TxIndex.PutN([]byte("not-in-block-1"), 1))
	require.Nil(t, f.db.TxIndex.PutN([]byte("beyond-latest"), 99))
	require.Nil(t, f.db.TxIndex.Put([]byte("short-value"), []byte{1}))

	// a partial walk leaves entries for blocks it did not read
	report, err := f.walker.Run(ctx, maintenance.Options{FromBlock: 2})
	require.Nil(t, err)
	assert.Equal(t, 1, report.StaleIndexEntries)
	found, err := f.db.TxIndex.Has([]byte("not-in-block-1"))
	require.Nil(t, err)
	assert.True(t, found)

	report, err = f.walker.Run(ctx, maintenance.Options{})
	require.Nil(t, err)
	assert.Equal(t, 1, report.StaleIndexEntries)

	for _, id := range []string{"not-in-block-1", "short-value"} {
		found, err := f.db.TxIndex.Has([]byte(id))
		require.Nil(t, err)
		assert.False(t, found, "id: %s", id)
	}
	found, err = f.db.TxIndex.Has([]byte("beyond-latest"))
	require.Nil(t, err)
	assert.True(t, found)

	_, err = f.ledger.GetTransaction(ctx, "not-in-block-1")
	assert.Equal(t, fault.ErrTransactionNotFound, err)

	// genuine entries survive
	for _, id := range f.blocks[1].TxIds() {
		n, found, err := f.db.TxIndex.GetN([]byte(id))
		require.Nil(t, err)
		assert.True(t, found)
		assert.Equal(t, uint64(1), n)
	}
}

func TestJob(t *testing.T) {
	f := setup(t, 1)
	job := f.walker.Job(maintenance.Options{Relaxed: true})
	require.Nil(t, job(context.Background()))

	stored, err := f.walker.LatestReport(context.Background())
	require.Nil(t, err)
	assert.True(t, stored.Relaxed)
	assert.True(t, stored.Complete)
}

func TestMetrics(t *testing.T) {
	f := setup(t, 1)
	ctx := context.Background()
	require.Nil(t, f.tiers.Object.Put(ctx, f.blocks[1].Key(), []byte("damaged"), nil))

	registry := prometheus.NewRegistry()
	walker := maintenance.NewWalker(f.ledger, f.db, reportPolicy, 1000, registry)
	_, err := walker.Run(ctx, maintenance.Options{})
	require.Nil(t, err)

	expected := `
# HELP provenance_maintenance_blocks_total blocks checked by outcome
# TYPE provenance_maintenance_blocks_total counter
provenance_maintenance_blocks_total{status="repaired"} 1
provenance_maintenance_blocks_total{status="verified"} 1
`
	assert.Nil(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "provenance_maintenance_blocks_total"))

	count, err := testutil.GatherAndCount(registry, "provenance_maintenance_runs_total")
	require.Nil(t, err)
	assert.Equal(t, 1, count)
}
