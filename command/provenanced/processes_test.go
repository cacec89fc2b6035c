// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/provenanced/background"
	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/fixtures"
	"github.com/bitmark-inc/provenanced/ledger"
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

func testLedger(t *testing.T, registry prometheus.Registerer) (*ledger.Ledger, *fixtures.Keys) {
	db, err := storage.OpenMemory()
	require.Nil(t, err)
	t.Cleanup(db.Close)

	keys := fixtures.NewKeys()
	tiers := tiered.Tiers{
		Index:   index.New(db.IndexTier),
		Object:  object.NewMemory(),
		Content: content.New(dssync.MutexWrap(datastore.NewMapDatastore()), ""),
	}
	l, err := ledger.New(ledger.Parameters{
		Database:    db,
		Oracle:      keys.Keyring,
		SystemKeys:  keys.Keyring,
		Algorithm:   signature.Ed25519,
		Coordinator: tiered.New(tiers, db.Descriptors, tiered.NewMetrics(registry)),
		Policy:      tiered.Policy{Tiers: tier.All(), Timeout: time.Second},
		Registerer:  registry,
	})
	require.Nil(t, err)
	return l, keys
}

func TestMiningJob(t *testing.T) {
	l, keys := testLedger(t, nil)
	ctx := context.Background()
	job := miningJob(l)

	_, err := l.AddTransaction(transactionrecord.RegistrationTag, map[string]interface{}{"name": "a"}, keys.UserHandle, keys.UserPublic)
	require.Nil(t, err)

	// no chain yet
	assert.Equal(t, fault.ErrUninitialisedChain, job(ctx))

	_, err = l.CreateGenesisBlock(ctx)
	require.Nil(t, err)
	require.Nil(t, job(ctx))

	// empty pool is quietly skipped
	assert.Nil(t, job(ctx))

	stats, err := l.GetStats()
	require.Nil(t, err)
	assert.Equal(t, uint64(2), stats.TotalBlocks)
	assert.Equal(t, uint64(0), stats.PendingCount)
}

func TestPeriodicMiner(t *testing.T) {
	l, keys := testLedger(t, nil)
	ctx := context.Background()
	_, err := l.CreateGenesisBlock(ctx)
	require.Nil(t, err)
	_, err = l.AddTransaction(transactionrecord.RegistrationTag, map[string]interface{}{"name": "a"}, keys.UserHandle, keys.UserPublic)
	require.Nil(t, err)

	miner := background.NewPeriodic("miner", 0, miningJob(l))
	bg := background.Start(background.Processes{miner}, nil)
	defer bg.Stop()

	miner.Trigger()
	assert.Eventually(t, func() bool {
		stats, err := l.GetStats()
		return nil == err && 2 == stats.TotalBlocks
	}, 5*time.Second, 10*time.Millisecond)
}

func TestMetricsServer(t *testing.T) {
	registry := prometheus.NewRegistry()
	l, _ := testLedger(t, registry)
	_, err := l.CreateGenesisBlock(context.Background())
	require.Nil(t, err)

	// reserve a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err)
	address := listener.Addr().String()
	listener.Close()

	server := newMetricsServer(address, registry)
	bg := background.Start(background.Processes{server}, nil)

	var body string
	assert.Eventually(t, func() bool {
		response, err := http.Get("http://" + address + "/metrics")
		if nil != err {
			return false
		}
		defer response.Body.Close()
		data, err := io.ReadAll(response.Body)
		body = string(data)
		return nil == err && http.StatusOK == response.StatusCode
	}, 5*time.Second, 20*time.Millisecond)

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(strings.NewReader(body))
	require.Nil(t, err)

	height, ok := families["provenance_ledger_latest_block_number"]
	require.True(t, ok)
	require.Len(t, height.GetMetric(), 1)
	assert.Equal(t, 0.0, height.GetMetric()[0].GetGauge().GetValue())

	writes, ok := families["provenance_tiered_writes_total"]
	require.True(t, ok)
	total := 0.0
	for _, m := range writes.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	assert.Equal(t, 3.0, total, "genesis written to every tier")

	bg.Stop()
	_, err = http.Get("http://" + address + "/metrics")
	assert.NotNil(t, err)
}
