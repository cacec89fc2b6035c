// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tiered_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/golang/mock/gomock"
	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/storage"
	"github.com/bitmark-inc/provenanced/tier"
	"github.com/bitmark-inc/provenanced/tier/content"
	"github.com/bitmark-inc/provenanced/tier/index"
	"github.com/bitmark-inc/provenanced/tier/mocks"
	"github.com/bitmark-inc/provenanced/tier/object"
	"github.com/bitmark-inc/provenanced/tiered"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tiered")
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

const testKey = "blocks/00000000000000000001"

var allTiers = tiered.Policy{
	Tiers:   []tier.Tier{tier.ContentNetwork, tier.Index, tier.ObjectStore},
	Timeout: time.Second,
}

type fixture struct {
	db       *storage.DB
	index    *index.Store
	object   *object.Memory
	content  *content.Network
	registry *prometheus.Registry
	c        *tiered.Coordinator
}

func setup(t *testing.T) *fixture {
	db, err := storage.OpenMemory()
	require.Nil(t, err)
	t.Cleanup(db.Close)

	f := &fixture{
		db:       db,
		index:    index.New(db.IndexTier),
		object:   object.NewMemory(),
		content:  content.New(dssync.MutexWrap(datastore.NewMapDatastore()), "https://gw.example"),
		registry: prometheus.NewRegistry(),
	}
	f.c = tiered.New(tiered.Tiers{
		Index:   f.index,
		Object:  f.object,
		Content: f.content,
	}, db.Descriptors, tiered.NewMetrics(f.registry))
	f.c.SetRetry(1, time.Millisecond)
	return f
}

// value of a counter with the given label
func counter(t *testing.T, registry *prometheus.Registry, name string, label string) float64 {
	families, err := registry.Gather()
	require.Nil(t, err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetValue() == label {
					total += m.GetCounter().GetValue()
				}
			}
			if "" == label {
				total += m.GetCounter().GetValue()
			}
		}
	}
	return total
}

// accept only the expected payload
func exactly(expected []byte) tiered.Validator {
	return func(value []byte) error {
		if !bytes.Equal(expected, value) {
			return fault.ErrInvalidRecord
		}
		return nil
	}
}

func TestStoreAllTiers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.c.Store(ctx, testKey, []byte("block"), map[string]string{tier.MetaBlockNumber: "1"}, allTiers)
	require.Nil(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Failed())
	assert.Equal(t, []tier.Tier{tier.Index, tier.ObjectStore, tier.ContentNetwork}, result.Descriptor.Present())

	d, err := f.c.Descriptor(testKey)
	require.Nil(t, err)
	address := d.Tiers[tier.ContentNetwork].Location
	assert.NotEqual(t, "", address)
	assert.Equal(t, "https://gw.example/ipfs/"+address, d.Tiers[tier.ContentNetwork].Gateway)

	_, meta, err := f.object.Get(ctx, testKey)
	require.Nil(t, err)
	assert.Equal(t, "1", meta[tier.MetaBlockNumber])
	assert.Equal(t, address, meta[tier.MetaContentAddress])

	value, from, err := f.c.Retrieve(ctx, testKey, allTiers)
	assert.Nil(t, err)
	assert.Equal(t, tier.Index, from, "index is read first")
	assert.Equal(t, []byte("block"), value)

	assert.Equal(t, 3.0, counter(t, f.registry, "provenance_tiered_writes_total", "ok"))
}

func TestStorePolicyErrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.c.Store(ctx, testKey, []byte("x"), nil, tiered.Policy{})
	assert.Equal(t, fault.ErrNoTiersInPolicy, err)

	partial := tiered.New(tiered.Tiers{Index: f.index}, f.db.Descriptors, nil)
	_, err = partial.Store(ctx, testKey, []byte("x"), nil, allTiers)
	assert.Equal(t, fault.ErrTierNotConfigured, err)

	_, err = f.c.Descriptor("blocks/none")
	assert.Equal(t, fault.ErrDescriptorNotFound, err)
}

func TestStoreContentTimeoutThenRehydrate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	slow := mocks.NewMockContentBackend(ctl)
	slow.EXPECT().Address(gomock.Any()).DoAndReturn(f.content.Address).AnyTimes()
	slow.EXPECT().Put(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ []byte) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}).Times(1)

	c := tiered.New(tiered.Tiers{
		Index:   f.index,
		Object:  f.object,
		Content: slow,
	}, f.db.Descriptors, nil)

	policy := allTiers
	policy.Timeout = 20 * time.Millisecond

	result, err := c.Store(ctx, testKey, []byte("block"), nil, policy)
	require.NotNil(t, err)
	assert.False(t, result.Success)

	var writeErr *tiered.TierWriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, []tier.Tier{tier.ContentNetwork}, writeErr.Result.Failed())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	// partial descriptor records what did succeed
	d, err := c.Descriptor(testKey)
	require.Nil(t, err)
	assert.Equal(t, []tier.Tier{tier.Index, tier.ObjectStore}, d.Present())

	// repair with a working content network
	repair, err := f.c.Rehydrate(ctx, testKey, allTiers, exactly([]byte("block")))
	require.Nil(t, err)
	assert.Equal(t, tier.Index, repair.Source)
	assert.Equal(t, []tier.Tier{tier.Index, tier.ObjectStore}, repair.Verified)
	assert.Equal(t, []tier.Tier{tier.ContentNetwork}, repair.Repaired)
	assert.Equal(t, []tier.Tier{tier.Index, tier.ObjectStore, tier.ContentNetwork}, repair.Descriptor.Present())

	onlyContent := tiered.Policy{Tiers: []tier.Tier{tier.ContentNetwork}}
	value, from, err := f.c.Retrieve(ctx, testKey, onlyContent)
	assert.Nil(t, err)
	assert.Equal(t, tier.ContentNetwork, from)
	assert.Equal(t, []byte("block"), value)

	assert.Equal(t, 1.0, counter(t, f.registry, "provenance_tiered_repairs_total", "content-network"))
}

func TestRetrieveFallsThrough(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	policy := tiered.Policy{Tiers: []tier.Tier{tier.ObjectStore, tier.ContentNetwork}}
	_, err := f.c.Store(ctx, testKey, []byte("block"), nil, policy)
	require.Nil(t, err)

	// index is empty so the object store answers
	value, from, err := f.c.Retrieve(ctx, testKey, allTiers)
	assert.Nil(t, err)
	assert.Equal(t, tier.ObjectStore, from)
	assert.Equal(t, []byte("block"), value)

	// an invalid object copy is skipped when validating
	require.Nil(t, f.object.Put(ctx, testKey, []byte("tampered"), nil))
	value, from, err = f.c.RetrieveValid(ctx, testKey, allTiers, exactly([]byte("block")))
	assert.Nil(t, err)
	assert.Equal(t, tier.ContentNetwork, from)
	assert.Equal(t, []byte("block"), value)

	_, _, err = f.c.Retrieve(ctx, "blocks/absent", allTiers)
	assert.Equal(t, fault.ErrObjectNotFound, err)
}

func TestRehydrateFromSingleTier(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.c.Store(ctx, testKey, []byte("block"), nil, allTiers)
	require.Nil(t, err)

	// corrupt index and object copies, content stays valid
	require.Nil(t, f.index.Put(ctx, testKey, []byte("corrupt")))
	require.Nil(t, f.object.Put(ctx, testKey, []byte("corrupt"), nil))

	repair, err := f.c.Rehydrate(ctx, testKey, allTiers, exactly([]byte("block")))
	require.Nil(t, err)
	assert.Equal(t, tier.ContentNetwork, repair.Source)
	assert.Equal(t, []tier.Tier{tier.Index, tier.ObjectStore}, repair.Repaired)

	for _, p := range []tier.Tier{tier.Index, tier.ObjectStore, tier.ContentNetwork} {
		value, _, err := f.c.Retrieve(ctx, testKey, tiered.Policy{Tiers: []tier.Tier{p}})
		assert.Nil(t, err, "tier: %s", p)
		assert.Equal(t, []byte("block"), value, "tier: %s", p)
	}

	// object metadata is restored from the descriptor
	_, meta, err := f.object.Get(ctx, testKey)
	require.Nil(t, err)
	assert.Equal(t, repair.Descriptor.Tiers[tier.ContentNetwork].Location, meta[tier.MetaContentAddress])
}

func TestRehydrateRetriesRepairWrite(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.c.Store(ctx, testKey, []byte("block"), nil, tiered.Policy{Tiers: []tier.Tier{tier.Index}})
	require.Nil(t, err)

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	flaky := mocks.NewMockObjectBackend(ctl)
	flaky.EXPECT().Get(gomock.Any(), testKey).Return(nil, nil, fault.ErrObjectNotFound).AnyTimes()
	gomock.InOrder(
		flaky.EXPECT().Put(gomock.Any(), testKey, []byte("block"), gomock.Any()).Return(errors.New("connection reset")).Times(1),
		flaky.EXPECT().Put(gomock.Any(), testKey, []byte("block"), gomock.Any()).Return(nil).Times(1),
	)

	c := tiered.New(tiered.Tiers{
		Index:  f.index,
		Object: flaky,
	}, f.db.Descriptors, nil)

	// zero backoff falls back to the default
	c.SetRetry(1, 0)

	policy := tiered.Policy{Tiers: []tier.Tier{tier.Index, tier.ObjectStore}, Timeout: time.Second}
	repair, err := c.Rehydrate(ctx, testKey, policy, exactly([]byte("block")))
	require.Nil(t, err)
	assert.Equal(t, tier.Index, repair.Source)
	assert.Equal(t, []tier.Tier{tier.ObjectStore}, repair.Repaired)
}

func TestRehydrateUnrecoverable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	policy := tiered.Policy{Tiers: []tier.Tier{tier.Index, tier.ObjectStore}}
	_, err := f.c.Store(ctx, testKey, []byte("corrupt"), nil, policy)
	require.Nil(t, err)

	repair, err := f.c.Rehydrate(ctx, testKey, allTiers, exactly([]byte("block")))
	assert.Nil(t, repair)
	var unrecoverable *tiered.UnrecoverableDataError
	require.True(t, errors.As(err, &unrecoverable))
	assert.Equal(t, testKey, unrecoverable.Key)
	assert.Len(t, unrecoverable.Reasons, 3)

	// nothing fabricated
	value, err := f.index.Get(ctx, testKey)
	assert.Nil(t, err)
	assert.Equal(t, []byte("corrupt"), value)
	assert.Equal(t, 1.0, counter(t, f.registry, "provenance_tiered_unrecoverable_total", ""))
}

func TestEncryptedPolicy(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	key := new([32]byte)
	copy(key[:], bytes.Repeat([]byte{7}, 32))
	policy := tiered.Policy{
		Tiers:         []tier.Tier{tier.Index, tier.ObjectStore},
		EncryptionKey: key,
	}

	_, err := f.c.Store(ctx, "documents/1", []byte("secret"), nil, policy)
	require.Nil(t, err)

	raw, err := f.index.Get(ctx, "documents/1")
	require.Nil(t, err)
	assert.False(t, bytes.Contains(raw, []byte("secret")), "stored copy is sealed")

	value, _, err := f.c.Retrieve(ctx, "documents/1", policy)
	assert.Nil(t, err)
	assert.Equal(t, []byte("secret"), value)

	// wrong key cannot read any copy
	wrong := policy
	wrong.EncryptionKey = new([32]byte)
	_, _, err = f.c.Retrieve(ctx, "documents/1", wrong)
	assert.Equal(t, fault.ErrObjectNotFound, err)
}
