// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tiered

import (
	"context"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/sync/errgroup"

	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/storage"
	"github.com/bitmark-inc/provenanced/tier"
)

// repair write retry defaults
const (
	defaultRetries = 3
	defaultBackoff = 100 * time.Millisecond
)

// Tiers - the configured back ends, any may be nil if no policy uses it
type Tiers struct {
	Index   tier.IndexStore
	Object  tier.ObjectBackend
	Content tier.ContentBackend
}

// Coordinator - writes, reads and repairs objects across tiers
//
// the coordinator is the only writer of storage descriptors
type Coordinator struct {
	log         *logger.L
	tiers       Tiers
	descriptors *storage.PoolHandle
	metrics     *Metrics

	// serialises descriptor read-modify-write
	descriptorLock sync.Mutex

	retries uint64
	backoff time.Duration
	now     func() time.Time
}

// New - coordinator over the given tiers, descriptors are kept in
// the given pool
func New(tiers Tiers, descriptors *storage.PoolHandle, metrics *Metrics) *Coordinator {
	if nil == metrics {
		metrics = NewMetrics(nil)
	}
	return &Coordinator{
		log:         logger.New("tiered"),
		tiers:       tiers,
		descriptors: descriptors,
		metrics:     metrics,
		retries:     defaultRetries,
		backoff:     defaultBackoff,
		now:         time.Now,
	}
}

// SetRetry - change the repair write retry count and initial backoff
func (c *Coordinator) SetRetry(retries uint64, backoff time.Duration) {
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	c.retries = retries
	c.backoff = backoff
}

// SetClock - replace the time source used for descriptor timestamps
func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}

// check the policy can be served by the configured tiers
func (c *Coordinator) check(policy Policy) error {
	if err := policy.Validate(); nil != err {
		return err
	}
	for _, t := range policy.Tiers {
		if !c.configured(t) {
			return fault.ErrTierNotConfigured
		}
	}
	return nil
}

func (c *Coordinator) configured(t tier.Tier) bool {
	switch t {
	case tier.Index:
		return nil != c.tiers.Index
	case tier.ObjectStore:
		return nil != c.tiers.Object
	case tier.ContentNetwork:
		return nil != c.tiers.Content
	default:
		return false
	}
}

func (c *Coordinator) millis() int64 {
	return c.now().UnixNano() / int64(time.Millisecond)
}

// Descriptor - the stored descriptor for a key
func (c *Coordinator) Descriptor(key string) (*tier.Descriptor, error) {
	packed, err := c.descriptors.Get([]byte(key))
	if nil != err {
		return nil, err
	}
	if nil == packed {
		return nil, fault.ErrDescriptorNotFound
	}
	return tier.UnpackDescriptor(packed)
}

// descriptor or a fresh one if none is stored
func (c *Coordinator) descriptorOrNew(key string) *tier.Descriptor {
	d, err := c.Descriptor(key)
	if nil != err {
		if fault.ErrDescriptorNotFound != err {
			c.log.Warnf("descriptor: %q  error: %s", key, err)
		}
		return tier.NewDescriptor(key)
	}
	return d
}

// update the descriptor under the lock and persist it
func (c *Coordinator) updateDescriptor(key string, update func(d *tier.Descriptor)) (*tier.Descriptor, error) {
	c.descriptorLock.Lock()
	defer c.descriptorLock.Unlock()

	d := c.descriptorOrNew(key)
	update(d)
	d.UpdatedAt = c.millis()

	packed, err := d.Pack()
	if nil != err {
		return nil, err
	}
	if err := c.descriptors.Put([]byte(key), packed); nil != err {
		c.log.Errorf("descriptor: %q  save error: %s", key, err)
		return nil, err
	}
	return d, nil
}

// Store - write a value to every tier in the policy
//
// tier writes run in parallel, each limited by the policy timeout and
// the call returns only after all have finished. If any tier fails a
// *TierWriteError is returned along with the result. The descriptor is
// saved in either case so that a partial write can later be repaired.
func (c *Coordinator) Store(ctx context.Context, key string, value []byte, metadata map[string]string, policy Policy) (*Result, error) {
	if err := c.check(policy); nil != err {
		return nil, err
	}

	data, err := seal(policy.EncryptionKey, value)
	if nil != err {
		return nil, err
	}

	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	if policy.Requires(tier.ContentNetwork) {
		address, err := c.tiers.Content.Address(data)
		if nil != err {
			return nil, err
		}
		meta[tier.MetaContentAddress] = address
	}

	result := &Result{
		Key:     key,
		PerTier: make(map[tier.Tier]Status),
	}

	var lock sync.Mutex
	var g errgroup.Group
	for _, t := range policy.Ordered() {
		t := t
		g.Go(func() error {
			tctx, cancel := context.WithTimeout(ctx, policy.timeout())
			defer cancel()

			location, err := c.write(tctx, t, key, data, meta)
			c.metrics.write(t, err)
			if nil != err {
				c.log.Errorf("store: %q  tier: %s  error: %s", key, t, err)
			}

			lock.Lock()
			result.PerTier[t] = Status{Err: err, Location: location}
			lock.Unlock()
			return err
		})
	}
	writeErr := g.Wait()

	d, err := c.updateDescriptor(key, func(d *tier.Descriptor) {
		for t, s := range result.PerTier {
			d.Set(t, s.Location)
		}
		d.Metadata = meta
	})
	if nil != err {
		return result, err
	}
	result.Descriptor = d

	if nil != writeErr {
		return result, newTierWriteError(result)
	}

	result.Success = true
	c.log.Debugf("store: %q  tiers: %v", key, d.Present())
	return result, nil
}

// write raw data to a single tier
func (c *Coordinator) write(ctx context.Context, t tier.Tier, key string, data []byte, metadata map[string]string) (tier.Location, error) {
	location := tier.Location{}
	var err error

	switch t {
	case tier.Index:
		err = c.tiers.Index.Put(ctx, key, data)
		location.Location = key

	case tier.ObjectStore:
		err = c.tiers.Object.Put(ctx, key, data, metadata)
		location.Location = key

	case tier.ContentNetwork:
		var address string
		address, err = c.tiers.Content.Put(ctx, data)
		if nil == err {
			location.Location = address
			location.Gateway = c.tiers.Content.Gateway(address)
		}

	default:
		err = fault.ErrUnknownTier
	}

	if nil != err {
		return tier.Location{}, err
	}
	location.Present = true
	location.VerifiedAt = c.millis()
	return location, nil
}

// read raw data from a single tier
//
// address is needed only for the content network
func (c *Coordinator) read(ctx context.Context, t tier.Tier, key string, address string) ([]byte, map[string]string, error) {
	switch t {
	case tier.Index:
		value, err := c.tiers.Index.Get(ctx, key)
		return value, nil, err

	case tier.ObjectStore:
		return c.tiers.Object.Get(ctx, key)

	case tier.ContentNetwork:
		if "" == address {
			return nil, nil, fault.ErrObjectNotFound
		}
		value, err := c.tiers.Content.Get(ctx, address)
		return value, nil, err

	default:
		return nil, nil, fault.ErrUnknownTier
	}
}

// content address recorded for a key, empty if unknown
func contentAddress(d *tier.Descriptor) string {
	if nil == d {
		return ""
	}
	if l, ok := d.Tiers[tier.ContentNetwork]; ok && "" != l.Location {
		return l.Location
	}
	if nil != d.Metadata {
		return d.Metadata[tier.MetaContentAddress]
	}
	return ""
}
