// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tiered

import (
	"bytes"
	"context"
	"sync"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/bitmark-inc/provenanced/tier"
)

// Repair - outcome of rehydrating one key
type Repair struct {
	Key        string
	Source     tier.Tier
	Verified   []tier.Tier
	Repaired   []tier.Tier
	Descriptor *tier.Descriptor
}

// copy read from one tier
type candidate struct {
	data     []byte
	metadata map[string]string
	err      error
	valid    bool
}

// Rehydrate - make every policy tier hold a verified copy of a key
//
// all tiers are read concurrently and each copy is checked by validate.
// The earliest tier in preference order holding a valid copy is the
// source and is rewritten to every tier that is missing, invalid or
// different. If no tier has a valid copy *UnrecoverableDataError is
// returned and nothing is written.
func (c *Coordinator) Rehydrate(ctx context.Context, key string, policy Policy, validate Validator) (*Repair, error) {
	if err := c.check(policy); nil != err {
		return nil, err
	}

	descriptor := c.descriptorOrNew(key)
	address := contentAddress(descriptor)

	tiers := policy.Ordered()
	candidates := c.readAll(ctx, key, tiers, address, policy)

	// content address may only be known from object metadata
	if policy.Requires(tier.ContentNetwork) && "" == address {
		if o, ok := candidates[tier.ObjectStore]; ok && nil == o.err && nil != o.metadata {
			address = o.metadata[tier.MetaContentAddress]
		}
		if "" != address {
			candidates[tier.ContentNetwork] = c.readOne(ctx, tier.ContentNetwork, key, address, policy)
		}
	}

	if err := ctx.Err(); nil != err {
		return nil, err
	}

	source := tier.Tier(0)
	found := false
	reasons := make(map[tier.Tier]error)
	for _, t := range tiers {
		cd := candidates[t]
		if nil == cd.err {
			cd.err = c.verify(cd.data, policy, validate)
		}
		if nil != cd.err {
			reasons[t] = cd.err
			c.log.Warnf("rehydrate: %q  tier: %s  unusable copy: %s", key, t, cd.err)
			continue
		}
		cd.valid = true
		if !found {
			source = t
			found = true
		}
	}

	if !found {
		c.metrics.unrecoverable.Inc()
		c.log.Criticalf("rehydrate: %q  no tier holds a valid copy", key)
		return nil, &UnrecoverableDataError{
			Key:     key,
			Reasons: reasons,
		}
	}

	sourceData := candidates[source].data

	metadata := descriptor.Metadata
	if nil == metadata {
		if o, ok := candidates[tier.ObjectStore]; ok && nil != o.metadata {
			metadata = o.metadata
		} else {
			metadata = make(map[string]string)
		}
	}
	if policy.Requires(tier.ContentNetwork) {
		a, err := c.tiers.Content.Address(sourceData)
		if nil != err {
			return nil, err
		}
		metadata[tier.MetaContentAddress] = a
	}

	repair := &Repair{
		Key:    key,
		Source: source,
	}
	result := &Result{
		Key:     key,
		PerTier: make(map[tier.Tier]Status),
	}

	for _, t := range tiers {
		cd := candidates[t]
		if cd.valid && bytes.Equal(cd.data, sourceData) {
			location := descriptor.Tiers[t]
			location.Present = true
			location.VerifiedAt = c.millis()
			if tier.ContentNetwork == t {
				location.Location = address
				location.Gateway = c.tiers.Content.Gateway(address)
			} else {
				location.Location = key
			}
			result.PerTier[t] = Status{Location: location}
			repair.Verified = append(repair.Verified, t)
			continue
		}

		location, err := c.rewrite(ctx, t, key, sourceData, metadata, policy)
		result.PerTier[t] = Status{Err: err, Location: location}
		if nil != err {
			c.log.Errorf("rehydrate: %q  tier: %s  repair failed: %s", key, t, err)
			continue
		}
		c.metrics.repaired(t)
		c.log.Infof("rehydrate: %q  tier: %s  repaired from: %s", key, t, source)
		repair.Repaired = append(repair.Repaired, t)
	}

	d, err := c.updateDescriptor(key, func(d *tier.Descriptor) {
		for t, s := range result.PerTier {
			d.Set(t, s.Location)
		}
		d.Metadata = metadata
	})
	if nil != err {
		return repair, err
	}
	repair.Descriptor = d
	result.Descriptor = d

	if len(result.Failed()) > 0 {
		return repair, newTierWriteError(result)
	}
	result.Success = true
	return repair, nil
}

// read every tier concurrently
func (c *Coordinator) readAll(ctx context.Context, key string, tiers []tier.Tier, address string, policy Policy) map[tier.Tier]*candidate {
	candidates := make(map[tier.Tier]*candidate, len(tiers))

	var lock sync.Mutex
	var g errgroup.Group
	for _, t := range tiers {
		t := t
		g.Go(func() error {
			cd := c.readOne(ctx, t, key, address, policy)
			lock.Lock()
			candidates[t] = cd
			lock.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return candidates
}

// a timed out or failed read is treated as an absent copy
func (c *Coordinator) readOne(ctx context.Context, t tier.Tier, key string, address string, policy Policy) *candidate {
	tctx, cancel := context.WithTimeout(ctx, policy.timeout())
	defer cancel()

	data, meta, err := c.read(tctx, t, key, address)
	c.metrics.read(t, err)
	return &candidate{
		data:     data,
		metadata: meta,
		err:      err,
	}
}

func (c *Coordinator) verify(data []byte, policy Policy, validate Validator) error {
	value, err := open(policy.EncryptionKey, data)
	if nil != err {
		return err
	}
	if nil == validate {
		return nil
	}
	return validate(value)
}

// write with retries, each attempt limited by the policy timeout
func (c *Coordinator) rewrite(ctx context.Context, t tier.Tier, key string, data []byte, metadata map[string]string, policy Policy) (tier.Location, error) {
	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoff))

	location := tier.Location{}
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		tctx, cancel := context.WithTimeout(ctx, policy.timeout())
		defer cancel()

		l, err := c.write(tctx, t, key, data, metadata)
		c.metrics.write(t, err)
		if nil != err {
			return retry.RetryableError(err)
		}
		location = l
		return nil
	})
	if nil != err {
		return tier.Location{}, err
	}
	return location, nil
}
