// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tiered

import (
	"context"

	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/tier"
)

// Validator - checks a decoded candidate copy, nil means valid
type Validator func(value []byte) error

// Retrieve - first copy found reading the policy tiers in preference order
//
// a failed or timed out tier is skipped, fault.ErrObjectNotFound is
// returned if no tier has the object
func (c *Coordinator) Retrieve(ctx context.Context, key string, policy Policy) ([]byte, tier.Tier, error) {
	return c.RetrieveValid(ctx, key, policy, nil)
}

// RetrieveValid - as Retrieve but a copy must also pass validate
func (c *Coordinator) RetrieveValid(ctx context.Context, key string, policy Policy, validate Validator) ([]byte, tier.Tier, error) {
	if err := c.check(policy); nil != err {
		return nil, 0, err
	}

	address := ""
	if policy.Requires(tier.ContentNetwork) {
		address = contentAddress(c.descriptorOrNew(key))
	}

	for _, t := range policy.Ordered() {
		tctx, cancel := context.WithTimeout(ctx, policy.timeout())
		data, meta, err := c.read(tctx, t, key, address)
		cancel()
		c.metrics.read(t, err)

		if "" == address && nil != meta {
			address = meta[tier.MetaContentAddress]
		}

		if nil != err {
			if nil != ctx.Err() {
				return nil, t, ctx.Err()
			}
			if fault.ErrObjectNotFound != err {
				c.log.Warnf("retrieve: %q  tier: %s  error: %s", key, t, err)
			}
			continue
		}

		value, err := open(policy.EncryptionKey, data)
		if nil != err {
			c.log.Warnf("retrieve: %q  tier: %s  error: %s", key, t, err)
			continue
		}
		if nil != validate {
			if err := validate(value); nil != err {
				c.log.Warnf("retrieve: %q  tier: %s  invalid copy: %s", key, t, err)
				continue
			}
		}
		return value, t, nil
	}

	return nil, 0, fault.ErrObjectNotFound
}
