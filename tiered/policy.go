// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tiered

import (
	"encoding/hex"
	"sort"
	"time"

	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/tier"
)

// DefaultTimeout - applied to each tier call when a policy sets none
const DefaultTimeout = 10 * time.Second

// Policy - the tiers an object must be written to and may be read from
//
// reads always use the fixed order index, object-store, content-network
// regardless of the order tiers are listed here
type Policy struct {
	Tiers         []tier.Tier
	Timeout       time.Duration
	EncryptionKey *[32]byte
}

// PolicyConfiguration - policy as read from a configuration file
type PolicyConfiguration struct {
	Tiers         []string `gluamapper:"tiers" json:"tiers"`
	Timeout       string   `gluamapper:"timeout" json:"timeout"`
	EncryptionKey string   `gluamapper:"encryption_key" json:"encryption_key"`
}

// NewPolicy - convert a configured policy
func NewPolicy(configuration *PolicyConfiguration) (Policy, error) {
	p := Policy{}
	if nil == configuration {
		return p, fault.ErrInvalidConfiguration
	}

	for _, name := range configuration.Tiers {
		t, err := tier.FromString(name)
		if nil != err {
			return p, err
		}
		p.Tiers = append(p.Tiers, t)
	}

	if "" != configuration.Timeout {
		d, err := time.ParseDuration(configuration.Timeout)
		if nil != err {
			return p, err
		}
		p.Timeout = d
	}

	if "" != configuration.EncryptionKey {
		key, err := hex.DecodeString(configuration.EncryptionKey)
		if nil != err || 32 != len(key) {
			return p, fault.ErrInvalidEncryptionKey
		}
		p.EncryptionKey = new([32]byte)
		copy(p.EncryptionKey[:], key)
	}

	return p, p.Validate()
}

// Validate - check the policy names at least one known tier
func (p Policy) Validate() error {
	if 0 == len(p.Tiers) {
		return fault.ErrNoTiersInPolicy
	}
	for _, t := range p.Tiers {
		if !t.IsValid() {
			return fault.ErrUnknownTier
		}
	}
	return nil
}

// Requires - true if the tier is part of the policy
func (p Policy) Requires(t tier.Tier) bool {
	for _, r := range p.Tiers {
		if r == t {
			return true
		}
	}
	return false
}

// Ordered - the policy tiers without duplicates in read preference order
func (p Policy) Ordered() []tier.Tier {
	seen := make(map[tier.Tier]struct{}, len(p.Tiers))
	tiers := make([]tier.Tier, 0, len(p.Tiers))
	for _, t := range p.Tiers {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tiers = append(tiers, t)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })
	return tiers
}

func (p Policy) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}
