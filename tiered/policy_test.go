// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tiered_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/tier"
	"github.com/bitmark-inc/provenanced/tiered"
)

func TestNewPolicy(t *testing.T) {
	p, err := tiered.NewPolicy(&tiered.PolicyConfiguration{
		Tiers:         []string{"content-network", "index", "index"},
		Timeout:       "250ms",
		EncryptionKey: strings.Repeat("ab", 32),
	})
	require.Nil(t, err)
	assert.Equal(t, 250*time.Millisecond, p.Timeout)
	assert.Equal(t, []tier.Tier{tier.Index, tier.ContentNetwork}, p.Ordered())
	assert.True(t, p.Requires(tier.ContentNetwork))
	assert.False(t, p.Requires(tier.ObjectStore))
	require.NotNil(t, p.EncryptionKey)
	assert.Equal(t, byte(0xab), p.EncryptionKey[31])
}

func TestNewPolicyErrors(t *testing.T) {
	_, err := tiered.NewPolicy(&tiered.PolicyConfiguration{})
	assert.Equal(t, fault.ErrNoTiersInPolicy, err)

	_, err = tiered.NewPolicy(&tiered.PolicyConfiguration{Tiers: []string{"floppy"}})
	assert.Equal(t, fault.ErrUnknownTier, err)

	_, err = tiered.NewPolicy(&tiered.PolicyConfiguration{Tiers: []string{"index"}, EncryptionKey: "abcd"})
	assert.Equal(t, fault.ErrInvalidEncryptionKey, err)

	_, err = tiered.NewPolicy(&tiered.PolicyConfiguration{Tiers: []string{"index"}, Timeout: "soon"})
	assert.NotNil(t, err)

	_, err = tiered.NewPolicy(nil)
	assert.Equal(t, fault.ErrInvalidConfiguration, err)
}
