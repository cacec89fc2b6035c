// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tier

//go:generate mockgen -source=tier.go -destination=mocks/tier.go -package=mocks

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/bitmark-inc/provenanced/fault"
)

// Tier - identifies one of the storage back ends
type Tier uint8

// possible tiers, in default preference order
const (
	Index          Tier = iota
	ObjectStore    Tier = iota
	ContentNetwork Tier = iota
	invalid        Tier = iota // keep last
)

var tierNames = [...]string{
	Index:          "index",
	ObjectStore:    "object-store",
	ContentNetwork: "content-network",
}

// All - every tier in default preference order
func All() []Tier {
	return []Tier{Index, ObjectStore, ContentNetwork}
}

// FromString - parse a tier name
func FromString(s string) (Tier, error) {
	for i, name := range tierNames {
		if name == s {
			return Tier(i), nil
		}
	}
	return invalid, fault.ErrUnknownTier
}

// IsValid - check the tier is one of the known values
func (t Tier) IsValid() bool {
	return t < invalid
}

func (t Tier) String() string {
	if !t.IsValid() {
		return "invalid"
	}
	return tierNames[t]
}

// MarshalText - convert tier to its name
func (t Tier) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fault.ErrUnknownTier
	}
	return []byte(tierNames[t]), nil
}

// UnmarshalText - convert a name to a tier
func (t *Tier) UnmarshalText(s []byte) error {
	v, err := FromString(string(s))
	if nil != err {
		return err
	}
	*t = v
	return nil
}

// object store metadata keys
const (
	MetaBlockNumber    = "block-number"
	MetaHash           = "hash"
	MetaContentAddress = "content-address"
)

// Location - where a value lives in a single tier
type Location struct {
	Present    bool   `json:"present"`
	Location   string `json:"location,omitempty"`
	Gateway    string `json:"gateway,omitempty"`
	VerifiedAt int64  `json:"verifiedAt,omitempty"`
}

// Descriptor - record of which tiers hold a stored value
type Descriptor struct {
	Key       string            `json:"key"`
	Tiers     map[Tier]Location `json:"tiers"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	UpdatedAt int64             `json:"updatedAt"`
}

// NewDescriptor - empty descriptor for a key
func NewDescriptor(key string) *Descriptor {
	return &Descriptor{
		Key:   key,
		Tiers: make(map[Tier]Location),
	}
}

// Set - record the location of the value in one tier
func (d *Descriptor) Set(t Tier, location Location) {
	if nil == d.Tiers {
		d.Tiers = make(map[Tier]Location)
	}
	d.Tiers[t] = location
}

// Has - true if the tier is recorded as holding the value
func (d *Descriptor) Has(t Tier) bool {
	if nil == d {
		return false
	}
	return d.Tiers[t].Present
}

// Present - the tiers holding the value, in tier order
func (d *Descriptor) Present() []Tier {
	if nil == d {
		return nil
	}
	tiers := make([]Tier, 0, len(d.Tiers))
	for t, l := range d.Tiers {
		if l.Present {
			tiers = append(tiers, t)
		}
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })
	return tiers
}

// Pack - serialise a descriptor
func (d *Descriptor) Pack() ([]byte, error) {
	return json.Marshal(d)
}

// UnpackDescriptor - deserialise a descriptor
func UnpackDescriptor(packed []byte) (*Descriptor, error) {
	d := &Descriptor{}
	if err := json.Unmarshal(packed, d); nil != err {
		return nil, err
	}
	if nil == d.Tiers {
		d.Tiers = make(map[Tier]Location)
	}
	return d, nil
}

// IndexStore - fast local key/value tier
//
// Get returns fault.ErrObjectNotFound for an absent key
type IndexStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// ObjectBackend - durable keyed blob store with per-object metadata
//
// Get returns fault.ErrObjectNotFound for an absent key
type ObjectBackend interface {
	Get(ctx context.Context, key string) ([]byte, map[string]string, error)
	Put(ctx context.Context, key string, value []byte, metadata map[string]string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// ContentBackend - content addressed store
//
// Put returns the address derived from the value, which Address
// computes without storing
type ContentBackend interface {
	Address(value []byte) (string, error)
	Put(ctx context.Context, value []byte) (string, error)
	Get(ctx context.Context, address string) ([]byte, error)
	Gateway(address string) string
}
