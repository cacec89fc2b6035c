// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package content

import (
	"context"
	"strings"

	"github.com/bitmark-inc/logger"
	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-datastore"
	badgerds "github.com/ipfs/go-ds-badger2"
	"github.com/multiformats/go-multihash"

	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/tier"
)

// all values are addressed as CIDv1 raw sha2-256
var prefix = cid.Prefix{
	Version:  1,
	Codec:    cid.Raw,
	MhType:   multihash.SHA2_256,
	MhLength: -1,
}

// Address - the content address of a value
func Address(value []byte) (string, error) {
	c, err := prefix.Sum(value)
	if nil != err {
		return "", err
	}
	return c.String(), nil
}

// Network - content addressed tier over a datastore
type Network struct {
	log     *logger.L
	store   datastore.Datastore
	gateway string
	closer  func() error
}

var _ tier.ContentBackend = (*Network)(nil)

// New - content tier over an existing datastore
//
// gateway is the base URL used to build retrieval hints, may be empty
func New(store datastore.Datastore, gateway string) *Network {
	return &Network{
		log:     logger.New("content"),
		store:   store,
		gateway: strings.TrimSuffix(gateway, "/"),
	}
}

// NewBadger - content tier persisted in a badger directory
func NewBadger(directory string, gateway string) (*Network, error) {
	ds, err := badgerds.NewDatastore(directory, &badgerds.DefaultOptions)
	if nil != err {
		return nil, err
	}
	n := New(ds, gateway)
	n.closer = ds.Close
	return n, nil
}

// Close - release the underlying datastore if it is owned here
func (n *Network) Close() error {
	if nil == n.closer {
		return nil
	}
	return n.closer()
}

// Address - the address a value is stored under
func (n *Network) Address(value []byte) (string, error) {
	return Address(value)
}

// Put - store a value and return its address
func (n *Network) Put(ctx context.Context, value []byte) (string, error) {
	c, err := prefix.Sum(value)
	if nil != err {
		return "", err
	}
	err = n.store.Put(ctx, datastore.NewKey(c.String()), value)
	if nil != err {
		n.log.Errorf("put: %s  error: %s", c, err)
		return "", err
	}
	return c.String(), nil
}

// Get - fetch a value by address, checking it hashes to that address
func (n *Network) Get(ctx context.Context, address string) ([]byte, error) {
	expected, err := cid.Decode(address)
	if nil != err {
		return nil, fault.ErrInvalidDigest
	}

	value, err := n.store.Get(ctx, datastore.NewKey(expected.String()))
	if datastore.ErrNotFound == err {
		return nil, fault.ErrObjectNotFound
	}
	if nil != err {
		n.log.Errorf("get: %s  error: %s", address, err)
		return nil, err
	}

	actual, err := expected.Prefix().Sum(value)
	if nil != err {
		return nil, err
	}
	if !actual.Equals(expected) {
		n.log.Warnf("get: %s  content does not match address", address)
		return nil, fault.ErrInvalidDigest
	}
	return value, nil
}

// Gateway - a retrieval URL for an address, empty if no gateway is set
func (n *Network) Gateway(address string) string {
	if "" == n.gateway {
		return ""
	}
	return n.gateway + "/ipfs/" + address
}
