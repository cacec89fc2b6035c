// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package object

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/tier"
)

type item struct {
	value    []byte
	metadata map[string]string
}

// Memory - object store held in process memory
type Memory struct {
	sync.RWMutex
	items map[string]item
}

var _ tier.ObjectBackend = (*Memory)(nil)

// NewMemory - empty in-memory object store
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]item),
	}
}

// Put - store a copy of the value and metadata
func (m *Memory) Put(ctx context.Context, key string, value []byte, metadata map[string]string) error {
	if err := ctx.Err(); nil != err {
		return err
	}
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	m.Lock()
	m.items[key] = item{
		value:    append([]byte{}, value...),
		metadata: meta,
	}
	m.Unlock()
	return nil
}

// Get - copy of the stored value and metadata
func (m *Memory) Get(ctx context.Context, key string) ([]byte, map[string]string, error) {
	if err := ctx.Err(); nil != err {
		return nil, nil, err
	}

	m.RLock()
	defer m.RUnlock()

	i, ok := m.items[key]
	if !ok {
		return nil, nil, fault.ErrObjectNotFound
	}
	meta := make(map[string]string, len(i.metadata))
	for k, v := range i.metadata {
		meta[k] = v
	}
	return append([]byte{}, i.value...), meta, nil
}

// List - keys with the prefix in key order
func (m *Memory) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); nil != err {
		return nil, err
	}

	m.RLock()
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	m.RUnlock()

	sort.Strings(keys)
	return keys, nil
}
