// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/reservoir"
	"github.com/bitmark-inc/provenanced/signature"
	"github.com/bitmark-inc/provenanced/storage"
	"github.com/bitmark-inc/provenanced/tiered"
	"github.com/bitmark-inc/provenanced/verifier"
)

// decoded block cache lifetimes
const (
	blockCacheExpiry  = 10 * time.Minute
	blockCacheCleanup = 15 * time.Minute
)

// state pool key holding block number ++ hash of the latest block
var latestBlockKey = []byte("latest-block")

// SystemKeys - source of the current system signing key
type SystemKeys interface {
	Current() (signature.SystemKey, error)
	SystemPublicKey(version uint64) ([]byte, bool)
}

// Parameters - collaborators of a ledger
type Parameters struct {
	Database    *storage.DB
	Oracle      signature.Oracle
	SystemKeys  SystemKeys
	Algorithm   string // recorded in the genesis block
	Coordinator *tiered.Coordinator
	Policy      tiered.Policy
	Registerer  prometheus.Registerer
}

// Stats - summary of the chain
type Stats struct {
	TotalBlocks  uint64 `json:"totalBlocks"`
	PendingCount uint64 `json:"pendingCount"`
	LatestHash   string `json:"latestHash"`
}

// the latest block pointer
type latestBlock struct {
	valid  bool
	number uint64
	hash   string
}

// Ledger - the chain of blocks and the pool that feeds it
//
// mining and genesis creation hold miningLock for their whole
// duration; the latest pointer is only changed while it is held
type Ledger struct {
	sync.RWMutex // protects latest
	latest       latestBlock

	miningLock sync.Mutex

	log         *logger.L
	db          *storage.DB
	pool        *reservoir.Reservoir
	oracle      signature.Oracle
	keys        SystemKeys
	algorithm   string
	verifier    *verifier.Verifier
	coordinator *tiered.Coordinator
	policy      tiered.Policy
	blocks      *cache.Cache
	metrics     *Metrics
	now         func() time.Time
}

// New - open the ledger over an existing database
func New(parameters Parameters) (*Ledger, error) {
	if nil == parameters.Database || nil == parameters.Oracle || nil == parameters.SystemKeys || nil == parameters.Coordinator {
		return nil, fault.ErrInvalidConfiguration
	}
	if err := parameters.Policy.Validate(); nil != err {
		return nil, err
	}

	l := &Ledger{
		log:         logger.New("ledger"),
		db:          parameters.Database,
		pool:        reservoir.New(parameters.Database),
		oracle:      parameters.Oracle,
		keys:        parameters.SystemKeys,
		algorithm:   parameters.Algorithm,
		verifier:    verifier.New(parameters.Oracle, parameters.SystemKeys),
		coordinator: parameters.Coordinator,
		policy:      parameters.Policy,
		blocks:      cache.New(blockCacheExpiry, blockCacheCleanup),
		metrics:     NewMetrics(parameters.Registerer),
		now:         time.Now,
	}

	latest, err := l.readLatest()
	if nil != err {
		return nil, err
	}
	l.latest = latest

	pending, err := l.pool.Count()
	if nil != err {
		return nil, err
	}
	l.metrics.pending.Set(float64(pending))
	if latest.valid {
		l.metrics.height.Set(float64(latest.number))
		l.log.Infof("latest block: %d  hash: %s  pending: %d", latest.number, latest.hash, pending)
	} else {
		l.log.Warn("no genesis block")
	}
	return l, nil
}

// SetClock - replace the time source for block and transaction timestamps
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

func (l *Ledger) millis() int64 {
	return l.now().UnixNano() / int64(time.Millisecond)
}

// Verifier - the verification engine used by this ledger
func (l *Ledger) Verifier() *verifier.Verifier {
	return l.verifier
}

// Coordinator - the storage coordinator holding the blocks
func (l *Ledger) Coordinator() *tiered.Coordinator {
	return l.coordinator
}

// Policy - the storage policy for blocks
func (l *Ledger) Policy() tiered.Policy {
	return l.policy
}

// Latest - number and hash of the latest block, false if no genesis
func (l *Ledger) Latest() (uint64, string, bool) {
	l.RLock()
	defer l.RUnlock()
	return l.latest.number, l.latest.hash, l.latest.valid
}

// GetStats - block count, pending count and latest hash
func (l *Ledger) GetStats() (Stats, error) {
	pending, err := l.pool.Count()
	if nil != err {
		return Stats{}, err
	}

	l.RLock()
	defer l.RUnlock()

	s := Stats{
		PendingCount: pending,
	}
	if l.latest.valid {
		s.TotalBlocks = l.latest.number + 1
		s.LatestHash = l.latest.hash
	}
	return s, nil
}

func (l *Ledger) readLatest() (latestBlock, error) {
	record, err := l.db.State.Get(latestBlockKey)
	if nil != err {
		return latestBlock{}, err
	}
	if nil == record {
		return latestBlock{}, nil
	}
	if len(record) < 8 {
		return latestBlock{}, fault.ErrInvalidRecord
	}
	return latestBlock{
		valid:  true,
		number: binary.BigEndian.Uint64(record[:8]),
		hash:   string(record[8:]),
	}, nil
}

func packLatest(number uint64, hash string) []byte {
	record := make([]byte, 8, 8+len(hash))
	binary.BigEndian.PutUint64(record, number)
	return append(record, hash...)
}

// must hold the write lock
func (l *Ledger) setLatest(number uint64, hash string) {
	l.latest = latestBlock{
		valid:  true,
		number: number,
		hash:   hash,
	}
	l.metrics.height.Set(float64(number))
}
