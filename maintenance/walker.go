// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package maintenance

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/provenanced/background"
	"github.com/bitmark-inc/provenanced/blockrecord"
	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/ledger"
	"github.com/bitmark-inc/provenanced/storage"
	"github.com/bitmark-inc/provenanced/tier"
	"github.com/bitmark-inc/provenanced/tiered"
	"github.com/bitmark-inc/provenanced/verifier"
)

// state pool key naming the most recent report
var latestReportKey = []byte("latest-report")

const reportPrefix = "reports/"

// Options - controls for one walk
type Options struct {
	Relaxed   bool
	FromBlock uint64
}

// Walker - checks every block, repairs storage tiers and rebuilds the
// transaction index
//
// it never changes block contents, only storage descriptors and the
// derived index
type Walker struct {
	log          *logger.L
	ledger       *ledger.Ledger
	db           *storage.DB
	limiter      *rate.Limiter
	reportPolicy tiered.Policy
	now          func() time.Time

	runs   *prometheus.CounterVec
	blocks *prometheus.CounterVec
}

// NewWalker - create a walker
//
// blocksPerSecond of zero or less disables pacing
func NewWalker(l *ledger.Ledger, db *storage.DB, reportPolicy tiered.Policy, blocksPerSecond float64, registerer prometheus.Registerer) *Walker {
	limit := rate.Inf
	if blocksPerSecond > 0 {
		limit = rate.Limit(blocksPerSecond)
	}
	factory := promauto.With(registerer)
	return &Walker{
		log:          logger.New("maintenance"),
		ledger:       l,
		db:           db,
		limiter:      rate.NewLimiter(limit, 1),
		reportPolicy: reportPolicy,
		now:          time.Now,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "provenance",
			Subsystem: "maintenance",
			Name:      "runs_total",
			Help:      "maintenance walks by completion",
		}, []string{"complete"}),
		blocks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "provenance",
			Subsystem: "maintenance",
			Name:      "blocks_total",
			Help:      "blocks checked by outcome",
		}, []string{"status"}),
	}
}

func (w *Walker) millis() int64 {
	return w.now().UnixNano() / int64(time.Millisecond)
}

// Job - a background job running a full walk
func (w *Walker) Job(options Options) background.Job {
	return func(ctx context.Context) error {
		report, err := w.Run(ctx, options)
		if nil != report {
			w.log.Infof("verified: %d  repaired: %d  errors: %d  complete: %t",
				report.Verified, report.Repaired, report.Errors, report.Complete)
		}
		return err
	}
}

// Run - walk blocks from options.FromBlock to the latest block
//
// cancellation is honoured between blocks; the partial report is still
// stored and returned together with the context error
func (w *Walker) Run(ctx context.Context, options Options) (*Report, error) {
	latest, _, ok := w.ledger.Latest()
	if !ok {
		return nil, fault.ErrUninitialisedChain
	}

	report := &Report{
		StartedAt:  w.millis(),
		Relaxed:    options.Relaxed,
		FirstBlock: options.FromBlock,
		LastBlock:  latest,
		NextBlock:  options.FromBlock,
		Blocks:     []*BlockReport{},
	}

	var previous *blockrecord.Block
	if options.FromBlock > 0 && options.FromBlock <= latest {
		b, err := w.ledger.GetBlock(ctx, options.FromBlock-1)
		if nil == err {
			previous = b
		}
	}

	// tx id to block for every block read, and blocks that could not be read
	indexed := make(map[string]uint64)
	unreadable := make(map[uint64]bool)

	var runErr error
	for number := options.FromBlock; number <= latest; number += 1 {
		if err := w.limiter.Wait(ctx); nil != err {
			runErr = err
			break
		}

		b, detail := w.check(ctx, number, previous, options)
		if err := ctx.Err(); nil != err && StatusError == detail.Status {
			// interrupted, not a storage fault: resume from this block
			runErr = err
			break
		}
		report.add(detail)
		w.blocks.WithLabelValues(string(detail.Status)).Inc()
		report.NextBlock = number + 1
		previous = b

		if nil != b {
			n, err := w.index(b)
			if nil != err {
				w.log.Errorf("block: %d  index error: %s", number, err)
			}
			report.IndexedTransactions += n
			for _, tx := range b.Transactions {
				indexed[tx.Id] = b.Number
			}
		} else {
			unreadable[number] = true
		}

		if err := ctx.Err(); nil != err {
			runErr = err
			break
		}
	}

	stale, err := w.prune(report.FirstBlock, report.NextBlock, indexed, unreadable)
	if nil != err {
		w.log.Errorf("index prune error: %s", err)
	}
	report.StaleIndexEntries = stale

	report.Complete = nil == runErr && report.NextBlock > latest
	report.FinishedAt = w.millis()
	w.runs.WithLabelValues(fmt.Sprintf("%t", report.Complete)).Inc()

	if _, err := w.store(context.WithoutCancel(ctx), report); nil != err {
		w.log.Errorf("report not stored: %s", err)
		if nil == runErr {
			runErr = err
		}
	}
	return report, runErr
}

// verify one block, repair its tiers, return the block if usable
func (w *Walker) check(ctx context.Context, number uint64, previous *blockrecord.Block, options Options) (*blockrecord.Block, *BlockReport) {
	detail := &BlockReport{
		Number: number,
	}
	key := blockrecord.Key(number)
	policy := w.ledger.Policy()
	coordinator := w.ledger.Coordinator()
	validate := w.validator(number, previous, options)

	repair, err := coordinator.Rehydrate(ctx, key, policy, validate)
	var unrecoverable *tiered.UnrecoverableDataError
	switch {
	case errors.As(err, &unrecoverable):
		detail.Status = StatusError
		detail.Error = err.Error()
		w.log.Criticalf("block: %d  unrecoverable: %s", number, err)
		return nil, detail

	case nil != err && nil == repair:
		detail.Status = StatusError
		detail.Error = err.Error()
		w.log.Errorf("block: %d  rehydrate error: %s", number, err)
		return nil, detail

	case nil != err:
		// a verified copy exists but some tier could not be rewritten
		detail.Status = StatusError
		detail.Error = err.Error()
		detail.Source = repair.Source.String()
		detail.Repaired = repair.Repaired

	case len(repair.Repaired) > 0:
		detail.Status = StatusRepaired
		detail.Source = repair.Source.String()
		detail.Repaired = repair.Repaired
		w.log.Warnf("block: %d  repaired tiers: %v  from: %s", number, repair.Repaired, repair.Source)

	default:
		detail.Status = StatusVerified
	}

	packed, _, err := coordinator.RetrieveValid(ctx, key, policy, validate)
	if nil != err {
		w.log.Errorf("block: %d  read after repair: %s", number, err)
		return nil, detail
	}
	b, err := blockrecord.Unpack(packed)
	if nil != err {
		return nil, detail
	}
	return b, detail
}

// full verification of a stored copy
func (w *Walker) validator(number uint64, previous *blockrecord.Block, options Options) tiered.Validator {
	v := w.ledger.Verifier()
	return func(packed []byte) error {
		b, err := blockrecord.Unpack(packed)
		if nil != err {
			return err
		}
		if number != b.Number {
			return fault.ErrWrongBlockSequence
		}
		if err := v.CheckBlock(b, verifier.Options{Relaxed: options.Relaxed}); nil != err {
			return err
		}
		if nil != previous {
			return verifier.CheckLink(previous, b)
		}
		return nil
	}
}

// rewrite the transaction index entries of a block
func (w *Walker) index(b *blockrecord.Block) (int, error) {
	if 0 == len(b.Transactions) {
		return 0, nil
	}
	batch := w.db.NewBatch()
	for _, tx := range b.Transactions {
		batch.PutN(w.db.TxIndex, []byte(tx.Id), b.Number)
	}
	if err := batch.Commit(); nil != err {
		return 0, err
	}
	return len(b.Transactions), nil
}

// delete index entries naming a walked block that does not hold the
// transaction, entries outside the walked range are left alone
func (w *Walker) prune(first uint64, next uint64, indexed map[string]uint64, unreadable map[uint64]bool) (int, error) {
	if next <= first {
		return 0, nil
	}
	batch := w.db.NewBatch()
	err := w.db.TxIndex.Each(func(e storage.Element) error {
		id := string(e.Key)
		if len(e.Value) >= 8 {
			n := binary.BigEndian.Uint64(e.Value[:8])
			if n < first || n >= next || unreadable[n] {
				return nil
			}
			if number, ok := indexed[id]; ok && number == n {
				return nil
			}
		}
		w.log.Warnf("stale index entry: %s", id)
		batch.Delete(w.db.TxIndex, []byte(id))
		return nil
	})
	if nil != err {
		return 0, err
	}
	if 0 == batch.Len() {
		return 0, nil
	}
	if err := batch.Commit(); nil != err {
		return 0, err
	}
	return batch.Len(), nil
}

// save the report through the coordinator and remember its key
func (w *Walker) store(ctx context.Context, report *Report) (string, error) {
	packed, err := json.Marshal(report)
	if nil != err {
		return "", err
	}
	key := fmt.Sprintf("%s%020d", reportPrefix, w.now().UnixNano())

	_, err = w.ledger.Coordinator().Store(ctx, key, packed, map[string]string{"kind": "maintenance-report"}, w.reportPolicy)
	if nil != err {
		return "", err
	}
	if err := w.db.State.Put(latestReportKey, []byte(key)); nil != err {
		return "", err
	}
	w.log.Infof("report stored: %s", key)
	return key, nil
}

// LatestReport - the most recently stored report
func (w *Walker) LatestReport(ctx context.Context) (*Report, error) {
	key, err := w.db.State.Get(latestReportKey)
	if nil != err {
		return nil, err
	}
	if nil == key {
		return nil, fault.ErrReportNotFound
	}
	packed, _, err := w.ledger.Coordinator().Retrieve(ctx, string(key), w.reportPolicy)
	if nil != err {
		return nil, err
	}
	report := &Report{}
	if err := json.Unmarshal(packed, report); nil != err {
		return nil, err
	}
	return report, nil
}

// ReportTiers - default tiers for reports
func ReportTiers() []tier.Tier {
	return []tier.Tier{tier.Index, tier.ObjectStore}
}
