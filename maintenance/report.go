// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package maintenance

import (
	"github.com/bitmark-inc/provenanced/tier"
)

// Status - outcome of checking one block
type Status string

// possible block outcomes
const (
	StatusVerified Status = "verified"
	StatusRepaired Status = "repaired"
	StatusError    Status = "error"
)

// BlockReport - detail for one block
type BlockReport struct {
	Number   uint64      `json:"blockNumber"`
	Status   Status      `json:"status"`
	Source   string      `json:"source,omitempty"`
	Repaired []tier.Tier `json:"repaired,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Report - result of one walk over the chain
//
// a walk stopped early has Complete false and NextBlock set to the
// first block not checked, so a later walk can resume from there
type Report struct {
	StartedAt           int64          `json:"startedAt"`
	FinishedAt          int64          `json:"finishedAt"`
	Relaxed             bool           `json:"relaxed"`
	FirstBlock          uint64         `json:"firstBlock"`
	LastBlock           uint64         `json:"lastBlock"`
	NextBlock           uint64         `json:"nextBlock"`
	Complete            bool           `json:"complete"`
	Verified            int            `json:"verified"`
	Repaired            int            `json:"repaired"`
	Errors              int            `json:"errors"`
	IndexedTransactions int            `json:"indexedTransactions"`
	StaleIndexEntries   int            `json:"staleIndexEntries"`
	Blocks              []*BlockReport `json:"blocks"`
}

func (r *Report) add(b *BlockReport) {
	switch b.Status {
	case StatusVerified:
		r.Verified += 1
	case StatusRepaired:
		r.Repaired += 1
	default:
		r.Errors += 1
	}
	r.Blocks = append(r.Blocks, b)
}
