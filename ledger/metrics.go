// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics - ledger gauges and counters
type Metrics struct {
	pending      prometheus.Gauge
	height       prometheus.Gauge
	mined        prometheus.Counter
	miningFailed prometheus.Counter
	transactions *prometheus.CounterVec
}

// NewMetrics - create and register, a nil registerer leaves them unregistered
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "provenance",
			Subsystem: "ledger",
			Name:      "pending_transactions",
			Help:      "transactions waiting to be mined",
		}),
		height: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "provenance",
			Subsystem: "ledger",
			Name:      "latest_block_number",
			Help:      "number of the latest block",
		}),
		mined: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "provenance",
			Subsystem: "ledger",
			Name:      "blocks_mined_total",
			Help:      "blocks mined and persisted",
		}),
		miningFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "provenance",
			Subsystem: "ledger",
			Name:      "mining_failures_total",
			Help:      "mining attempts aborted without pool mutation",
		}),
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "provenance",
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "transactions accepted into the pool by type",
		}, []string{"type"}),
	}
}
