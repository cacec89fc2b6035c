// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tiered

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bitmark-inc/provenanced/tier"
)

// Metrics - coordinator counters
type Metrics struct {
	writes        *prometheus.CounterVec
	reads         *prometheus.CounterVec
	repairs       *prometheus.CounterVec
	unrecoverable prometheus.Counter
}

// NewMetrics - create counters and register them, a nil registerer
// leaves them unregistered
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		writes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "provenance",
			Subsystem: "tiered",
			Name:      "writes_total",
			Help:      "tier writes by tier and outcome",
		}, []string{"tier", "outcome"}),
		reads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "provenance",
			Subsystem: "tiered",
			Name:      "reads_total",
			Help:      "tier reads by tier and outcome",
		}, []string{"tier", "outcome"}),
		repairs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "provenance",
			Subsystem: "tiered",
			Name:      "repairs_total",
			Help:      "copies rewritten by rehydration",
		}, []string{"tier"}),
		unrecoverable: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "provenance",
			Subsystem: "tiered",
			Name:      "unrecoverable_total",
			Help:      "objects with no verifiable copy in any tier",
		}),
	}
}

func outcome(err error) string {
	if nil == err {
		return "ok"
	}
	return "error"
}

func (m *Metrics) write(t tier.Tier, err error) {
	m.writes.WithLabelValues(t.String(), outcome(err)).Inc()
}

func (m *Metrics) read(t tier.Tier, err error) {
	m.reads.WithLabelValues(t.String(), outcome(err)).Inc()
}

func (m *Metrics) repaired(t tier.Tier) {
	m.repairs.WithLabelValues(t.String()).Inc()
}
