// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background

import (
	"context"
	"time"

	"github.com/bitmark-inc/logger"
)

// Job - one execution of a periodic process
//
// the context is cancelled when the process is shut down
type Job func(ctx context.Context) error

// Periodic - a process that runs a job on an interval and on demand
type Periodic struct {
	log      *logger.L
	interval time.Duration
	job      Job
	trigger  chan struct{}
}

// NewPeriodic - create a periodic process, zero interval means only on demand
func NewPeriodic(name string, interval time.Duration, job Job) *Periodic {
	return &Periodic{
		log:      logger.New(name),
		interval: interval,
		job:      job,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger - request an immediate run, coalesced with any pending request
func (p *Periodic) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Run - background process loop
func (p *Periodic) Run(args interface{}, shutdown <-chan struct{}) {

	log := p.log
	log.Info("starting…")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()

	var tick <-chan time.Time
	if p.interval > 0 {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-tick:
		case <-p.trigger:
		}

		start := time.Now()
		if err := p.job(ctx); nil != err {
			log.Errorf("run failed: %s", err)
		} else {
			log.Debugf("run completed in: %s", time.Since(start))
		}
	}

	log.Info("stopped")
}
