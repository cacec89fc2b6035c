// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bitmark-inc/provenanced/background"
	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/ledger"
)

const metricsShutdownTimeout = 5 * time.Second

// mining job for the periodic miner
//
// an empty pool or a mine already running is not an error here
func miningJob(l *ledger.Ledger) background.Job {
	log := logger.New("miner")
	return func(ctx context.Context) error {
		b, err := l.TryMineBlock(ctx)
		switch err {
		case nil:
			log.Infof("mined block: %d  transactions: %d  hash: %s", b.Number, len(b.Transactions), b.Hash)
			return nil
		case fault.ErrEmptyPool, fault.ErrMiningInProgress:
			log.Debugf("not mined: %s", err)
			return nil
		default:
			return err
		}
	}
}

// metricsServer - background process serving /metrics
type metricsServer struct {
	log    *logger.L
	server *http.Server
}

func newMetricsServer(listen string, gatherer prometheus.Gatherer) *metricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &metricsServer{
		log: logger.New("metrics"),
		server: &http.Server{
			Addr:              listen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (m *metricsServer) Run(args interface{}, shutdown <-chan struct{}) {
	go func() {
		m.log.Infof("listening on: %s", m.server.Addr)
		err := m.server.ListenAndServe()
		if nil != err && !errors.Is(err, http.ErrServerClosed) {
			m.log.Errorf("listen error: %s", err)
		}
	}()

	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	if err := m.server.Shutdown(ctx); nil != err {
		m.log.Errorf("shutdown error: %s", err)
	}
	m.log.Info("stopped")
}
