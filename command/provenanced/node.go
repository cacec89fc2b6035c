// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/ledger"
	"github.com/bitmark-inc/provenanced/maintenance"
	"github.com/bitmark-inc/provenanced/signature"
	"github.com/bitmark-inc/provenanced/storage"
	"github.com/bitmark-inc/provenanced/tier"
	"github.com/bitmark-inc/provenanced/tier/content"
	"github.com/bitmark-inc/provenanced/tier/index"
	"github.com/bitmark-inc/provenanced/tier/object"
	"github.com/bitmark-inc/provenanced/tiered"
)

// node - everything the daemon and the data commands operate on
type node struct {
	db       *storage.DB
	keyring  *signature.Keyring
	content  *content.Network
	ledger   *ledger.Ledger
	walker   *maintenance.Walker
	registry *prometheus.Registry
}

// open storage, load keys and connect the configured tiers
func newNode(ctx context.Context, log *logger.L, options *Configuration) (*node, error) {
	scheme, err := signature.SchemeByName(options.Keys.Algorithm)
	if nil != err {
		return nil, err
	}

	n := &node{
		keyring:  signature.NewKeyring(scheme),
		registry: prometheus.NewRegistry(),
	}
	n.registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	count, err := n.keyring.LoadDirectory(options.Keys.Directory)
	if nil != err {
		return nil, err
	}
	if 0 == count {
		// ledger reads still work, signing fails until a key appears
		log.Warnf("no system keys in: %q", options.Keys.Directory)
	} else {
		log.Infof("loaded: %d system keys  algorithm: %s", count, scheme.Name())
	}

	log.Infof("database: %q", options.Database.Name)
	n.db, err = storage.Open(options.Database.Name, storage.ReadWrite)
	if nil != err {
		return nil, err
	}

	tiers := tiered.Tiers{
		Index: index.New(n.db.IndexTier),
	}

	required := func(t tier.Tier) bool {
		return options.storagePolicy.Requires(t) || options.reportPolicy.Requires(t)
	}

	if required(tier.ObjectStore) {
		s3, err := object.NewS3(ctx, &options.ObjectStore)
		if nil != err {
			n.close()
			return nil, err
		}
		tiers.Object = s3
		log.Infof("object store bucket: %q", options.ObjectStore.Bucket)
	}

	if required(tier.ContentNetwork) {
		if "" == options.Content.Directory {
			n.close()
			return nil, fault.ErrTierNotConfigured
		}
		n.content, err = content.NewBadger(options.Content.Directory, options.Content.Gateway)
		if nil != err {
			n.close()
			return nil, err
		}
		tiers.Content = n.content
		log.Infof("content store: %q", options.Content.Directory)
	}

	coordinator := tiered.New(tiers, n.db.Descriptors, tiered.NewMetrics(n.registry))

	n.ledger, err = ledger.New(ledger.Parameters{
		Database:    n.db,
		Oracle:      n.keyring,
		SystemKeys:  n.keyring,
		Algorithm:   scheme.Name(),
		Coordinator: coordinator,
		Policy:      options.storagePolicy,
		Registerer:  n.registry,
	})
	if nil != err {
		n.close()
		return nil, err
	}

	n.walker = maintenance.NewWalker(n.ledger, n.db, options.reportPolicy, options.Maintenance.Rate, n.registry)
	return n, nil
}

func (n *node) close() {
	if nil != n.content {
		n.content.Close()
	}
	if nil != n.db {
		n.db.Close()
	}
}
