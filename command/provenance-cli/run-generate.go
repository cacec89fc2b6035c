// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/provenanced/signature"
	"github.com/bitmark-inc/provenanced/transactionrecord"
)

type keyPair struct {
	Algorithm  string                     `json:"algorithm"`
	PublicKey  transactionrecord.HexBytes `json:"publicKey"`
	PrivateKey transactionrecord.HexBytes `json:"privateKey"`
}

func runGenerate(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	prefix := c.String("output")
	if "" != prefix {
		publicKeyFilename := prefix + ".public"
		privateKeyFilename := prefix + ".private"
		err := signature.MakeKeyPair(m.scheme, publicKeyFilename, privateKeyFilename)
		if nil != err {
			return err
		}
		fmt.Fprintf(m.w, "generated private key: %q and public key: %q\n", privateKeyFilename, publicKeyFilename)
		return nil
	}

	publicKey, privateKey, err := m.scheme.GenerateKey()
	if nil != err {
		return err
	}

	if m.verbose {
		fmt.Fprintf(m.e, "algorithm: %s\n", m.scheme.Name())
	}

	return printJson(m.w, keyPair{
		Algorithm:  m.scheme.Name(),
		PublicKey:  publicKey,
		PrivateKey: privateKey,
	})
}
