// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"strconv"
	"strings"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/provenanced/blockrecord"
	"github.com/bitmark-inc/provenanced/signature"
	"github.com/bitmark-inc/provenanced/verifier"
)

type verifyResult struct {
	BlockNumber uint64 `json:"blockNumber"`
	Hash        string `json:"hash"`
	Valid       bool   `json:"valid"`
	Reason      string `json:"reason,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// trusted system public keys from the command line
type systemKeys map[uint64][]byte

func (k systemKeys) SystemPublicKey(version uint64) ([]byte, bool) {
	key, ok := k[version]
	return key, ok
}

func runVerify(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	blockFile := c.String("block")
	if "" == blockFile {
		return ErrMissingBlockFile
	}

	b := &blockrecord.Block{}
	if err := readJson(blockFile, b); nil != err {
		return err
	}

	keys, err := parseSystemKeys(c.StringSlice("system-key"))
	if nil != err {
		return err
	}

	result := verifyBlock(m.scheme, keys, b, c.Bool("relaxed"))
	if err := printJson(m.w, result); nil != err {
		return err
	}
	if !result.Valid {
		return cli.NewExitError("", 2)
	}
	return nil
}

// VERSION:FILE pairs, none means system keys are not pinned
func parseSystemKeys(arguments []string) (verifier.KeySource, error) {
	if 0 == len(arguments) {
		return nil, nil
	}
	keys := make(systemKeys)
	for _, a := range arguments {
		v, fileName, ok := strings.Cut(a, ":")
		if !ok {
			return nil, ErrSystemKeyFormat
		}
		version, err := strconv.ParseUint(v, 10, 64)
		if nil != err {
			return nil, ErrSystemKeyFormat
		}
		publicKey, err := signature.ReadPublicKeyFile(fileName)
		if nil != err {
			return nil, err
		}
		keys[version] = publicKey
	}
	return keys, nil
}

func verifyBlock(scheme signature.Scheme, keys verifier.KeySource, b *blockrecord.Block, relaxed bool) *verifyResult {
	v := verifier.New(signature.NewKeyring(scheme), keys)

	result := &verifyResult{
		BlockNumber: b.Number,
		Hash:        b.Hash,
		Valid:       true,
	}
	if err := v.CheckBlock(b, verifier.Options{Relaxed: relaxed}); nil != err {
		result.Valid = false
		result.Detail = err.Error()
		if failure, ok := err.(*verifier.VerificationFailure); ok {
			result.Reason = string(failure.Reason)
		}
	}
	return result
}
