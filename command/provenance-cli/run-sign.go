// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli"

	"github.com/bitmark-inc/provenanced/ledger"
	"github.com/bitmark-inc/provenanced/signature"
	"github.com/bitmark-inc/provenanced/transactionrecord"
)

func runSign(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	keyFile := c.String("key")
	if "" == keyFile {
		return ErrMissingKeyFile
	}
	dataFile := c.String("data")
	if "" == dataFile {
		return ErrMissingDataFile
	}

	txType, err := transactionrecord.TagFromString(c.String("type"))
	if nil != err {
		return err
	}

	privateKey, err := signature.ReadPrivateKeyFile(keyFile)
	if nil != err {
		return err
	}

	data := map[string]interface{}{}
	if err := readJson(dataFile, &data); nil != err {
		return err
	}

	id := c.String("id")
	if "" == id {
		id = uuid.New().String()
	}
	timestamp := time.Now().UnixNano() / int64(time.Millisecond)

	submission, err := makeSubmission(m.scheme, privateKey, id, txType, timestamp, data)
	if nil != err {
		return err
	}

	if m.verbose {
		fmt.Fprintf(m.e, "signed: %s  type: %s\n", submission.Id, submission.Type)
	}
	return printJson(m.w, submission)
}

// build a user signed submission over the canonical payload
func makeSubmission(scheme signature.Scheme, privateKey []byte, id string, txType transactionrecord.TagType, timestamp int64, data map[string]interface{}) (*ledger.Submission, error) {
	normalised, err := transactionrecord.NormaliseData(data)
	if nil != err {
		return nil, err
	}

	payload, err := transactionrecord.Payload(id, txType, timestamp, normalised)
	if nil != err {
		return nil, err
	}

	publicKey, err := scheme.PublicKey(privateKey)
	if nil != err {
		return nil, err
	}
	userSignature, err := scheme.Sign(privateKey, payload)
	if nil != err {
		return nil, err
	}

	return &ledger.Submission{
		Id:            id,
		Type:          txType,
		Timestamp:     timestamp,
		Data:          normalised,
		UserPublicKey: publicKey,
		UserSignature: userSignature,
	}, nil
}
