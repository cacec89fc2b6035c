// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fixtures - shared helpers for package tests
package fixtures

import (
	"fmt"
	"os"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/provenanced/blockrecord"
	"github.com/bitmark-inc/provenanced/signature"
	"github.com/bitmark-inc/provenanced/transactionrecord"
)

// LogCategory - log file name used by tests
const LogCategory = "testing"

var logDirectory string

// Timestamp - fixed time used by fixture records, Unix milliseconds
const Timestamp = int64(1700000000000)

// SetupTestLogger - log only critical messages to a temporary directory
func SetupTestLogger() {
	dir, err := os.MkdirTemp("", LogCategory)
	if nil != err {
		panic(err)
	}
	logDirectory = dir

	logging := logger.Configuration{
		Directory: dir,
		File:      fmt.Sprintf("%s.log", LogCategory),
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

// TeardownTestLogger - stop logging and remove the files
func TeardownTestLogger() {
	logger.Finalise()
	if "" != logDirectory {
		err := os.RemoveAll(logDirectory)
		if nil != err {
			fmt.Println("remove dir with error: ", err)
		}
	}
}

// Keys - a keyring with one system key and one user key
type Keys struct {
	Keyring    *signature.Keyring
	System     signature.SystemKey
	UserHandle string
	UserPublic []byte
}

// NewKeys - fast ed25519 keys for tests
func NewKeys() *Keys {
	scheme, err := signature.SchemeByName(signature.Ed25519)
	if nil != err {
		panic(err)
	}
	k := signature.NewKeyring(scheme)

	_, systemPrivate, err := scheme.GenerateKey()
	if nil != err {
		panic(err)
	}
	system, err := k.AddSystemKey(1, systemPrivate)
	if nil != err {
		panic(err)
	}

	_, userPrivate, err := scheme.GenerateKey()
	if nil != err {
		panic(err)
	}
	handle, userPublic, err := k.AddKey(userPrivate)
	if nil != err {
		panic(err)
	}

	return &Keys{
		Keyring:    k,
		System:     system,
		UserHandle: handle,
		UserPublic: userPublic,
	}
}

// Transaction - a dual signed document record
func (k *Keys) Transaction(id string, data map[string]interface{}) *transactionrecord.Transaction {
	tx := &transactionrecord.Transaction{
		Id:        id,
		Type:      transactionrecord.DocumentRecordTag,
		Timestamp: Timestamp,
		Data:      data,
	}
	payload, err := tx.Payload()
	if nil != err {
		panic(err)
	}
	k.sign(tx, payload)
	return tx
}

// Resign - replace both signatures using the given payload bytes
func (k *Keys) Resign(tx *transactionrecord.Transaction, payload []byte) {
	k.sign(tx, payload)
}

func (k *Keys) sign(tx *transactionrecord.Transaction, payload []byte) {
	user, err := k.Keyring.Sign(payload, k.UserHandle)
	if nil != err {
		panic(err)
	}
	system, err := k.Keyring.Sign(payload, k.System.Handle)
	if nil != err {
		panic(err)
	}
	tx.Signatures = transactionrecord.Signatures{
		User: &transactionrecord.UserSignature{
			PublicKey: k.UserPublic,
			Signature: user,
		},
		System: &transactionrecord.SystemSignature{
			PublicKey:  k.System.PublicKey,
			Signature:  system,
			KeyVersion: k.System.Version,
		},
	}
}

// Block - a signed block following previous, nil previous gives genesis
func (k *Keys) Block(previous *blockrecord.Block, txs ...*transactionrecord.Transaction) *blockrecord.Block {
	b := &blockrecord.Block{
		Number:       blockrecord.GenesisNumber,
		Timestamp:    Timestamp,
		PreviousHash: blockrecord.GenesisPreviousHash,
		Transactions: txs,
	}
	if nil == previous {
		b.Genesis = &blockrecord.GenesisData{
			Algorithm:  k.Keyring.Scheme().Name(),
			PublicKey:  k.System.PublicKey,
			KeyVersion: k.System.Version,
		}
	} else {
		b.Number = previous.Number + 1
		b.PreviousHash = previous.Hash
		b.Timestamp = previous.Timestamp + 1000
	}
	b.MerkleRoot = b.ComputeMerkleRoot()
	b.Hash = b.ComputeHash()
	k.SignBlock(b)
	return b
}

// SignBlock - replace the block signature
func (k *Keys) SignBlock(b *blockrecord.Block) {
	payload, err := b.SigningPayload()
	if nil != err {
		panic(err)
	}
	s, err := k.Keyring.Sign(payload, k.System.Handle)
	if nil != err {
		panic(err)
	}
	b.BlockSignature = blockrecord.Signature{
		PublicKey:  k.System.PublicKey,
		Signature:  s,
		KeyVersion: k.System.Version,
	}
}
