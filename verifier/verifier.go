// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verifier

import (
	"bytes"
	"fmt"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/provenanced/blockrecord"
	"github.com/bitmark-inc/provenanced/signature"
	"github.com/bitmark-inc/provenanced/transactionrecord"
)

// Reason - which check failed
type Reason string

// possible failure reasons
const (
	ReasonStructure        Reason = "structure"
	ReasonHash             Reason = "hash"
	ReasonMerkleRoot       Reason = "merkle-root"
	ReasonBlockSignature   Reason = "block-signature"
	ReasonKeyVersion       Reason = "key-version"
	ReasonTransaction      Reason = "transaction"
	ReasonMissingSignature Reason = "missing-signature"
	ReasonPayload          Reason = "payload"
	ReasonUserSignature    Reason = "user-signature"
	ReasonSystemSignature  Reason = "system-signature"
	ReasonChainLink        Reason = "chain-link"
)

// VerificationFailure - an explicit verification result
type VerificationFailure struct {
	Reason        Reason
	BlockNumber   uint64
	TransactionId string
	Cause         *VerificationFailure
}

func (f *VerificationFailure) Error() string {
	s := fmt.Sprintf("verification failed: %s", f.Reason)
	if "" != f.TransactionId {
		s += fmt.Sprintf("  transaction: %s", f.TransactionId)
	} else {
		s += fmt.Sprintf("  block: %d", f.BlockNumber)
	}
	if nil != f.Cause {
		s += "  cause: " + f.Cause.Error()
	}
	return s
}

// Options - verification modes
//
// Relaxed accepts legacy header and payload encodings; signatures are
// checked in every mode
type Options struct {
	Relaxed bool
}

// KeySource - trusted system public keys by version
type KeySource interface {
	SystemPublicKey(version uint64) ([]byte, bool)
}

// Verifier - checks transactions and blocks, has no side effects
// beyond logging
type Verifier struct {
	log    *logger.L
	oracle signature.Oracle
	keys   KeySource
}

// New - create a verifier
//
// if keys is nil system signatures are checked against the key they
// carry without confirming it is a trusted system key
func New(oracle signature.Oracle, keys KeySource) *Verifier {
	return &Verifier{
		log:    logger.New("verifier"),
		oracle: oracle,
		keys:   keys,
	}
}

// VerifyTransaction - true if both signatures verify over the canonical payload
func (v *Verifier) VerifyTransaction(tx *transactionrecord.Transaction, options Options) bool {
	if err := v.CheckTransaction(tx, options); nil != err {
		v.log.Warnf("%s", err)
		return false
	}
	return true
}

// VerifyBlock - true if every block check passes
func (v *Verifier) VerifyBlock(b *blockrecord.Block, options Options) bool {
	if err := v.CheckBlock(b, options); nil != err {
		v.log.Warnf("%s", err)
		return false
	}
	return true
}

// CheckTransaction - nil or a *VerificationFailure
func (v *Verifier) CheckTransaction(tx *transactionrecord.Transaction, options Options) error {
	if nil == tx {
		return &VerificationFailure{Reason: ReasonStructure}
	}
	if !tx.IsSigned() {
		return &VerificationFailure{Reason: ReasonMissingSignature, TransactionId: tx.Id}
	}
	if err := v.checkSystemKey(tx.Signatures.System.PublicKey, tx.Signatures.System.KeyVersion); nil != err {
		err.TransactionId = tx.Id
		return err
	}

	payload, err := tx.Payload()
	if nil != err {
		return &VerificationFailure{Reason: ReasonPayload, TransactionId: tx.Id}
	}
	failure := v.checkSignatures(tx, payload)
	if nil == failure {
		return nil
	}
	if !options.Relaxed {
		return failure
	}

	// both signatures must hold over the same legacy bytes
	legacy, err := tx.LegacyPayload()
	if nil != err || bytes.Equal(legacy, payload) {
		return failure
	}
	if nil == v.checkSignatures(tx, legacy) {
		v.log.Debugf("transaction: %s  accepted with legacy payload", tx.Id)
		return nil
	}
	return failure
}

func (v *Verifier) checkSignatures(tx *transactionrecord.Transaction, payload []byte) *VerificationFailure {
	user := tx.Signatures.User
	if !v.oracle.Verify(payload, user.Signature, user.PublicKey) {
		return &VerificationFailure{Reason: ReasonUserSignature, TransactionId: tx.Id}
	}
	system := tx.Signatures.System
	if !v.oracle.Verify(payload, system.Signature, system.PublicKey) {
		return &VerificationFailure{Reason: ReasonSystemSignature, TransactionId: tx.Id}
	}
	return nil
}

// a known key version must match the trusted key
func (v *Verifier) checkSystemKey(publicKey []byte, version uint64) *VerificationFailure {
	if nil == v.keys {
		return nil
	}
	trusted, ok := v.keys.SystemPublicKey(version)
	if !ok || !bytes.Equal(trusted, publicKey) {
		return &VerificationFailure{Reason: ReasonKeyVersion}
	}
	return nil
}

// CheckBlock - nil or a *VerificationFailure
//
// checks in order: structure, hash, merkle root, block signature, then
// every transaction
func (v *Verifier) CheckBlock(b *blockrecord.Block, options Options) error {
	if nil == b {
		return &VerificationFailure{Reason: ReasonStructure}
	}
	fail := func(reason Reason) error {
		return &VerificationFailure{Reason: reason, BlockNumber: b.Number}
	}

	if blockrecord.GenesisNumber == b.Number {
		if blockrecord.GenesisPreviousHash != b.PreviousHash || 0 != len(b.Transactions) {
			return fail(ReasonStructure)
		}
	} else if nil != b.Genesis {
		return fail(ReasonStructure)
	}

	if b.ComputeHash() != b.Hash {
		legacy := blockrecord.LegacyHeaderHash(b.Number, b.PreviousHash, b.MerkleRoot, b.Timestamp)
		if !options.Relaxed || legacy != b.Hash {
			return fail(ReasonHash)
		}
	}

	if b.ComputeMerkleRoot() != b.MerkleRoot {
		return fail(ReasonMerkleRoot)
	}

	signed := b.BlockSignature
	if f := v.checkSystemKey(signed.PublicKey, signed.KeyVersion); nil != f {
		f.BlockNumber = b.Number
		return f
	}
	if nil != b.Genesis && !bytes.Equal(b.Genesis.PublicKey, signed.PublicKey) {
		return fail(ReasonBlockSignature)
	}
	payload, err := b.SigningPayload()
	if nil != err || !v.oracle.Verify(payload, signed.Signature, signed.PublicKey) {
		return fail(ReasonBlockSignature)
	}

	for _, tx := range b.Transactions {
		if err := v.CheckTransaction(tx, options); nil != err {
			cause, _ := err.(*VerificationFailure)
			return &VerificationFailure{
				Reason:      ReasonTransaction,
				BlockNumber: b.Number,
				Cause:       cause,
			}
		}
	}
	return nil
}

// CheckLink - block follows previous in the chain
func CheckLink(previous *blockrecord.Block, b *blockrecord.Block) error {
	if previous.Number+1 != b.Number || previous.Hash != b.PreviousHash {
		return &VerificationFailure{Reason: ReasonChainLink, BlockNumber: b.Number}
	}
	return nil
}
