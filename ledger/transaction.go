// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/transactionrecord"
	"github.com/bitmark-inc/provenanced/verifier"
)

// Submission - a transaction already signed by its user off-ledger
type Submission struct {
	Id            string                     `json:"id"`
	Type          transactionrecord.TagType  `json:"type"`
	Timestamp     int64                      `json:"timestamp"`
	Data          map[string]interface{}     `json:"data"`
	UserPublicKey transactionrecord.HexBytes `json:"publicKey"`
	UserSignature transactionrecord.HexBytes `json:"signature"`
}

// TransactionInfo - a transaction and where it is
type TransactionInfo struct {
	Transaction *transactionrecord.Transaction `json:"transaction"`
	Confirmed   bool                           `json:"confirmed"`
	BlockNumber uint64                         `json:"blockNumber,omitempty"`
}

// AddTransaction - sign a new transaction with the user's key handle
// and the current system key, then add it to the pending pool
//
// returns the new transaction id
func (l *Ledger) AddTransaction(txType transactionrecord.TagType, data map[string]interface{}, userHandle string, userPublicKey []byte) (string, error) {
	if _, err := l.keys.Current(); nil != err {
		return "", err
	}

	normalised, err := transactionrecord.NormaliseData(data)
	if nil != err {
		return "", err
	}
	id := uuid.New().String()
	timestamp := l.millis()

	payload, err := transactionrecord.Payload(id, txType, timestamp, normalised)
	if nil != err {
		return "", err
	}
	userSignature, err := l.oracle.Sign(payload, userHandle)
	if nil != err {
		return "", err
	}

	return l.counterSignAndStore(&Submission{
		Id:            id,
		Type:          txType,
		Timestamp:     timestamp,
		Data:          normalised,
		UserPublicKey: userPublicKey,
		UserSignature: userSignature,
	}, payload)
}

// SubmitTransaction - accept a transaction signed off-ledger
//
// the user signature is checked before anything is stored, so a
// forged submission never enters the pool
func (l *Ledger) SubmitTransaction(submission *Submission) (string, error) {
	if nil == submission {
		return "", fault.ErrInvalidTransaction
	}
	if _, err := l.keys.Current(); nil != err {
		return "", err
	}

	normalised, err := transactionrecord.NormaliseData(submission.Data)
	if nil != err {
		return "", err
	}
	s := *submission
	s.Data = normalised

	payload, err := transactionrecord.Payload(s.Id, s.Type, s.Timestamp, s.Data)
	if nil != err {
		return "", err
	}
	return l.counterSignAndStore(&s, payload)
}

// add the system signature, verify both and store in the pool
func (l *Ledger) counterSignAndStore(s *Submission, payload []byte) (string, error) {
	if !l.oracle.Verify(payload, s.UserSignature, s.UserPublicKey) {
		l.log.Warnf("rejected: %s  user signature does not verify", s.Id)
		return "", fault.ErrInvalidSignature
	}

	system, err := l.keys.Current()
	if nil != err {
		return "", err
	}
	systemSignature, err := l.oracle.Sign(payload, system.Handle)
	if nil != err {
		return "", err
	}

	tx := &transactionrecord.Transaction{
		Id:        s.Id,
		Type:      s.Type,
		Timestamp: s.Timestamp,
		Data:      s.Data,
		Signatures: transactionrecord.Signatures{
			User: &transactionrecord.UserSignature{
				PublicKey: s.UserPublicKey,
				Signature: s.UserSignature,
			},
			System: &transactionrecord.SystemSignature{
				PublicKey:  system.PublicKey,
				Signature:  systemSignature,
				KeyVersion: system.Version,
			},
		},
	}

	if err := l.verifier.CheckTransaction(tx, verifier.Options{}); nil != err {
		l.log.Warnf("rejected: %s  %s", s.Id, err)
		return "", fault.ErrInvalidSignature
	}

	if err := l.pool.Store(tx); nil != err {
		return "", err
	}

	l.metrics.transactions.WithLabelValues(tx.Type.String()).Inc()
	if n, err := l.pool.Count(); nil == err {
		l.metrics.pending.Set(float64(n))
	}
	l.log.Infof("pending: %s  type: %s", tx.Id, tx.Type)
	return tx.Id, nil
}

// GetTransaction - find a transaction in the chain or the pending pool
func (l *Ledger) GetTransaction(ctx context.Context, id string) (*TransactionInfo, error) {
	number, found, err := l.db.TxIndex.GetN([]byte(id))
	if nil != err {
		return nil, err
	}

	if !found {
		tx, err := l.pool.Get(id)
		if nil != err {
			return nil, err
		}
		return &TransactionInfo{Transaction: tx}, nil
	}

	b, err := l.GetBlock(ctx, number)
	if nil != err {
		return nil, err
	}
	for _, tx := range b.Transactions {
		if id == tx.Id {
			return &TransactionInfo{
				Transaction: tx,
				Confirmed:   true,
				BlockNumber: number,
			}, nil
		}
	}

	// index is derived data and can be rebuilt by maintenance
	l.log.Errorf("transaction: %s  indexed in block: %d but not present", id, number)
	return nil, fault.ErrTransactionNotFound
}
