// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transactionrecord

import (
	"bytes"
	"encoding/json"

	"github.com/bitmark-inc/provenanced/fault"
)

// UserSignature - the submitting user's signature
type UserSignature struct {
	PublicKey HexBytes `json:"publicKey"`
	Signature HexBytes `json:"signature"`
}

// SystemSignature - the ledger's counter signature
type SystemSignature struct {
	PublicKey  HexBytes `json:"publicKey"`
	Signature  HexBytes `json:"signature"`
	KeyVersion uint64   `json:"keyVersion"`
}

// Signatures - both halves of the dual signature
type Signatures struct {
	User   *UserSignature   `json:"user"`
	System *SystemSignature `json:"system"`
}

// Transaction - a dual signed ledger record
//
// immutable once created; Data holds type-specific fields
type Transaction struct {
	Id         string                 `json:"id"`
	Type       TagType                `json:"type"`
	Timestamp  int64                  `json:"timestamp"` // Unix milliseconds
	Data       map[string]interface{} `json:"data"`
	Signatures Signatures             `json:"signatures"`
}

// the signed fields, in their fixed order
type payload struct {
	Id        string                 `json:"id"`
	Type      TagType                `json:"type"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Payload - canonical serialisation of the fields covered by both signatures
//
// struct fields are emitted in declaration order and map keys are
// sorted, so the output is deterministic
func Payload(id string, txType TagType, timestamp int64, data map[string]interface{}) ([]byte, error) {
	if "" == id {
		return nil, fault.ErrInvalidTransaction
	}
	if !txType.IsValid() {
		return nil, fault.ErrInvalidTransactionType
	}
	if nil == data {
		return nil, fault.ErrMissingTransactionData
	}
	return json.Marshal(payload{
		Id:        id,
		Type:      txType,
		Timestamp: timestamp,
		Data:      data,
	})
}

// LegacyPayload - payload as produced by older clients that did not
// escape HTML characters in string values
func LegacyPayload(id string, txType TagType, timestamp int64, data map[string]interface{}) ([]byte, error) {
	if _, err := Payload(id, txType, timestamp, data); nil != err {
		return nil, err
	}

	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(payload{
		Id:        id,
		Type:      txType,
		Timestamp: timestamp,
		Data:      data,
	})
	if nil != err {
		return nil, err
	}
	return bytes.TrimSuffix(buffer.Bytes(), []byte("\n")), nil
}

// Payload - canonical signed bytes of this transaction
func (tx *Transaction) Payload() ([]byte, error) {
	return Payload(tx.Id, tx.Type, tx.Timestamp, tx.Data)
}

// LegacyPayload - legacy signed bytes of this transaction
func (tx *Transaction) LegacyPayload() ([]byte, error) {
	return LegacyPayload(tx.Id, tx.Type, tx.Timestamp, tx.Data)
}

// IsSigned - both signatures are present
func (tx *Transaction) IsSigned() bool {
	s := tx.Signatures
	return nil != s.User && nil != s.System &&
		0 != len(s.User.Signature) && 0 != len(s.System.Signature)
}

// Pack - serialise the complete transaction
func (tx *Transaction) Pack() ([]byte, error) {
	return json.Marshal(tx)
}

// Unpack - deserialise a transaction, numbers in data are kept exactly
func Unpack(packed []byte) (*Transaction, error) {
	decoder := json.NewDecoder(bytes.NewReader(packed))
	decoder.UseNumber()

	tx := &Transaction{}
	if err := decoder.Decode(tx); nil != err {
		return nil, err
	}
	if nil == tx.Data {
		return nil, fault.ErrMissingTransactionData
	}
	return tx, nil
}

// NormaliseData - convert caller supplied data to the form it will
// have after a storage round trip so that signatures stay valid
func NormaliseData(data map[string]interface{}) (map[string]interface{}, error) {
	if nil == data {
		return map[string]interface{}{}, nil
	}
	buffer, err := json.Marshal(data)
	if nil != err {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(buffer))
	decoder.UseNumber()

	normalised := map[string]interface{}{}
	if err := decoder.Decode(&normalised); nil != err {
		return nil, err
	}
	return normalised, nil
}
