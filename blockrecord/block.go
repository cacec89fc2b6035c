// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockrecord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/merkle"
	"github.com/bitmark-inc/provenanced/tier"
	"github.com/bitmark-inc/provenanced/transactionrecord"
)

// GenesisNumber - number of the first block
const GenesisNumber = uint64(0)

// GenesisPreviousHash - previous hash value of the genesis block
const GenesisPreviousHash = "0"

// key prefix of blocks in every storage tier
const keyPrefix = "blocks/"

// Signature - the system signature over a block
type Signature struct {
	PublicKey  transactionrecord.HexBytes `json:"publicKey"`
	Signature  transactionrecord.HexBytes `json:"signature"`
	KeyVersion uint64                     `json:"keyVersion"`
}

// GenesisData - system key material embedded in block 0
type GenesisData struct {
	Algorithm  string                     `json:"algorithm"`
	PublicKey  transactionrecord.HexBytes `json:"publicKey"`
	KeyVersion uint64                     `json:"keyVersion"`
}

// Block - a mined, signed set of transactions
//
// never mutated after mining; only Descriptor is refreshed from the
// storage coordinator and it is not part of the stored form
type Block struct {
	Number         uint64                           `json:"blockNumber"`
	Timestamp      int64                            `json:"timestamp"` // Unix milliseconds
	PreviousHash   string                           `json:"previousHash"`
	Hash           string                           `json:"hash"`
	Transactions   []*transactionrecord.Transaction `json:"transactions"`
	MerkleRoot     string                           `json:"merkleRoot"`
	Genesis        *GenesisData                     `json:"genesis,omitempty"`
	BlockSignature Signature                        `json:"blockSignature"`

	Descriptor *tier.Descriptor `json:"-"`
}

// fields covered by the block hash, in their fixed order
type hashedHeader struct {
	Number       uint64 `json:"blockNumber"`
	PreviousHash string `json:"previousHash"`
	MerkleRoot   string `json:"merkleRoot"`
	Timestamp    int64  `json:"timestamp"`
}

// fields covered by the block signature, in their fixed order
type signedHeader struct {
	Number           uint64       `json:"blockNumber"`
	Timestamp        int64        `json:"timestamp"`
	PreviousHash     string       `json:"previousHash"`
	Hash             string       `json:"hash"`
	MerkleRoot       string       `json:"merkleRoot"`
	TransactionCount int          `json:"transactionCount"`
	Genesis          *GenesisData `json:"genesis,omitempty"`
}

// HeaderHash - deterministic hash of the header fields
func HeaderHash(number uint64, previousHash string, merkleRoot string, timestamp int64) string {
	buffer, err := json.Marshal(hashedHeader{
		Number:       number,
		PreviousHash: previousHash,
		MerkleRoot:   merkleRoot,
		Timestamp:    timestamp,
	})
	if nil != err {
		// only strings and integers, cannot fail
		panic(err)
	}
	return merkle.NewDigest(buffer).String()
}

// LegacyHeaderHash - header hash of blocks written before the JSON
// header encoding: plain concatenation of the decimal and hex fields
func LegacyHeaderHash(number uint64, previousHash string, merkleRoot string, timestamp int64) string {
	s := strconv.FormatUint(number, 10) + previousHash + merkleRoot + strconv.FormatInt(timestamp, 10)
	return merkle.NewDigest([]byte(s)).String()
}

// TxIds - transaction ids in block order
func (b *Block) TxIds() []string {
	ids := make([]string, len(b.Transactions))
	for i, tx := range b.Transactions {
		ids[i] = tx.Id
	}
	return ids
}

// ComputeMerkleRoot - root over this block's transactions
func (b *Block) ComputeMerkleRoot() string {
	return merkle.Root(b.TxIds())
}

// ComputeHash - hash over this block's header fields
func (b *Block) ComputeHash() string {
	return HeaderHash(b.Number, b.PreviousHash, b.MerkleRoot, b.Timestamp)
}

// SigningPayload - canonical bytes covered by the block signature
func (b *Block) SigningPayload() ([]byte, error) {
	return json.Marshal(signedHeader{
		Number:           b.Number,
		Timestamp:        b.Timestamp,
		PreviousHash:     b.PreviousHash,
		Hash:             b.Hash,
		MerkleRoot:       b.MerkleRoot,
		TransactionCount: len(b.Transactions),
		Genesis:          b.Genesis,
	})
}

// Key - storage key of this block
func (b *Block) Key() string {
	return Key(b.Number)
}

// Pack - serialise the block for storage
func (b *Block) Pack() ([]byte, error) {
	if nil == b.Transactions {
		clone := *b
		clone.Transactions = []*transactionrecord.Transaction{}
		return json.Marshal(&clone)
	}
	return json.Marshal(b)
}

// Unpack - deserialise a stored block, numbers in transaction data are kept exactly
func Unpack(packed []byte) (*Block, error) {
	decoder := json.NewDecoder(bytes.NewReader(packed))
	decoder.UseNumber()

	b := &Block{}
	if err := decoder.Decode(b); nil != err {
		return nil, err
	}
	for _, tx := range b.Transactions {
		if nil == tx || nil == tx.Data {
			return nil, fault.ErrInvalidTransaction
		}
	}
	return b, nil
}

// Key - storage key for a block number
//
// zero padded so that keys sort in block order
func Key(number uint64) string {
	return fmt.Sprintf("%s%020d", keyPrefix, number)
}

// NumberFromKey - recover the block number from a storage key
func NumberFromKey(key string) (uint64, error) {
	if !strings.HasPrefix(key, keyPrefix) {
		return 0, fault.ErrInvalidBlockNumber
	}
	n, err := strconv.ParseUint(key[len(keyPrefix):], 10, 64)
	if nil != err {
		return 0, fault.ErrInvalidBlockNumber
	}
	return n, nil
}

// KeyPrefix - prefix shared by all block keys
func KeyPrefix() string {
	return keyPrefix
}
