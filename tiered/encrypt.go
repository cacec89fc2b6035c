// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tiered

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/bitmark-inc/provenanced/fault"
)

const nonceLength = 24

// seal the value if a key is given, nonce is prepended to the box
func seal(key *[32]byte, value []byte) ([]byte, error) {
	if nil == key {
		return value, nil
	}
	var nonce [nonceLength]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); nil != err {
		return nil, err
	}
	return secretbox.Seal(nonce[:], value, &nonce, key), nil
}

// reverse of seal
func open(key *[32]byte, box []byte) ([]byte, error) {
	if nil == key {
		return box, nil
	}
	if len(box) < nonceLength+secretbox.Overhead {
		return nil, fault.ErrDecryptionFailed
	}
	var nonce [nonceLength]byte
	copy(nonce[:], box[:nonceLength])
	value, ok := secretbox.Open(nil, box[nonceLength:], &nonce, key)
	if !ok {
		return nil, fault.ErrDecryptionFailed
	}
	return value, nil
}
