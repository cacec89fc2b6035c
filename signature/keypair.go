// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package signature

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/bitmark-inc/provenanced/fault"
)

const (
	taggedPublic  = "PUBLIC:"
	taggedPrivate = "PRIVATE:"
)

// MakeKeyPair - create a new public/private keypair and write them to
// separate files
func MakeKeyPair(scheme Scheme, publicKeyFileName string, privateKeyFileName string) error {
	if fileExists(publicKeyFileName) || fileExists(privateKeyFileName) {
		return fault.ErrKeyFileAlreadyExists
	}

	publicKey, privateKey, err := scheme.GenerateKey()
	if nil != err {
		return err
	}

	public := taggedPublic + hex.EncodeToString(publicKey) + "\n"
	private := taggedPrivate + hex.EncodeToString(privateKey) + "\n"

	if err = os.WriteFile(publicKeyFileName, []byte(public), 0666); err != nil {
		return err
	}

	if err = os.WriteFile(privateKeyFileName, []byte(private), 0600); err != nil {
		os.Remove(publicKeyFileName)
		return err
	}

	return nil
}

// ReadPublicKeyFile - read a tagged public key file
func ReadPublicKeyFile(fileName string) ([]byte, error) {
	data, err := os.ReadFile(fileName)
	if nil != err {
		return nil, err
	}
	key, private, err := ParseKey(string(data))
	if nil != err {
		return nil, err
	}
	if private {
		return nil, fault.ErrInvalidKeyFile
	}
	return key, nil
}

// ReadPrivateKeyFile - read a tagged private key file
func ReadPrivateKeyFile(fileName string) ([]byte, error) {
	data, err := os.ReadFile(fileName)
	if nil != err {
		return nil, err
	}
	key, private, err := ParseKey(string(data))
	if nil != err {
		return nil, err
	}
	if !private {
		return nil, fault.ErrInvalidKeyFile
	}
	return key, nil
}

// ParseKey - decode a tagged key, returns key bytes and private flag
func ParseKey(data string) ([]byte, bool, error) {
	s := strings.TrimSpace(data)
	if strings.HasPrefix(s, taggedPrivate) {
		h, err := hex.DecodeString(s[len(taggedPrivate):])
		if nil != err || 0 == len(h) {
			return nil, false, fault.ErrInvalidKeyFile
		}
		return h, true, nil
	} else if strings.HasPrefix(s, taggedPublic) {
		h, err := hex.DecodeString(s[len(taggedPublic):])
		if nil != err || 0 == len(h) {
			return nil, false, fault.ErrInvalidKeyFile
		}
		return h, false, nil
	}
	return nil, false, fault.ErrInvalidKeyFile
}

func fileExists(name string) bool {
	_, err := os.Stat(name)
	return nil == err
}
