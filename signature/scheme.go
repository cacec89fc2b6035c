// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package signature

import (
	"crypto/rand"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/ed25519"

	"github.com/bitmark-inc/provenanced/fault"
)

// supported algorithms
const (
	Dilithium3 = "dilithium3"
	Ed25519    = "ed25519"
)

// Scheme - raw key generation, signing and verification for one algorithm
type Scheme interface {
	Name() string
	GenerateKey() (publicKey []byte, privateKey []byte, err error)
	PublicKey(privateKey []byte) ([]byte, error)
	Sign(privateKey []byte, message []byte) ([]byte, error)
	Verify(publicKey []byte, message []byte, signature []byte) bool
}

// SchemeByName - select a scheme from its configuration name
func SchemeByName(name string) (Scheme, error) {
	switch strings.ToLower(name) {
	case Dilithium3, "":
		return dilithiumScheme{}, nil
	case Ed25519:
		return ed25519Scheme{}, nil
	default:
		return nil, fault.ErrSignatureAlgorithm
	}
}

// post-quantum signatures (CRYSTALS-Dilithium, security level 3)
type dilithiumScheme struct{}

func (dilithiumScheme) Name() string { return Dilithium3 }

func (dilithiumScheme) GenerateKey() ([]byte, []byte, error) {
	pk, sk, err := mode3.GenerateKey(rand.Reader)
	if nil != err {
		return nil, nil, err
	}
	publicKey, err := pk.MarshalBinary()
	if nil != err {
		return nil, nil, err
	}
	privateKey, err := sk.MarshalBinary()
	if nil != err {
		return nil, nil, err
	}
	return publicKey, privateKey, nil
}

func (dilithiumScheme) PublicKey(privateKey []byte) ([]byte, error) {
	var sk mode3.PrivateKey
	if err := sk.UnmarshalBinary(privateKey); nil != err {
		return nil, fault.ErrInvalidKeyFile
	}
	pk, ok := sk.Public().(*mode3.PublicKey)
	if !ok {
		return nil, fault.ErrInvalidKeyFile
	}
	return pk.MarshalBinary()
}

func (dilithiumScheme) Sign(privateKey []byte, message []byte) ([]byte, error) {
	var sk mode3.PrivateKey
	if err := sk.UnmarshalBinary(privateKey); nil != err {
		return nil, fault.ErrInvalidKeyFile
	}
	signature := make([]byte, mode3.SignatureSize)
	mode3.SignTo(&sk, message, signature)
	return signature, nil
}

func (dilithiumScheme) Verify(publicKey []byte, message []byte, signature []byte) bool {
	if mode3.PublicKeySize != len(publicKey) || mode3.SignatureSize != len(signature) {
		return false
	}
	var pk mode3.PublicKey
	if err := pk.UnmarshalBinary(publicKey); nil != err {
		return false
	}
	return mode3.Verify(&pk, message, signature)
}

// classical signatures, as used for bitmark accounts
type ed25519Scheme struct{}

func (ed25519Scheme) Name() string { return Ed25519 }

func (ed25519Scheme) GenerateKey() ([]byte, []byte, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if nil != err {
		return nil, nil, err
	}
	return publicKey, privateKey, nil
}

func (ed25519Scheme) PublicKey(privateKey []byte) ([]byte, error) {
	if ed25519.PrivateKeySize != len(privateKey) {
		return nil, fault.ErrInvalidKeyFile
	}
	return ed25519.PrivateKey(privateKey).Public().(ed25519.PublicKey), nil
}

func (ed25519Scheme) Sign(privateKey []byte, message []byte) ([]byte, error) {
	if ed25519.PrivateKeySize != len(privateKey) {
		return nil, fault.ErrInvalidKeyFile
	}
	return ed25519.Sign(privateKey, message), nil
}

func (ed25519Scheme) Verify(publicKey []byte, message []byte, signature []byte) bool {
	if ed25519.PublicKeySize != len(publicKey) || ed25519.SignatureSize != len(signature) {
		return false
	}
	return ed25519.Verify(publicKey, message, signature)
}
