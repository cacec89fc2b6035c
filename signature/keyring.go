// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package signature

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"

	"github.com/bitmark-inc/logger"
	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/provenanced/fault"
)

// Oracle - the signing capability consumed by the ledger
//
// Sign uses a private key identified by an opaque handle; Verify is
// stateless and needs only the public key
type Oracle interface {
	Sign(message []byte, handle string) ([]byte, error)
	Verify(message []byte, signature []byte, publicKey []byte) bool
}

// SystemKey - a versioned system signing key
type SystemKey struct {
	Handle    string
	PublicKey []byte
	Version   uint64
}

// Keyring - an in-process oracle holding private keys by handle
//
// it also tracks the versioned system keys; the highest loaded
// version is the current one
type Keyring struct {
	sync.RWMutex

	log     *logger.L
	scheme  Scheme
	keys    map[string][]byte
	system  map[uint64]SystemKey
	current uint64
}

// matches system-<version>.private
var systemKeyFile = regexp.MustCompile(`^system-([0-9]+)\.private$`)

// NewKeyring - create an empty keyring for one signature scheme
func NewKeyring(scheme Scheme) *Keyring {
	return &Keyring{
		log:    logger.New("keyring"),
		scheme: scheme,
		keys:   make(map[string][]byte),
		system: make(map[uint64]SystemKey),
	}
}

// Handle - the handle of a key is derived from its public half
func Handle(publicKey []byte) string {
	digest := sha3.Sum256(publicKey)
	return hex.EncodeToString(digest[:16])
}

// SystemKeyFileNames - the pair of file names for a system key version
func SystemKeyFileNames(directory string, version uint64) (string, string) {
	base := filepath.Join(directory, fmt.Sprintf("system-%d", version))
	return base + ".public", base + ".private"
}

// Scheme - the signature scheme of this keyring
func (k *Keyring) Scheme() Scheme {
	return k.scheme
}

// AddKey - register a private key and return its handle
func (k *Keyring) AddKey(privateKey []byte) (string, []byte, error) {
	publicKey, err := k.scheme.PublicKey(privateKey)
	if nil != err {
		return "", nil, err
	}
	handle := Handle(publicKey)

	k.Lock()
	k.keys[handle] = privateKey
	k.Unlock()

	return handle, publicKey, nil
}

// AddSystemKey - register a versioned system key
func (k *Keyring) AddSystemKey(version uint64, privateKey []byte) (SystemKey, error) {
	if 0 == version {
		return SystemKey{}, fault.ErrInvalidKeyVersion
	}
	handle, publicKey, err := k.AddKey(privateKey)
	if nil != err {
		return SystemKey{}, err
	}

	key := SystemKey{
		Handle:    handle,
		PublicKey: publicKey,
		Version:   version,
	}

	k.Lock()
	defer k.Unlock()

	if existing, ok := k.system[version]; ok && !bytes.Equal(existing.PublicKey, publicKey) {
		return SystemKey{}, fault.ErrKeyVersionConflict
	}
	k.system[version] = key
	if version > k.current {
		k.current = version
		k.log.Infof("current system key version: %d  handle: %s", version, handle)
	}
	return key, nil
}

// Current - the system key used for new signatures
func (k *Keyring) Current() (SystemKey, error) {
	k.RLock()
	defer k.RUnlock()

	if 0 == k.current {
		return SystemKey{}, fault.ErrSystemKeysNotConfigured
	}
	return k.system[k.current], nil
}

// SystemPublicKey - public key for a system key version
func (k *Keyring) SystemPublicKey(version uint64) ([]byte, bool) {
	k.RLock()
	defer k.RUnlock()

	key, ok := k.system[version]
	if !ok {
		return nil, false
	}
	return key.PublicKey, true
}

// Sign - sign a message with the key behind a handle
func (k *Keyring) Sign(message []byte, handle string) ([]byte, error) {
	k.RLock()
	privateKey, ok := k.keys[handle]
	k.RUnlock()

	if !ok {
		return nil, fault.ErrKeyHandleNotFound
	}
	return k.scheme.Sign(privateKey, message)
}

// Verify - check a signature against a public key
func (k *Keyring) Verify(message []byte, signature []byte, publicKey []byte) bool {
	return k.scheme.Verify(publicKey, message, signature)
}

// LoadDirectory - load every system-<version>.private file in a directory
//
// returns the number of keys loaded
func (k *Keyring) LoadDirectory(directory string) (int, error) {
	entries, err := os.ReadDir(directory)
	if nil != err {
		return 0, err
	}

	n := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		loaded, err := k.loadFile(filepath.Join(directory, entry.Name()))
		if nil != err {
			return n, err
		}
		if loaded {
			n += 1
		}
	}
	return n, nil
}

// load a single system key file, ignoring unrelated files
func (k *Keyring) loadFile(fileName string) (bool, error) {
	match := systemKeyFile.FindStringSubmatch(filepath.Base(fileName))
	if nil == match {
		return false, nil
	}
	version, err := strconv.ParseUint(match[1], 10, 64)
	if nil != err {
		return false, fault.ErrInvalidKeyVersion
	}

	privateKey, err := ReadPrivateKeyFile(fileName)
	if nil != err {
		k.log.Errorf("read system key: %q  error: %s", fileName, err)
		return false, err
	}
	if _, err := k.AddSystemKey(version, privateKey); nil != err {
		k.log.Errorf("add system key: %q  error: %s", fileName, err)
		return false, err
	}
	k.log.Debugf("loaded system key: %q", fileName)
	return true, nil
}
