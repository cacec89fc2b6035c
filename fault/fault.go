// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ConfigurationError GenericError
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised         = ProcessError("already initialised")
	ErrBlockNotFound              = NotFoundError("block not found")
	ErrCrossDatabaseBatch         = ProcessError("batch spans databases")
	ErrDecryptionFailed           = InvalidError("decryption failed")
	ErrDescriptorNotFound         = NotFoundError("storage descriptor not found")
	ErrEmptyPool                  = NotFoundError("pending pool is empty")
	ErrGenesisAlreadyExists       = ExistsError("genesis block already exists")
	ErrInvalidBlockNumber         = InvalidError("invalid block number")
	ErrInvalidConfiguration       = ConfigurationError("invalid configuration")
	ErrInvalidDigest              = InvalidError("invalid digest")
	ErrInvalidEncryptionKey       = ConfigurationError("encryption key must be 32 bytes")
	ErrInvalidKeyFile             = InvalidError("invalid key file")
	ErrInvalidKeyVersion          = InvalidError("invalid key version")
	ErrInvalidPublicKey           = InvalidError("invalid public key")
	ErrInvalidRecord              = InvalidError("invalid record")
	ErrInvalidSignature           = InvalidError("invalid signature")
	ErrInvalidStructPointer       = InvalidError("invalid struct pointer")
	ErrInvalidTransaction         = InvalidError("invalid transaction")
	ErrInvalidTransactionType     = InvalidError("invalid transaction type")
	ErrKeyFileAlreadyExists       = ExistsError("key file already exists")
	ErrKeyHandleNotFound          = NotFoundError("signing key handle not found")
	ErrKeyVersionConflict         = ExistsError("key version already registered with a different key")
	ErrMiningInProgress           = ProcessError("mining already in progress")
	ErrMissingTransactionData     = InvalidError("missing transaction data")
	ErrNoTiersInPolicy            = ConfigurationError("storage policy has no tiers")
	ErrNotInitialised             = ProcessError("not initialised")
	ErrObjectNotFound             = NotFoundError("object not found")
	ErrReportNotFound             = NotFoundError("maintenance report not found")
	ErrSignatureAlgorithm         = ConfigurationError("unsupported signature algorithm")
	ErrSystemKeysNotConfigured    = ConfigurationError("system signing keys are not configured")
	ErrTierNotConfigured          = ConfigurationError("storage tier is not configured")
	ErrTransactionAlreadyExists   = ExistsError("transaction already exists")
	ErrTransactionNotFound        = NotFoundError("transaction not found")
	ErrUninitialisedChain         = NotFoundError("chain has no genesis block")
	ErrUnknownTier                = InvalidError("unknown storage tier")
	ErrUnsupportedDatabaseVersion = ProcessError("unsupported database version")
	ErrWrongBlockSequence         = ProcessError("block number out of sequence")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ConfigurationError) Error() string { return string(e) }
func (e ExistsError) Error() string        { return string(e) }
func (e InvalidError) Error() string       { return string(e) }
func (e NotFoundError) Error() string      { return string(e) }
func (e ProcessError) Error() string       { return string(e) }

// determine the class of an error
func IsErrConfiguration(e error) bool { _, ok := e.(ConfigurationError); return ok }
func IsErrExists(e error) bool        { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool       { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool      { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool       { _, ok := e.(ProcessError); return ok }
