// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transactionrecord

import (
	"github.com/bitmark-inc/provenanced/fault"
)

// TagType - type code for transactions
type TagType uint8

// enumerate the possible transaction record types
const (
	// null marks beginning of list - not used as a record type
	NullTag = TagType(iota)

	RegistrationTag   = TagType(iota) // account or document owner registration
	DocumentRecordTag = TagType(iota) // document fingerprint record
	TransferTag       = TagType(iota) // document ownership transfer
	AdminActionTag    = TagType(iota) // administrative action

	// this item must be last
	InvalidTag = TagType(iota)
)

var tagNames = [...]string{
	NullTag:           "",
	RegistrationTag:   "registration",
	DocumentRecordTag: "document-record",
	TransferTag:       "transfer",
	AdminActionTag:    "admin-action",
}

// TagFromString - convert a type name to its tag
func TagFromString(s string) (TagType, error) {
	for i := RegistrationTag; i < InvalidTag; i += 1 {
		if tagNames[i] == s {
			return i, nil
		}
	}
	return NullTag, fault.ErrInvalidTransactionType
}

// IsValid - only real record types are valid
func (t TagType) IsValid() bool {
	return t > NullTag && t < InvalidTag
}

// String - name of the type
func (t TagType) String() string {
	if !t.IsValid() {
		return "invalid"
	}
	return tagNames[t]
}

// MarshalText - types are serialised by name
func (t TagType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fault.ErrInvalidTransactionType
	}
	return []byte(tagNames[t]), nil
}

// UnmarshalText - convert a name back to a type
func (t *TagType) UnmarshalText(s []byte) error {
	tag, err := TagFromString(string(s))
	if nil != err {
		return err
	}
	*t = tag
	return nil
}
