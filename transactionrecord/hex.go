// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transactionrecord

import (
	"encoding/hex"
)

// HexBytes - byte data that is represented as hex in JSON
type HexBytes []byte

// String - hex representation
func (h HexBytes) String() string {
	return hex.EncodeToString(h)
}

// MarshalText - convert to hex text
func (h HexBytes) MarshalText() ([]byte, error) {
	buffer := make([]byte, hex.EncodedLen(len(h)))
	hex.Encode(buffer, h)
	return buffer, nil
}

// UnmarshalText - convert from hex text
func (h *HexBytes) UnmarshalText(s []byte) error {
	buffer := make([]byte, hex.DecodedLen(len(s)))
	n, err := hex.Decode(buffer, s)
	if nil != err {
		return err
	}
	*h = buffer[:n]
	return nil
}
