// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

import (
	"strings"
)

// EmptyRoot - the root of a block with no transactions
var EmptyRoot = strings.Repeat("0", 2*DigestLength)

// Root - compute the root over an ordered list of transaction ids
//
// this is a single digest over the concatenated ids, not a binary
// tree; the stored block hashes depend on this exact form
func Root(txIds []string) string {
	if 0 == len(txIds) {
		return EmptyRoot
	}

	length := 0
	for _, id := range txIds {
		length += len(id)
	}

	buffer := make([]byte, 0, length)
	for _, id := range txIds {
		buffer = append(buffer, id...)
	}
	return NewDigest(buffer).String()
}
