// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error classes and instances for the ledger
//
// every error a caller may need to act on is a single comparable
// instance, classified as configuration, exists, invalid, not found
// or process.  Errors that carry data (tier write results, verification
// reasons) are defined by the package producing them.
package fault
