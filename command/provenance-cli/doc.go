// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Offline user tool for the provenance ledger
//
// generates user key pairs, signs transaction submissions for the
// daemon's "submit" command and verifies exported blocks without any
// access to the daemon's database.
package main
