// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain the on-disk data store
//
// maintain separate pools of a number of elements in key->value form
//
// This maintains two LevelDB databases split into a series of tables.
// Each table is defined by a prefix byte that is obtained from the
// prefix tag in the struct defining the available tables.
//
// Notes:
// 1. each separate pool has a single byte prefix (to spread the keys in LevelDB)
// 2. ++           = concatenation of byte data
// 3. block number = big endian uint64 (8 bytes)
// 4. txId         = transaction id string bytes
// 5. sequence     = insertion counter as big endian uint64 (8 bytes)
//
// Ledger database:
//
//	P ++ txId                  - pending transaction pool
//	                             data: sequence ++ packed transaction
//	S ++ name                  - single values: pending count, next sequence,
//	                             latest block (number ++ hash), latest report key
//	T ++ txId                  - confirmed transaction index
//	                             data: block number
//	D ++ object key            - storage descriptor (JSON)
//
// Tier database:
//
//	X ++ object key            - low latency index tier copy of an object
//	                             data: object bytes
package storage
