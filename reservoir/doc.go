// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package reservoir - the pending transaction pool
//
// transactions wait here, durably, until a block containing them has
// been persisted; they are removed only as part of the same atomic
// batch that advances the chain
package reservoir
