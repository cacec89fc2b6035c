// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/bitmark-inc/provenanced/fault"
)

// common errors - keep in alphabetic order
const (
	ErrMissingBlockFile = fault.InvalidError("block file is required")
	ErrMissingDataFile  = fault.InvalidError("data file is required")
	ErrMissingKeyFile   = fault.InvalidError("private key file is required")
	ErrSystemKeyFormat  = fault.InvalidError("system key must be VERSION:FILE")
)
