// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"testing"

	"github.com/bitmark-inc/provenanced/fault"
)

var (
	ErrConfigurationOne = fault.ConfigurationError("configuration one")
	ErrConfigurationTwo = fault.ConfigurationError("configuration two")
	ErrExistsOne        = fault.ExistsError("exists one ")
	ErrExistsTwo        = fault.ExistsError("exists two")
	ErrInvalidOne       = fault.InvalidError("invalid one")
	ErrInvalidTwo       = fault.InvalidError("invalid two")
	ErrNotFoundOne      = fault.NotFoundError("not found one")
	ErrNotFoundTwo      = fault.NotFoundError("not found two")
	ErrProcessOne       = fault.ProcessError("process one")
	ErrProcessTwo       = fault.ProcessError("process two")
)

// test that various errors can be subclassed
func TestClasses(t *testing.T) {
	errorList := []struct {
		err           error
		configuration bool
		exists        bool
		invalid       bool
		notFound      bool
		process       bool
	}{
		{ErrConfigurationOne, true, false, false, false, false},
		{ErrConfigurationTwo, true, false, false, false, false},
		{ErrExistsOne, false, true, false, false, false},
		{ErrExistsTwo, false, true, false, false, false},
		{ErrInvalidOne, false, false, true, false, false},
		{ErrInvalidTwo, false, false, true, false, false},
		{ErrNotFoundOne, false, false, false, true, false},
		{ErrNotFoundTwo, false, false, false, true, false},
		{ErrProcessOne, false, false, false, false, true},
		{ErrProcessTwo, false, false, false, false, true},
		{fault.ErrSystemKeysNotConfigured, true, false, false, false, false},
		{fault.ErrGenesisAlreadyExists, false, true, false, false, false},
		{fault.ErrEmptyPool, false, false, false, true, false},
		{fault.ErrUninitialisedChain, false, false, false, true, false},
	}

	for i, e := range errorList {
		err := e.err
		if fault.IsErrConfiguration(err) != e.configuration {
			t.Errorf("%d: expected 'configuration' == %v for err = %v", i, e.configuration, err)
		}
		if fault.IsErrExists(err) != e.exists {
			t.Errorf("%d: expected 'exists' == %v for err = %v", i, e.exists, err)
		}
		if fault.IsErrInvalid(err) != e.invalid {
			t.Errorf("%d: expected 'invalid' == %v for err = %v", i, e.invalid, err)
		}
		if fault.IsErrNotFound(err) != e.notFound {
			t.Errorf("%d: expected 'not found' == %v for err = %v", i, e.notFound, err)
		}
		if fault.IsErrProcess(err) != e.process {
			t.Errorf("%d: expected 'process' == %v for err = %v", i, e.process, err)
		}
	}
}
