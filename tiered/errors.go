// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tiered

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/bitmark-inc/provenanced/tier"
)

// Status - outcome of one tier operation
type Status struct {
	Err      error
	Location tier.Location
}

// Result - outcome of a write across the policy tiers
//
// Success is true only when every required tier succeeded
type Result struct {
	Key        string
	Success    bool
	PerTier    map[tier.Tier]Status
	Descriptor *tier.Descriptor
}

// Failed - tiers that did not succeed, in tier order
func (r *Result) Failed() []tier.Tier {
	failed := []tier.Tier{}
	for _, t := range tier.All() {
		if s, ok := r.PerTier[t]; ok && nil != s.Err {
			failed = append(failed, t)
		}
	}
	return failed
}

// combine the per tier failures
func (r *Result) errors() *multierror.Error {
	var result *multierror.Error
	for _, t := range r.Failed() {
		result = multierror.Append(result, fmt.Errorf("%s: %w", t, r.PerTier[t].Err))
	}
	return result
}

// TierWriteError - one or more required tiers failed
type TierWriteError struct {
	Key    string
	Result *Result
	err    *multierror.Error
}

func newTierWriteError(result *Result) *TierWriteError {
	return &TierWriteError{
		Key:    result.Key,
		Result: result,
		err:    result.errors(),
	}
}

func (e *TierWriteError) Error() string {
	names := []string{}
	for _, t := range e.Result.Failed() {
		names = append(names, t.String())
	}
	return fmt.Sprintf("tier write failed for: %q  tiers: %s  cause: %s", e.Key, strings.Join(names, ","), e.err.ErrorOrNil())
}

// Unwrap - the individual tier errors
func (e *TierWriteError) Unwrap() error {
	return e.err.ErrorOrNil()
}

// UnrecoverableDataError - no tier holds a verifiable copy
type UnrecoverableDataError struct {
	Key     string
	Reasons map[tier.Tier]error
}

func (e *UnrecoverableDataError) Error() string {
	parts := []string{}
	for _, t := range tier.All() {
		if err, ok := e.Reasons[t]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", t, err))
		}
	}
	return fmt.Sprintf("unrecoverable data for: %q  %s", e.Key, strings.Join(parts, "; "))
}
