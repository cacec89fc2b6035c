// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/provenanced/configuration"
	"github.com/bitmark-inc/provenanced/fault"
)

type storageSection struct {
	Tiers   []string `gluamapper:"tiers"`
	Timeout string   `gluamapper:"timeout"`
}

type testConfiguration struct {
	DataDirectory string            `gluamapper:"data_directory"`
	Interval      string            `gluamapper:"interval"`
	Relaxed       bool              `gluamapper:"relaxed"`
	Rate          float64           `gluamapper:"rate"`
	Storage       storageSection    `gluamapper:"storage"`
	Levels        map[string]string `gluamapper:"levels"`
}

func write(t *testing.T, text string) string {
	fileName := filepath.Join(t.TempDir(), "test.conf")
	require.Nil(t, os.WriteFile(fileName, []byte(text), 0600))
	return fileName
}

func TestParse(t *testing.T) {
	fileName := write(t, `
local M = {}
M.data_directory = data_directory or arg[0]
M.interval = "30m"
M.relaxed = true
M.rate = 2.5
M.storage = {
    tiers = { "index", "object-store" },
    timeout = "5s",
}
M.levels = {
    ledger = "info",
    DEFAULT = "warn",
}
return M
`)

	c := &testConfiguration{
		Interval: "1h",
	}
	err := configuration.ParseConfigurationFile(fileName, c, map[string]string{
		"data_directory": "/var/lib/provenanced",
	})
	require.Nil(t, err)

	assert.Equal(t, "/var/lib/provenanced", c.DataDirectory)
	assert.Equal(t, "30m", c.Interval)
	assert.True(t, c.Relaxed)
	assert.Equal(t, 2.5, c.Rate)
	assert.Equal(t, []string{"index", "object-store"}, c.Storage.Tiers)
	assert.Equal(t, "5s", c.Storage.Timeout)
	assert.Equal(t, "warn", c.Levels["DEFAULT"])
}

func TestParseArgZero(t *testing.T) {
	fileName := write(t, `return { data_directory = arg[0] }`)

	c := &testConfiguration{}
	require.Nil(t, configuration.ParseConfigurationFile(fileName, c, nil))
	assert.Equal(t, fileName, c.DataDirectory)
}

func TestParseErrors(t *testing.T) {
	fileName := write(t, `return 42`)
	err := configuration.ParseConfigurationFile(fileName, &testConfiguration{}, nil)
	assert.True(t, errors.Is(err, fault.ErrInvalidConfiguration), "error: %v", err)

	err = configuration.ParseConfigurationFile(fileName, testConfiguration{}, nil)
	assert.Equal(t, fault.ErrInvalidStructPointer, err)

	broken := write(t, `return {`)
	err = configuration.ParseConfigurationFile(broken, &testConfiguration{}, nil)
	assert.NotNil(t, err)

	err = configuration.ParseConfigurationFile(filepath.Join(t.TempDir(), "missing.conf"), &testConfiguration{}, nil)
	assert.NotNil(t, err)
}
