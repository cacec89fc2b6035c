// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/signature"
	"github.com/bitmark-inc/provenanced/tier"
)

func writeConfiguration(t *testing.T, text string) string {
	dir := t.TempDir()
	fileName := filepath.Join(dir, "provenanced.conf")
	require.Nil(t, os.WriteFile(fileName, []byte(text), 0600))
	return fileName
}

func TestConfigurationDefaults(t *testing.T) {
	fileName := writeConfiguration(t, `return { data_directory = "." }`)
	dir := filepath.Dir(fileName)

	c, err := getConfiguration(fileName, nil)
	require.Nil(t, err)

	assert.Equal(t, dir, c.DataDirectory)
	assert.Equal(t, filepath.Join(dir, "data", "provenance"), c.Database.Name)
	assert.Equal(t, filepath.Join(dir, "keys"), c.Keys.Directory)
	assert.Equal(t, filepath.Join(dir, "content"), c.Content.Directory)
	assert.Equal(t, filepath.Join(dir, "log"), c.Logging.Directory)
	assert.Equal(t, signature.Dilithium3, c.Keys.Algorithm)
	assert.True(t, c.Keys.Watch)

	assert.Equal(t, []tier.Tier{tier.Index, tier.ObjectStore, tier.ContentNetwork}, c.storagePolicy.Tiers)
	assert.Equal(t, []tier.Tier{tier.Index, tier.ObjectStore}, c.reportPolicy.Tiers)
	assert.Equal(t, 10*time.Second, c.storagePolicy.Timeout)
	assert.Equal(t, time.Hour, c.maintenanceInterval)
	assert.Equal(t, time.Duration(0), c.miningInterval)

	for _, d := range []string{c.Database.Directory, c.Keys.Directory, c.Content.Directory, c.Logging.Directory} {
		info, err := os.Stat(d)
		require.Nil(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestConfigurationOverrides(t *testing.T) {
	fileName := writeConfiguration(t, `
local M = {}
M.data_directory = base
M.keys = {
    directory = "secrets",
    algorithm = "ed25519",
    watch = false,
}
M.storage = {
    tiers = { "index" },
    timeout = "2s",
}
M.object_store = {
    bucket = "provenance",
    region = "eu-west-1",
    endpoint = "http://127.0.0.1:9000",
    path_style = true,
}
M.maintenance = {
    interval = "15m",
    relaxed = true,
    rate = 4,
}
M.mining = { interval = "30s" }
M.metrics = { listen = "127.0.0.1:9100" }
return M
`)
	base := t.TempDir()

	c, err := getConfiguration(fileName, map[string]string{"base": base})
	require.Nil(t, err)

	assert.Equal(t, base, c.DataDirectory)
	assert.Equal(t, filepath.Join(base, "secrets"), c.Keys.Directory)
	assert.Equal(t, signature.Ed25519, c.Keys.Algorithm)
	assert.False(t, c.Keys.Watch)

	// a shorter list replaces the default entirely
	assert.Equal(t, []tier.Tier{tier.Index}, c.storagePolicy.Tiers)
	assert.Equal(t, 2*time.Second, c.storagePolicy.Timeout)

	assert.Equal(t, "provenance", c.ObjectStore.Bucket)
	assert.True(t, c.ObjectStore.PathStyle)
	assert.True(t, c.Maintenance.Relaxed)
	assert.Equal(t, 4.0, c.Maintenance.Rate)
	assert.Equal(t, 15*time.Minute, c.maintenanceInterval)
	assert.Equal(t, 30*time.Second, c.miningInterval)
	assert.Equal(t, "127.0.0.1:9100", c.Metrics.Listen)
}

func TestConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no data directory", `return {}`},
		{"bad algorithm", `return { data_directory = ".", keys = { algorithm = "rsa" } }`},
		{"unknown tier", `return { data_directory = ".", storage = { tiers = { "tape" } } }`},
		{"bad interval", `return { data_directory = ".", mining = { interval = "soon" } }`},
		{"database path", `return { data_directory = ".", database = { name = "a/b" } }`},
	}

	for _, test := range tests {
		_, err := getConfiguration(writeConfiguration(t, test.text), nil)
		assert.NotNil(t, err, test.name)
	}

	_, err := getConfiguration(writeConfiguration(t, `return { data_directory = "." }`+"\n"), nil)
	assert.Nil(t, err)

	_, err = getConfiguration(writeConfiguration(t, `return {}`), nil)
	assert.True(t, errors.Is(err, fault.ErrInvalidConfiguration))
}
