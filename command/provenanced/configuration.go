// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/provenanced/configuration"
	"github.com/bitmark-inc/provenanced/fault"
	"github.com/bitmark-inc/provenanced/signature"
	"github.com/bitmark-inc/provenanced/tier/object"
	"github.com/bitmark-inc/provenanced/tiered"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultLevelDBDirectory = "data"
	defaultDatabaseName     = "provenance"
	defaultKeyDirectory     = "keys"
	defaultContentDirectory = "content"

	defaultMaintenanceInterval = "1h"
	defaultMaintenanceRate     = 10.0 // blocks per second

	defaultLogDirectory = "log"
	defaultLogFile      = "provenanced.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size
)

// to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		"main":            "info",
		logger.DefaultTag: "critical",
	}

	defaultStorageTiers = []string{"index", "object-store", "content-network"}
	defaultReportTiers  = []string{"index", "object-store"}
)

type DatabaseType struct {
	Directory string `gluamapper:"directory" json:"directory"`
	Name      string `gluamapper:"name" json:"name"`
}

type KeysType struct {
	Directory string `gluamapper:"directory" json:"directory"`
	Algorithm string `gluamapper:"algorithm" json:"algorithm"`
	Watch     bool   `gluamapper:"watch" json:"watch"`
}

type ContentType struct {
	Directory string `gluamapper:"directory" json:"directory"`
	Gateway   string `gluamapper:"gateway" json:"gateway"`
}

type MaintenanceType struct {
	Interval string  `gluamapper:"interval" json:"interval"`
	Relaxed  bool    `gluamapper:"relaxed" json:"relaxed"`
	Rate     float64 `gluamapper:"rate" json:"rate"`
}

// a blank interval disables automatic mining
type MiningType struct {
	Interval string `gluamapper:"interval" json:"interval"`
}

type MetricsType struct {
	Listen string `gluamapper:"listen" json:"listen"`
}

type Configuration struct {
	DataDirectory string                     `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string                     `gluamapper:"pidfile" json:"pidfile"`
	Database      DatabaseType               `gluamapper:"database" json:"database"`
	Keys          KeysType                   `gluamapper:"keys" json:"keys"`
	Storage       tiered.PolicyConfiguration `gluamapper:"storage" json:"storage"`
	Reports       tiered.PolicyConfiguration `gluamapper:"reports" json:"reports"`
	ObjectStore   object.Configuration       `gluamapper:"object_store" json:"object_store"`
	Content       ContentType                `gluamapper:"content_network" json:"content_network"`
	Maintenance   MaintenanceType            `gluamapper:"maintenance" json:"maintenance"`
	Mining        MiningType                 `gluamapper:"mining" json:"mining"`
	Metrics       MetricsType                `gluamapper:"metrics" json:"metrics"`
	Logging       logger.Configuration       `gluamapper:"logging" json:"logging"`

	// decoded forms of the above
	storagePolicy       tiered.Policy
	reportPolicy        tiered.Policy
	maintenanceInterval time.Duration
	miningInterval      time.Duration
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string, variables map[string]string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default

		Database: DatabaseType{
			Directory: defaultLevelDBDirectory,
			Name:      defaultDatabaseName,
		},

		Keys: KeysType{
			Directory: defaultKeyDirectory,
			Algorithm: signature.Dilithium3,
			Watch:     true,
		},

		Storage: tiered.PolicyConfiguration{
			Timeout: tiered.DefaultTimeout.String(),
		},

		Reports: tiered.PolicyConfiguration{
			Timeout: tiered.DefaultTimeout.String(),
		},

		Content: ContentType{
			Directory: defaultContentDirectory,
		},

		Maintenance: MaintenanceType{
			Interval: defaultMaintenanceInterval,
			Rate:     defaultMaintenanceRate,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options, variables); err != nil {
		return nil, err
	}

	// list defaults are applied after parsing as a configured list
	// would only overwrite a prefix of them
	if 0 == len(options.Storage.Tiers) {
		options.Storage.Tiers = append([]string{}, defaultStorageTiers...)
	}
	if 0 == len(options.Reports.Tiers) {
		options.Reports.Tiers = append([]string{}, defaultReportTiers...)
	}

	if _, err := signature.SchemeByName(options.Keys.Algorithm); nil != err {
		return nil, fmt.Errorf("keys: algorithm: %q: %w", options.Keys.Algorithm, err)
	}

	if options.storagePolicy, err = tiered.NewPolicy(&options.Storage); nil != err {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if options.reportPolicy, err = tiered.NewPolicy(&options.Reports); nil != err {
		return nil, fmt.Errorf("reports: %w", err)
	}

	if options.maintenanceInterval, err = parseInterval(options.Maintenance.Interval); nil != err {
		return nil, fmt.Errorf("maintenance: interval: %w", err)
	}
	if options.miningInterval, err = parseInterval(options.Mining.Interval); nil != err {
		return nil, fmt.Errorf("mining: interval: %w", err)
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("%w: path: %q is not a valid directory", fault.ErrInvalidConfiguration, options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	}
	options.DataDirectory = filepath.Clean(options.DataDirectory)

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("%w: path: %q is not a directory", fault.ErrInvalidConfiguration, options.DataDirectory)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
		&options.Content.Directory,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = ensureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if any of these are not simple file names i.e. must
	// not contain path seperator, then add the correct directory
	// prefix, file item is first and corresponding directory is
	// second (or nil if no prefix can be added)
	options.Database.Directory = ensureAbsolute(options.DataDirectory, options.Database.Directory)
	mustNotBePaths := [][2]*string{
		{&options.Database.Name, &options.Database.Directory},
		{&options.Logging.File, nil},
	}
	for _, f := range mustNotBePaths {
		switch filepath.Dir(*f[0]) {
		case "", ".":
			if nil != f[1] {
				*f[0] = ensureAbsolute(*f[1], *f[0])
			}
		default:
			return nil, fmt.Errorf("%w: files: %q is not plain name", fault.ErrInvalidConfiguration, *f[0])
		}
	}

	// make absolute and create directories if they do not already exist
	directories := []*string{
		&options.Database.Directory,
		&options.Keys.Directory,
		&options.Logging.Directory,
	}
	if "" != options.Content.Directory {
		directories = append(directories, &options.Content.Directory)
	}
	for _, d := range directories {
		*d = ensureAbsolute(options.DataDirectory, *d)
		if err := os.MkdirAll(*d, 0700); nil != err {
			return nil, err
		}
	}

	// done
	return options, nil
}

// blank means disabled
func parseInterval(s string) (time.Duration, error) {
	if "" == s {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if nil != err {
		return 0, err
	}
	if d < 0 {
		return 0, fault.ErrInvalidConfiguration
	}
	return d, nil
}

// ensureAbsolute - if a path is not absolute, prepend the directory
func ensureAbsolute(directory string, filePath string) string {
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(directory, filePath)
	}
	return filepath.Clean(filePath)
}
