// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/provenanced/background"
	"github.com/bitmark-inc/provenanced/maintenance"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
		{Long: "define", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'D'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration and
	// process data needed for initial setup
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// -D name=value become Lua globals
	variables := make(map[string]string)
	for _, d := range options["define"] {
		name, value, ok := strings.Cut(d, "=")
		if !ok || "" == name {
			exitwithstatus.Message("%s: define: %q is not name=value", program, d)
		}
		variables[name] = value
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile, variables)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// cancelled on SIGINT/SIGTERM so data commands stop early
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("initialise storage and tiers")
	n, err := newNode(ctx, log, theConfiguration)
	if nil != err {
		log.Criticalf("initialise error: %s", err)
		exitwithstatus.Message("initialise error: %s", err)
	}
	defer n.close()

	// these commands are allowed to access the internal database
	if len(arguments) > 0 && processDataCommand(ctx, log, arguments, n) {
		return
	}

	maintainer := background.NewPeriodic(
		"maintainer",
		theConfiguration.maintenanceInterval,
		n.walker.Job(maintenance.Options{Relaxed: theConfiguration.Maintenance.Relaxed}),
	)
	miner := background.NewPeriodic("miner", theConfiguration.miningInterval, miningJob(n.ledger))

	processes := background.Processes{maintainer, miner}

	if theConfiguration.Keys.Watch {
		watcher, err := n.keyring.NewWatcher(theConfiguration.Keys.Directory)
		if nil != err {
			log.Criticalf("key watcher error: %s", err)
			exitwithstatus.Message("key watcher error: %s", err)
		}
		processes = append(processes, watcher)
	}

	if "" != theConfiguration.Metrics.Listen {
		processes = append(processes, newMetricsServer(theConfiguration.Metrics.Listen, n.registry))
	}

	bg := background.Start(processes, nil)

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// SIGHUP runs maintenance now, SIGUSR1 mines now
	triggers := make(chan os.Signal, 1)
	signal.Notify(triggers, syscall.SIGHUP, syscall.SIGUSR1)
	defer signal.Stop(triggers)

loop:
	for {
		select {
		case sig := <-triggers:
			log.Infof("received signal: %v", sig)
			switch sig {
			case syscall.SIGHUP:
				maintainer.Trigger()
			case syscall.SIGUSR1:
				miner.Trigger()
			}
		case <-ctx.Done():
			break loop
		}
	}

	log.Info("shutting down…")
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nshutting down…\n")
	}
	bg.Stop()
}
