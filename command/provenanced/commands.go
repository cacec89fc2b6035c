// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/provenanced/blockrecord"
	"github.com/bitmark-inc/provenanced/ledger"
	"github.com/bitmark-inc/provenanced/maintenance"
	"github.com/bitmark-inc/provenanced/signature"
	"github.com/bitmark-inc/provenanced/tier"
	"github.com/bitmark-inc/provenanced/transactionrecord"
	"github.com/bitmark-inc/provenanced/verifier"
)

// setup command handler
//
// commands that run to create key files these commands cannot access
// any internal database or states or the configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-system-key", "key":
		if len(arguments) < 2 {
			exitwithstatus.Message("usage: gen-system-key DIR VERSION [ALGORITHM]")
		}
		version, err := strconv.ParseUint(arguments[1], 10, 64)
		if nil != err || 0 == version {
			exitwithstatus.Message("error: invalid key version: %q", arguments[1])
		}
		algorithm := signature.Dilithium3
		if len(arguments) > 2 {
			algorithm = arguments[2]
		}
		scheme, err := signature.SchemeByName(algorithm)
		if nil != err {
			exitwithstatus.Message("error: algorithm: %q  error: %s", algorithm, err)
		}

		publicKeyFilename, privateKeyFilename := signature.SystemKeyFileNames(arguments[0], version)
		err = signature.MakeKeyPair(scheme, publicKeyFilename, privateKeyFilename)
		if nil != err {
			fmt.Printf("generate private key: %q and public key: %q error: %s\n", privateKeyFilename, publicKeyFilename, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated private key: %q and public key: %q\n", privateKeyFilename, publicKeyFilename)

	case "start", "run":
		return false // continue processing

	case "config-test", "cfg":
		return false // defer processing until configuration is read

	case "genesis", "add", "submit", "mine", "maintain", "report", "stats", "block", "b", "latest", "tx", "verify":
		return false // defer processing until database is loaded

	case "version", "v":
		fmt.Printf("%s\n", version)
		return true

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                            (h)   - display this message\n\n")
		fmt.Printf("  version                         (v)   - display version sting\n\n")

		fmt.Printf("  gen-system-key DIR VERSION [ALG] (key) - create system key pair: %q\n", "DIR/system-VERSION.private")
		fmt.Printf("                                          ALG: %s (default) or %s\n", signature.Dilithium3, signature.Ed25519)
		fmt.Printf("\n")

		fmt.Printf("  start                           (run) - just run the program, same as no arguments\n")
		fmt.Printf("  config-test                     (cfg) - just check the configuration file\n")
		fmt.Printf("\n")

		fmt.Printf("  genesis                               - create the genesis block\n")
		fmt.Printf("  add TYPE DATA-FILE KEY-FILE           - sign and add a transaction with a user private key\n")
		fmt.Printf("  submit FILE                           - add a transaction signed by provenance-cli\n")
		fmt.Printf("  mine                                  - mine all pending transactions into a block\n")
		fmt.Printf("  maintain [relaxed] [FROM]             - verify and repair stored blocks\n")
		fmt.Printf("  report                                - print the latest maintenance report\n")
		fmt.Printf("  stats                                 - print chain statistics\n")
		fmt.Printf("  block N                         (b)   - print a block as JSON\n")
		fmt.Printf("  latest                                - print the latest block as JSON\n")
		fmt.Printf("  tx ID                                 - print a transaction and its status\n")
		fmt.Printf("  verify N [relaxed]                    - verify a stored block\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and preform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "config-test", "cfg":
		printJSON(options)

	default: // unknown commands fall through to data command
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// data command handler
// the ledger and storage tiers are open so these commands can access
// and/or change the chain
func processDataCommand(ctx context.Context, log *logger.L, arguments []string, n *node) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {

	case "start", "run":
		return false // continue processing

	case "genesis":
		b, err := n.ledger.CreateGenesisBlock(ctx)
		if nil != err {
			exitwithstatus.Message("genesis error: %s", err)
		}
		printJSON(b)

	case "add":
		if len(arguments) < 3 {
			exitwithstatus.Message("usage: add TYPE DATA-FILE KEY-FILE")
		}
		txType, err := transactionrecord.TagFromString(arguments[0])
		if nil != err {
			exitwithstatus.Message("error: type: %q  error: %s", arguments[0], err)
		}
		data := map[string]interface{}{}
		readJSON(arguments[1], &data)

		privateKey, err := signature.ReadPrivateKeyFile(arguments[2])
		if nil != err {
			exitwithstatus.Message("error: key file: %q  error: %s", arguments[2], err)
		}
		handle, publicKey, err := n.keyring.AddKey(privateKey)
		if nil != err {
			exitwithstatus.Message("error: key file: %q  error: %s", arguments[2], err)
		}
		id, err := n.ledger.AddTransaction(txType, data, handle, publicKey)
		if nil != err {
			exitwithstatus.Message("add transaction error: %s", err)
		}
		log.Infof("added transaction: %s", id)
		fmt.Printf("%s\n", id)

	case "submit":
		if len(arguments) < 1 {
			exitwithstatus.Message("usage: submit FILE")
		}
		submission := &ledger.Submission{}
		readJSON(arguments[0], submission)
		id, err := n.ledger.SubmitTransaction(submission)
		if nil != err {
			exitwithstatus.Message("submit transaction error: %s", err)
		}
		log.Infof("submitted transaction: %s", id)
		fmt.Printf("%s\n", id)

	case "mine":
		b, err := n.ledger.MineBlock(ctx)
		if nil != err {
			exitwithstatus.Message("mine error: %s", err)
		}
		printJSON(b)

	case "maintain":
		options := maintenance.Options{}
		for _, a := range arguments {
			if "relaxed" == a {
				options.Relaxed = true
				continue
			}
			from, err := strconv.ParseUint(a, 10, 64)
			if nil != err {
				exitwithstatus.Message("error in block number: %s", err)
			}
			options.FromBlock = from
		}
		report, err := n.walker.Run(ctx, options)
		if nil != report {
			printJSON(report)
		}
		if nil != err {
			exitwithstatus.Message("maintenance error: %s", err)
		}

	case "report":
		report, err := n.walker.LatestReport(ctx)
		if nil != err {
			exitwithstatus.Message("report error: %s", err)
		}
		printJSON(report)

	case "stats":
		stats, err := n.ledger.GetStats()
		if nil != err {
			exitwithstatus.Message("stats error: %s", err)
		}
		printJSON(stats)

	case "block", "b":
		number := blockNumber(arguments)
		b, err := n.ledger.GetBlock(ctx, number)
		if nil != err {
			exitwithstatus.Message("block: %d  error: %s", number, err)
		}
		printBlock(b)

	case "latest":
		b, err := n.ledger.GetLatestBlock(ctx)
		if nil != err {
			exitwithstatus.Message("latest block error: %s", err)
		}
		printBlock(b)

	case "tx":
		if len(arguments) < 1 {
			exitwithstatus.Message("missing transaction id argument")
		}
		info, err := n.ledger.GetTransaction(ctx, arguments[0])
		if nil != err {
			exitwithstatus.Message("transaction: %q  error: %s", arguments[0], err)
		}
		printJSON(info)

	case "verify":
		number := blockNumber(arguments)
		options := verifier.Options{
			Relaxed: len(arguments) > 1 && "relaxed" == arguments[1],
		}
		b, err := n.ledger.GetBlock(ctx, number)
		if nil != err {
			exitwithstatus.Message("block: %d  error: %s", number, err)
		}
		if err := n.ledger.Verifier().CheckBlock(b, options); nil != err {
			exitwithstatus.Message("block: %d  invalid: %s", number, err)
		}
		fmt.Printf("block: %d  valid\n", number)

	default:
		exitwithstatus.Message("error: no such command: %s", command)

	}

	// indicate processing complete and perform normal exit from main
	return true
}

func blockNumber(arguments []string) uint64 {
	if len(arguments) < 1 {
		exitwithstatus.Message("missing block number argument")
	}
	n, err := strconv.ParseUint(arguments[0], 10, 64)
	if nil != err {
		exitwithstatus.Message("error in block number: %s", err)
	}
	return n
}

// include where the block is stored
func printBlock(b *blockrecord.Block) {
	printJSON(struct {
		*blockrecord.Block
		Descriptor *tier.Descriptor `json:"storage,omitempty"`
	}{
		Block:      b,
		Descriptor: b.Descriptor,
	})
}

func readJSON(fileName string, item interface{}) {
	data, err := os.ReadFile(fileName)
	if nil != err {
		exitwithstatus.Message("error: read: %q  error: %s", fileName, err)
	}
	if err := json.Unmarshal(data, item); nil != err {
		exitwithstatus.Message("error: decode: %q  error: %s", fileName, err)
	}
}

func printJSON(item interface{}) {
	b, err := json.Marshal(item)
	if err != nil {
		exitwithstatus.Message("error: %s", err)
	}
	var out bytes.Buffer
	json.Indent(&out, b, "", "  ")
	out.WriteTo(os.Stdout)
	os.Stdout.WriteString("\n")
}
