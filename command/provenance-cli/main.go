// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/bitmark-inc/logger"
	"github.com/urfave/cli"

	"github.com/bitmark-inc/provenanced/signature"
)

type metadata struct {
	scheme  signature.Scheme
	verbose bool
	e       io.Writer
	w       io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {

	app := cli.NewApp()
	app.Name = "provenance-cli"
	app.Usage = "offline keys, signing and verification for the provenance ledger"
	app.Version = version
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:  "algorithm, a",
			Value: signature.Dilithium3,
			Usage: " signature `ALGORITHM` [dilithium3|ed25519]",
		},
		cli.StringFlag{
			Name:  "log-directory, l",
			Value: os.TempDir(),
			Usage: " write the log file to `DIR`",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "generate",
			Usage:     "generate a user key pair",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "output, o",
					Value: "",
					Usage: " write `PREFIX`.public and `PREFIX`.private instead of printing",
				},
			},
			Action: runGenerate,
		},
		{
			Name:      "sign",
			Usage:     "sign a transaction submission",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "key, k",
					Value: "",
					Usage: "*user private key `FILE`",
				},
				cli.StringFlag{
					Name:  "type, t",
					Value: "document-record",
					Usage: " transaction `TYPE` [registration|document-record|transfer|admin-action]",
				},
				cli.StringFlag{
					Name:  "data, d",
					Value: "",
					Usage: "*transaction data JSON `FILE`",
				},
				cli.StringFlag{
					Name:  "id, i",
					Value: "",
					Usage: " transaction `ID` [random UUID]",
				},
			},
			Action: runSign,
		},
		{
			Name:      "verify",
			Usage:     "verify an exported block",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "block, b",
					Value: "",
					Usage: "*block JSON `FILE`",
				},
				cli.StringSliceFlag{
					Name:  "system-key, s",
					Usage: " trusted system public key `VERSION:FILE` (repeatable)",
				},
				cli.BoolFlag{
					Name:  "relaxed, r",
					Usage: " accept legacy hash and payload encodings",
				},
			},
			Action: runVerify,
		},
	}

	app.Before = func(c *cli.Context) error {
		scheme, err := signature.SchemeByName(c.GlobalString("algorithm"))
		if nil != err {
			return err
		}

		err = logger.Initialise(logger.Configuration{
			Directory: c.GlobalString("log-directory"),
			File:      "provenance-cli.log",
			Size:      1048576,
			Count:     2,
			Levels: map[string]string{
				logger.DefaultTag: "warn",
			},
		})
		if nil != err {
			return err
		}

		c.App.Metadata = map[string]interface{}{
			"config": &metadata{
				scheme:  scheme,
				verbose: c.GlobalBool("verbose"),
				e:       c.App.ErrWriter,
				w:       c.App.Writer,
			},
		}
		return nil
	}

	app.After = func(c *cli.Context) error {
		logger.Finalise()
		return nil
	}

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}
