// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-authbridge.
//
// go-authbridge is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package cli implements the authbridge demo command line interface. It wires
// the bridge client to the simulated native authenticator and drives complete
// FIDO flows end to end.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile   string
	outputFormat string
	verbose      bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "authbridge",
	Short: "go-authbridge demo - FIDO mobile auth bridge against a simulated authenticator",
	Long: `go-authbridge demo drives the bridge client through complete FIDO
flows (registration, authentication, out-of-band redemption, PIN change,
deregistration) against an in-process simulated native authenticator.

The simulator runs real WebAuthn ceremonies, so every success the demo
reports was backed by an attestation or assertion that actually verified.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is built-in defaults with AUTHBRIDGE_ env overrides)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text",
		"output format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(demoCmd)
}

// handleError prints an error and exits with code 1
func handleError(err error) {
	printer := NewPrinter(outputFormat, os.Stderr)
	_ = printer.PrintError(err)
	os.Exit(1)
}

// printVerbose prints a message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] "+format+"\n", args...)
	}
}
