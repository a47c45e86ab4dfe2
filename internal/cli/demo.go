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

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-authbridge/internal/config"
	"github.com/jeremyhahn/go-authbridge/pkg/client"
	"github.com/jeremyhahn/go-authbridge/pkg/logging"
	"github.com/jeremyhahn/go-authbridge/pkg/message"
	"github.com/jeremyhahn/go-authbridge/pkg/metrics"
	"github.com/jeremyhahn/go-authbridge/pkg/nativesim"
	"github.com/jeremyhahn/go-authbridge/pkg/oob"
)

var (
	demoUsername string
	demoPin      string
	demoNewPin   string
)

// demoCmd represents the demo command
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the full FIDO flow against the simulated authenticator",
	Long: `Run initialization, registration with PIN enrollment, PIN-verified
authentication, out-of-band redemption, PIN change, device information
change and deregistration as one scripted session.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDemo(cmd.Context()); err != nil {
			handleError(err)
		}
	},
}

func init() {
	demoCmd.Flags().StringVar(&demoUsername, "username", "demo@example.com", "account to register and authenticate")
	demoCmd.Flags().StringVar(&demoPin, "pin", "246810", "PIN to enroll during registration")
	demoCmd.Flags().StringVar(&demoNewPin, "new-pin", "135791", "PIN to change to")
}

func runDemo(ctx context.Context) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	log := logging.NewLogger(cfg.Debug())
	printer := NewPrinter(outputFormat, os.Stdout)

	if cfg.Metrics.Enabled {
		metrics.Enable()
		collector := metrics.StartResourceCollector(ctx, cfg.Metrics.ResourceInterval)
		defer collector.Stop()
	}

	signingKey := cfg.RelyingParty.SigningKey
	if signingKey == "" {
		signingKey = "authbridge-demo-signing-key"
	}
	sim, err := nativesim.NewSimulator(nativesim.Params{
		RPID:        cfg.RelyingParty.ID,
		RPName:      cfg.RelyingParty.Name,
		Origin:      cfg.RelyingParty.Origin,
		SigningKey:  []byte(signingKey),
		PinAttempts: cfg.RelyingParty.PinAttempts,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("failed to create simulator: %w", err)
	}

	bridge, err := client.New(client.ClientParams{
		Boundary: sim,
		Events:   sim,
		Logger:   log,
		OnDeviceInformationChanged: func(device message.DeviceInformation) {
			_ = printer.PrintDeviceInformation(device)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create bridge client: %w", err)
	}

	opCtx, cancel := context.WithTimeout(ctx, cfg.Client.OperationTimeout)
	defer cancel()

	printVerbose("initializing native SDK against %s", cfg.Client.ServerURL)
	if err := bridge.Initialize(opCtx, client.Initialization{
		ServerURL: cfg.Client.ServerURL,
		Debug:     cfg.Debug(),
	}); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	printVerbose("registering %s", demoUsername)
	regToken, err := bridge.Register(opCtx, client.Registration{
		Username:          demoUsername,
		ServerURL:         cfg.Client.ServerURL,
		DeviceInformation: &message.DeviceInformation{Name: "authbridge demo device"},
		PinEnroller:       &scriptedPinEnroller{pin: demoPin},
	})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	if err := printer.PrintToken("Registration", regToken); err != nil {
		return err
	}

	printVerbose("authenticating via account selection with PIN verification")
	authToken, err := bridge.Authenticate(opCtx, client.Authentication{
		AccountSelector: &scriptedAccountSelector{username: demoUsername},
		PinUserVerifier: &scriptedPinVerifier{pin: demoPin},
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	if err := printer.PrintToken("Authentication", authToken); err != nil {
		return err
	}

	printVerbose("redeeming out-of-band authentication token")
	// Round the payload through its QR representation, the same way a second
	// device would receive it.
	qr, err := json.Marshal(sim.IssueOutOfBandToken(demoUsername, "authentication"))
	if err != nil {
		return fmt.Errorf("failed to encode out-of-band payload: %w", err)
	}
	oobPayload, err := oob.DecodeQR(qr)
	if err != nil {
		return fmt.Errorf("failed to decode out-of-band payload: %w", err)
	}
	oobToken, err := bridge.ProcessOutOfBand(opCtx, client.OutOfBandOperation{
		Payload:         oobPayload,
		PinUserVerifier: &scriptedPinVerifier{pin: demoPin},
	})
	if err != nil {
		return fmt.Errorf("out-of-band redemption failed: %w", err)
	}
	if err := printer.PrintToken("Out-of-band authentication", oobToken); err != nil {
		return err
	}

	printVerbose("changing PIN")
	if err := bridge.ChangePin(opCtx, client.PinChange{
		Username:   demoUsername,
		PinChanger: &scriptedPinChanger{oldPin: demoPin, newPin: demoNewPin},
	}); err != nil {
		return fmt.Errorf("PIN change failed: %w", err)
	}
	if err := printer.PrintSuccess("PIN changed"); err != nil {
		return err
	}

	printVerbose("updating device information")
	if err := bridge.ChangeDeviceInformation(opCtx, client.DeviceInformationChange{
		Name:      "authbridge demo device (renamed)",
		PushToken: "demo-push-token",
	}); err != nil {
		return fmt.Errorf("device information change failed: %w", err)
	}

	printVerbose("deregistering %s", demoUsername)
	if err := bridge.Deregister(opCtx, client.Deregistration{
		Username:      demoUsername,
		Authorization: authToken,
	}); err != nil {
		return fmt.Errorf("deregistration failed: %w", err)
	}
	return printer.PrintSuccess("Demo complete: all flows finished")
}
