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

import "github.com/jeremyhahn/go-authbridge/pkg/operation"

// Scripted handlers stand in for the UI layer a real application would
// provide. Each resolves its round-trip immediately with a fixed answer.

type scriptedPinEnroller struct {
	pin string
}

func (e *scriptedPinEnroller) EnrollPin(ctx operation.PinEnrollmentContext, handler operation.PinEnrollmentHandler) {
	if ctx.LastError != "" {
		printVerbose("PIN enrollment rejected: %s", ctx.LastError)
	}
	if err := handler.EnrollPin(e.pin); err != nil {
		printVerbose("PIN enrollment resolution failed: %v", err)
	}
}

type scriptedPinVerifier struct {
	pin string
}

func (v *scriptedPinVerifier) VerifyPin(ctx operation.PinVerificationContext, handler operation.PinVerificationHandler) {
	if ctx.LastAttemptFailed {
		printVerbose("previous PIN attempt failed")
	}
	if err := handler.VerifyPin(v.pin); err != nil {
		printVerbose("PIN verification resolution failed: %v", err)
	}
}

type scriptedPinChanger struct {
	oldPin string
	newPin string
}

func (c *scriptedPinChanger) ChangePin(ctx operation.PinChangeContext, handler operation.PinChangeHandler) {
	if err := handler.ChangePin(c.oldPin, c.newPin); err != nil {
		printVerbose("PIN change resolution failed: %v", err)
	}
}

type scriptedAccountSelector struct {
	username string
}

func (s *scriptedAccountSelector) SelectAccount(ctx operation.AccountSelectionContext, handler operation.AccountSelectionHandler) {
	username := s.username
	if username == "" && len(ctx.Accounts) > 0 {
		username = ctx.Accounts[0].Username
	}
	if err := handler.SelectAccount(username); err != nil {
		printVerbose("account selection resolution failed: %v", err)
	}
}
