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

// Package operation defines the in-flight operation records cached for the
// lifetime of one interactive flow, the caller-supplied handler contracts,
// and the process-wide cache correlating native events back to them.
package operation

import (
	"github.com/jeremyhahn/go-authbridge/pkg/clienterror"
	"github.com/jeremyhahn/go-authbridge/pkg/message"
)

// Operation is the tagged union of cacheable operation kinds. The dispatcher
// resolves an entry by identifier first, then branches on the concrete type.
type Operation interface {
	// ID returns the operation identifier used as the correlation key.
	ID() string

	// ErrorDomain selects the taxonomy terminal errors convert into.
	ErrorDomain() clienterror.Domain

	// Success delivers the terminal success payload.
	Success(payload *message.SuccessPayload)

	// Error delivers the terminal typed error.
	Error(err error)
}

// UserInteractionOperation is an interactive flow (registration,
// authentication, out-of-band operation, PIN change) holding the full set of
// optional handlers the caller configured. Handlers left nil were not
// configured; the native side is told so through capability flags and must
// not request them.
type UserInteractionOperation struct {
	OperationID string
	Domain      clienterror.Domain

	AccountSelector            AccountSelector
	AuthenticatorSelector      AuthenticatorSelector
	PinEnroller                PinEnroller
	PinChanger                 PinChanger
	PinUserVerifier            PinUserVerifier
	BiometricUserVerifier      BiometricUserVerifier
	DevicePasscodeUserVerifier DevicePasscodeUserVerifier
	FingerprintUserVerifier    FingerprintUserVerifier

	OnSuccess func(payload *message.SuccessPayload)
	OnError   func(err error)
}

// ID returns the operation identifier.
func (o *UserInteractionOperation) ID() string { return o.OperationID }

// ErrorDomain returns the taxonomy for terminal errors.
func (o *UserInteractionOperation) ErrorDomain() clienterror.Domain { return o.Domain }

// Success delivers the terminal success payload.
func (o *UserInteractionOperation) Success(payload *message.SuccessPayload) {
	if o.OnSuccess != nil {
		o.OnSuccess(payload)
	}
}

// Error delivers the terminal typed error.
func (o *UserInteractionOperation) Error(err error) {
	if o.OnError != nil {
		o.OnError(err)
	}
}

// Flags derives the capability flags to advertise to the native side.
func (o *UserInteractionOperation) Flags() message.CapabilityFlags {
	return message.CapabilityFlags{
		AccountSelectorSet:            o.AccountSelector != nil,
		AuthenticatorSelectorSet:      o.AuthenticatorSelector != nil,
		PinEnrollerSet:                o.PinEnroller != nil,
		PinUserVerifierSet:            o.PinUserVerifier != nil,
		BiometricUserVerifierSet:      o.BiometricUserVerifier != nil,
		DevicePasscodeUserVerifierSet: o.DevicePasscodeUserVerifier != nil,
		FingerprintUserVerifierSet:    o.FingerprintUserVerifier != nil,
	}
}

// PlatformOperation is a non-interactive flow (deregistration, device
// information change) with terminal callbacks only.
type PlatformOperation struct {
	OperationID string
	Domain      clienterror.Domain

	OnSuccess func(payload *message.SuccessPayload)
	OnError   func(err error)
}

// ID returns the operation identifier.
func (o *PlatformOperation) ID() string { return o.OperationID }

// ErrorDomain returns the taxonomy for terminal errors.
func (o *PlatformOperation) ErrorDomain() clienterror.Domain { return o.Domain }

// Success delivers the terminal success payload.
func (o *PlatformOperation) Success(payload *message.SuccessPayload) {
	if o.OnSuccess != nil {
		o.OnSuccess(payload)
	}
}

// Error delivers the terminal typed error.
func (o *PlatformOperation) Error(err error) {
	if o.OnError != nil {
		o.OnError(err)
	}
}
