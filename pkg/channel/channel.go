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

// Package channel declares the contracts of the native boundary. The native
// authenticator implementation is opaque; the bridge only relays encoded
// requests outbound and receives discriminated events inbound.
package channel

import "context"

// Method names for outbound calls.
const (
	MethodInitialize              = "initialize"
	MethodRegister                = "register"
	MethodAuthenticate            = "authenticate"
	MethodProcessOutOfBandPayload = "processOutOfBandPayload"
	MethodDeregister              = "deregister"
	MethodChangePin               = "changePin"
	MethodChangeDeviceInformation = "changeDeviceInformation"

	MethodSelectAccount       = "selectAccount"
	MethodSelectAuthenticator = "selectAuthenticator"
	MethodEnrollPin           = "enrollPin"
	MethodVerifyPin           = "verifyPin"
	MethodConfirmPinChange    = "confirmPinChange"
	MethodConsentVerification = "consentVerification"
	MethodCancel              = "cancel"
)

// MethodChannel carries encoded requests to the native side. Invoke returns
// once the native side accepted the request; operation outcomes arrive
// asynchronously on the EventChannel.
type MethodChannel interface {
	Invoke(ctx context.Context, method string, payload []byte) error
}

// EventChannel is the single stream of discriminated native events. Events
// for the same operation identifier are delivered in emission order; events
// for different identifiers may interleave arbitrarily.
type EventChannel interface {
	// Subscribe registers fn for every inbound event and returns an
	// unsubscribe function. At most one subscription is active per
	// listener lifetime.
	Subscribe(fn func(raw []byte)) (unsubscribe func(), err error)
}
