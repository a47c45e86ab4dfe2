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

// Package message implements the data-only codec spoken across the native
// boundary. Outgoing operation requests are encoded into flat JSON documents
// carrying an operation identifier and capability flags; inbound native events
// arrive as a discriminated envelope and are decoded into typed payloads.
package message

import "time"

// Account identifies a user account registered with the native SDK.
type Account struct {
	// Username is the server-side account identifier.
	Username string `json:"username"`

	// Server is the base URL of the backend the account belongs to.
	Server string `json:"server,omitempty"`

	// DisplayName is an optional human-readable account label.
	DisplayName string `json:"displayName,omitempty"`
}

// Authenticator describes a verification capability available on the device.
type Authenticator struct {
	// AAID is the authenticator attestation identifier.
	AAID string `json:"aaid"`

	// Registered reports whether the authenticator already holds a
	// credential for the account being operated on.
	Registered bool `json:"registered"`

	// SupportedByHardware reports whether the device hardware can back
	// this authenticator (e.g. a fingerprint sensor is present).
	SupportedByHardware bool `json:"supportedByHardware"`

	// UserEnrolled reports whether the user has enrolled the underlying
	// OS-level credential (fingerprint, face, passcode).
	UserEnrolled bool `json:"userEnrolled"`
}

// DeviceInformation is the dispatch target metadata registered with the
// backend for out-of-band message delivery.
type DeviceInformation struct {
	// Name is the user-visible device name.
	Name string `json:"name"`

	// PushToken is the platform push notification registration token.
	PushToken string `json:"pushToken,omitempty"`

	// DeviceID is the backend-assigned device identifier. Empty until the
	// first registration completes.
	DeviceID string `json:"deviceId,omitempty"`
}

// AuthorizationToken is the proof of a completed registration or
// authentication, forwarded to the application for backend calls.
type AuthorizationToken struct {
	// Value is the opaque token contents.
	Value string `json:"value"`

	// Type discriminates the token encoding (e.g. "cookie", "jwt").
	Type string `json:"type,omitempty"`

	// ExpiresAt is the token expiry, zero when the backend did not
	// communicate one.
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// OutOfBandPayload is the decoded contents of an out-of-band message
// (QR code or push notification) redeemable against the backend.
type OutOfBandPayload struct {
	// Version is the payload format version.
	Version string `json:"version,omitempty"`

	// Operation names the flow the payload initiates: "registration" or
	// "authentication". Empty when the backend decides on redemption.
	Operation string `json:"operation,omitempty"`

	// TransactionID correlates the payload with a backend transaction.
	TransactionID string `json:"transactionId,omitempty"`

	// RedeemURL is the endpoint the native side redeems the token against.
	RedeemURL string `json:"redeemUrl"`

	// Token is the single-use redemption token.
	Token string `json:"token"`
}
