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

package message

import "encoding/json"

// CapabilityFlags tells the native side which optional handlers the caller
// configured. The native side prompts only for capabilities that are set and
// fails fast when a mandatory one is missing.
type CapabilityFlags struct {
	AccountSelectorSet            bool `json:"accountSelectorSet"`
	AuthenticatorSelectorSet      bool `json:"authenticatorSelectorSet"`
	PinEnrollerSet                bool `json:"pinEnrollerSet"`
	PinUserVerifierSet            bool `json:"pinUserVerifierSet"`
	BiometricUserVerifierSet      bool `json:"biometricUserVerifierSet"`
	DevicePasscodeUserVerifierSet bool `json:"devicePasscodeUserVerifierSet"`
	FingerprintUserVerifierSet    bool `json:"fingerprintUserVerifierSet"`
}

// InitializationRequest establishes the native SDK before any operation.
type InitializationRequest struct {
	OperationID string `json:"operationId"`
	ServerURL   string `json:"serverUrl,omitempty"`
	Debug       bool   `json:"debug,omitempty"`
}

// RegistrationRequest starts a FIDO registration flow.
type RegistrationRequest struct {
	OperationID       string              `json:"operationId"`
	Username          string              `json:"username,omitempty"`
	ServerURL         string              `json:"serverUrl,omitempty"`
	DeviceInformation *DeviceInformation  `json:"deviceInformation,omitempty"`
	Authorization     *AuthorizationToken `json:"authorization,omitempty"`
	CapabilityFlags
}

// AuthenticationRequest starts a FIDO authentication flow.
type AuthenticationRequest struct {
	OperationID string `json:"operationId"`
	Username    string `json:"username,omitempty"`
	CapabilityFlags
}

// OutOfBandOperationRequest redeems an out-of-band payload, continuing into
// registration or authentication as the backend directs.
type OutOfBandOperationRequest struct {
	OperationID string            `json:"operationId"`
	Payload     *OutOfBandPayload `json:"payload"`
	CapabilityFlags
}

// DeregistrationRequest removes credentials for a username, or for a single
// authenticator when AAID is set.
type DeregistrationRequest struct {
	OperationID   string              `json:"operationId"`
	Username      string              `json:"username"`
	AAID          string              `json:"aaid,omitempty"`
	Authorization *AuthorizationToken `json:"authorization,omitempty"`
}

// PinChangeRequest starts an interactive PIN change flow.
type PinChangeRequest struct {
	OperationID   string `json:"operationId"`
	Username      string `json:"username"`
	PinChangerSet bool   `json:"pinChangerSet"`
}

// DeviceInformationChangeRequest updates the dispatch target metadata.
type DeviceInformationChangeRequest struct {
	OperationID              string `json:"operationId"`
	Name                     string `json:"name,omitempty"`
	PushToken                string `json:"pushToken,omitempty"`
	DisablePushNotifications bool   `json:"disablePushNotifications,omitempty"`
}

// AccountSelectionResponse resolves an account selection round-trip.
type AccountSelectionResponse struct {
	OperationID string `json:"operationId"`
	Username    string `json:"username"`
}

// AuthenticatorSelectionResponse resolves an authenticator selection round-trip.
type AuthenticatorSelectionResponse struct {
	OperationID string `json:"operationId"`
	AAID        string `json:"aaid"`
}

// PinEnrollmentResponse resolves a PIN enrollment round-trip.
type PinEnrollmentResponse struct {
	OperationID string `json:"operationId"`
	Pin         string `json:"pin"`
}

// PinVerificationResponse resolves a PIN verification round-trip.
type PinVerificationResponse struct {
	OperationID string `json:"operationId"`
	Pin         string `json:"pin"`
}

// PinChangeResponse resolves a PIN change round-trip.
type PinChangeResponse struct {
	OperationID string `json:"operationId"`
	OldPin      string `json:"oldPin"`
	NewPin      string `json:"newPin"`
}

// VerificationConsentResponse resolves a biometric, device passcode or
// fingerprint prompt; the OS performs the actual verification.
type VerificationConsentResponse struct {
	OperationID string `json:"operationId"`
}

// CancelResponse aborts an in-flight round-trip on the native side.
type CancelResponse struct {
	OperationID string `json:"operationId"`
}

// EncodeRequest serializes an outgoing request or response for the native
// boundary.
func EncodeRequest(v any) ([]byte, error) {
	return json.Marshal(v)
}
