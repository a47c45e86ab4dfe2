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

import (
	"encoding/json"
	"fmt"
)

// Event type discriminators emitted by the native side.
const (
	EventAccountSelectionRequired           = "accountSelectionRequired"
	EventAuthenticatorSelectionRequired     = "authenticatorSelectionRequired"
	EventPinEnrollmentRequired              = "pinEnrollmentRequired"
	EventPinVerificationRequired            = "pinVerificationRequired"
	EventPinChangeRequired                  = "pinChangeRequired"
	EventBiometricVerificationRequired      = "biometricVerificationRequired"
	EventDevicePasscodeVerificationRequired = "devicePasscodeVerificationRequired"
	EventFingerprintVerificationRequired    = "fingerprintVerificationRequired"
	EventOperationSuccess                   = "onSuccess"
	EventOperationError                     = "onError"

	// EventDeviceInformationChanged is global: it carries no operation
	// identifier and is delivered to the client-level observer.
	EventDeviceInformationChanged = "localDeviceInformationChanged"
)

// Envelope is the discriminated wrapper every native event arrives in.
type Envelope struct {
	// Type is the event discriminator.
	Type string `json:"type"`

	// OperationID correlates the event with an in-flight operation.
	// Empty for global events.
	OperationID string `json:"operationId,omitempty"`

	// Data is the event-specific payload.
	Data json.RawMessage `json:"data,omitempty"`
}

// ParseEnvelope decodes a raw native event. It fails on malformed JSON or a
// missing type tag; unknown type tags parse successfully and are left to the
// dispatcher to drop.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type tag", ErrMalformedEvent)
	}
	return &env, nil
}

// KnownType reports whether the envelope carries a recognized discriminator.
func (e *Envelope) KnownType() bool {
	switch e.Type {
	case EventAccountSelectionRequired,
		EventAuthenticatorSelectionRequired,
		EventPinEnrollmentRequired,
		EventPinVerificationRequired,
		EventPinChangeRequired,
		EventBiometricVerificationRequired,
		EventDevicePasscodeVerificationRequired,
		EventFingerprintVerificationRequired,
		EventOperationSuccess,
		EventOperationError,
		EventDeviceInformationChanged:
		return true
	}
	return false
}

// DecodePayload unmarshals the envelope payload into v. An absent payload
// leaves v untouched; missing optional fields decode to zero values.
func (e *Envelope) DecodePayload(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformedEvent, e.Type, err)
	}
	return nil
}

// AccountSelectionPayload accompanies EventAccountSelectionRequired.
type AccountSelectionPayload struct {
	// Accounts are the candidates the user may choose between.
	Accounts []Account `json:"accounts"`

	// TransactionConfirmationData is optional transaction detail the
	// selector should display before the user commits.
	TransactionConfirmationData string `json:"transactionConfirmationData,omitempty"`
}

// AuthenticatorSelectionPayload accompanies EventAuthenticatorSelectionRequired.
type AuthenticatorSelectionPayload struct {
	Authenticators []Authenticator `json:"authenticators"`
}

// PinEnrollmentPayload accompanies EventPinEnrollmentRequired.
type PinEnrollmentPayload struct {
	// LastError describes why the previous enrollment attempt was
	// rejected. Empty on the first prompt.
	LastError string `json:"lastError,omitempty"`
}

// PinVerificationPayload accompanies EventPinVerificationRequired and
// EventPinChangeRequired.
type PinVerificationPayload struct {
	// AttemptsRemaining is nil when the authenticator does not limit
	// attempts.
	AttemptsRemaining *int `json:"attemptsRemaining,omitempty"`

	// LastAttemptFailed is true on re-prompts after a wrong PIN.
	LastAttemptFailed bool `json:"lastAttemptFailed,omitempty"`
}

// BiometricVerificationPayload accompanies EventBiometricVerificationRequired.
type BiometricVerificationPayload struct {
	LastError string `json:"lastError,omitempty"`
}

// FingerprintVerificationPayload accompanies EventFingerprintVerificationRequired.
type FingerprintVerificationPayload struct {
	LastError string `json:"lastError,omitempty"`
}

// SuccessPayload accompanies EventOperationSuccess. Authorization is nil for
// operations that do not produce a token (deregistration, PIN change,
// device information change).
type SuccessPayload struct {
	Authorization *AuthorizationToken `json:"authorization,omitempty"`
}

// ErrorPayload accompanies EventOperationError. Type is the native error
// discriminator consumed by the clienterror converters.
type ErrorPayload struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Cause       string `json:"cause,omitempty"`
}

// DeviceInformationChangedPayload accompanies EventDeviceInformationChanged.
type DeviceInformationChangedPayload struct {
	DeviceInformation DeviceInformation `json:"deviceInformation"`
}
