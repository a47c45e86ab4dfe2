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

package operation

import "github.com/jeremyhahn/go-authbridge/pkg/message"

// Handler contracts follow an explicit round-trip: the dispatcher invokes the
// caller-supplied handler with a context value and a resolution handler, and
// the native side blocks that step until the handler resolves exactly once,
// either with a value or with Cancel. The bridge imposes no timeout; an
// unresolved handler stalls its operation indefinitely.

// AccountSelectionContext carries the candidates for an account selection
// prompt.
type AccountSelectionContext struct {
	Accounts                    []message.Account
	TransactionConfirmationData string
}

// AccountSelectionHandler resolves an account selection round-trip.
type AccountSelectionHandler interface {
	SelectAccount(username string) error
	Cancel() error
}

// AccountSelector is implemented by callers that can choose between accounts.
type AccountSelector interface {
	SelectAccount(ctx AccountSelectionContext, handler AccountSelectionHandler)
}

// AuthenticatorSelectionContext carries the candidates for an authenticator
// selection prompt.
type AuthenticatorSelectionContext struct {
	Authenticators []message.Authenticator
}

// AuthenticatorSelectionHandler resolves an authenticator selection
// round-trip.
type AuthenticatorSelectionHandler interface {
	SelectAuthenticator(aaid string) error
	Cancel() error
}

// AuthenticatorSelector is implemented by callers that can choose between
// authenticators.
type AuthenticatorSelector interface {
	SelectAuthenticator(ctx AuthenticatorSelectionContext, handler AuthenticatorSelectionHandler)
}

// PinEnrollmentContext carries the state of a PIN enrollment prompt.
type PinEnrollmentContext struct {
	// LastError describes the rejection of the previous attempt, empty on
	// the first prompt.
	LastError string
}

// PinEnrollmentHandler resolves a PIN enrollment round-trip.
type PinEnrollmentHandler interface {
	EnrollPin(pin string) error
	Cancel() error
}

// PinEnroller is implemented by callers that can collect a new PIN during
// registration.
type PinEnroller interface {
	EnrollPin(ctx PinEnrollmentContext, handler PinEnrollmentHandler)
}

// PinVerificationContext carries the state of a PIN verification prompt.
type PinVerificationContext struct {
	// AttemptsRemaining is nil when the authenticator does not limit
	// attempts.
	AttemptsRemaining *int

	// LastAttemptFailed is true on re-prompts after a wrong PIN.
	LastAttemptFailed bool
}

// PinVerificationHandler resolves a PIN verification round-trip.
type PinVerificationHandler interface {
	VerifyPin(pin string) error
	Cancel() error
}

// PinUserVerifier is implemented by callers that can collect the user's PIN.
type PinUserVerifier interface {
	VerifyPin(ctx PinVerificationContext, handler PinVerificationHandler)
}

// PinChangeContext carries the state of a PIN change prompt.
type PinChangeContext struct {
	AttemptsRemaining *int
	LastAttemptFailed bool
}

// PinChangeHandler resolves a PIN change round-trip.
type PinChangeHandler interface {
	ChangePin(oldPin, newPin string) error
	Cancel() error
}

// PinChanger is implemented by callers that can collect the old and new PIN.
type PinChanger interface {
	ChangePin(ctx PinChangeContext, handler PinChangeHandler)
}

// VerificationConsentHandler resolves an OS-mediated verification prompt
// (biometric, device passcode, fingerprint); the OS performs the actual
// verification once the caller consents.
type VerificationConsentHandler interface {
	Verify() error
	Cancel() error
}

// BiometricVerificationContext carries the state of a biometric prompt.
type BiometricVerificationContext struct {
	LastError string
}

// BiometricUserVerifier is implemented by callers that can present a
// biometric prompt.
type BiometricUserVerifier interface {
	VerifyBiometric(ctx BiometricVerificationContext, handler VerificationConsentHandler)
}

// DevicePasscodeVerificationContext carries the state of a device passcode
// prompt.
type DevicePasscodeVerificationContext struct{}

// DevicePasscodeUserVerifier is implemented by callers that can present a
// device passcode prompt.
type DevicePasscodeUserVerifier interface {
	VerifyDevicePasscode(ctx DevicePasscodeVerificationContext, handler VerificationConsentHandler)
}

// FingerprintVerificationContext carries the state of a fingerprint prompt.
type FingerprintVerificationContext struct {
	LastError string
}

// FingerprintUserVerifier is implemented by callers that can present a
// fingerprint prompt.
type FingerprintUserVerifier interface {
	VerifyFingerprint(ctx FingerprintVerificationContext, handler VerificationConsentHandler)
}
