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

package clienterror

import "github.com/jeremyhahn/go-authbridge/pkg/message"

// UserVerificationErrorKind discriminates user verification failures. The
// same kinds apply to every verification capability; each capability keeps
// its own error type so callers can tell which prompt failed.
type UserVerificationErrorKind string

const (
	UserVerificationLockout      UserVerificationErrorKind = "lockout"
	UserVerificationUserCanceled UserVerificationErrorKind = "userCanceled"
	UserVerificationNotEnrolled  UserVerificationErrorKind = "notEnrolled"
	UserVerificationUnknown      UserVerificationErrorKind = "unknown"
)

var userVerificationKinds = map[string]UserVerificationErrorKind{
	"lockout":      UserVerificationLockout,
	"userCanceled": UserVerificationUserCanceled,
	"notEnrolled":  UserVerificationNotEnrolled,
}

func toUserVerificationKind(discriminator string) UserVerificationErrorKind {
	kind, ok := userVerificationKinds[discriminator]
	if !ok {
		kind = UserVerificationUnknown
	}
	return kind
}

// PinUserVerificationError is returned when PIN verification fails terminally.
type PinUserVerificationError struct {
	Kind        UserVerificationErrorKind
	Description string
	Cause       string
}

// Error returns the error message.
func (e *PinUserVerificationError) Error() string {
	return format("pin user verification", string(e.Kind), e.Description, e.Cause)
}

// Is matches another PinUserVerificationError by kind.
func (e *PinUserVerificationError) Is(target error) bool {
	t, ok := target.(*PinUserVerificationError)
	return ok && t.Kind == e.Kind
}

// ToPinUserVerificationError converts a native error payload.
func ToPinUserVerificationError(p message.ErrorPayload) *PinUserVerificationError {
	return &PinUserVerificationError{
		Kind:        toUserVerificationKind(p.Type),
		Description: p.Description,
		Cause:       p.Cause,
	}
}

// BiometricUserVerificationError is returned when biometric verification
// fails terminally.
type BiometricUserVerificationError struct {
	Kind        UserVerificationErrorKind
	Description string
	Cause       string
}

// Error returns the error message.
func (e *BiometricUserVerificationError) Error() string {
	return format("biometric user verification", string(e.Kind), e.Description, e.Cause)
}

// Is matches another BiometricUserVerificationError by kind.
func (e *BiometricUserVerificationError) Is(target error) bool {
	t, ok := target.(*BiometricUserVerificationError)
	return ok && t.Kind == e.Kind
}

// ToBiometricUserVerificationError converts a native error payload.
func ToBiometricUserVerificationError(p message.ErrorPayload) *BiometricUserVerificationError {
	return &BiometricUserVerificationError{
		Kind:        toUserVerificationKind(p.Type),
		Description: p.Description,
		Cause:       p.Cause,
	}
}

// DevicePasscodeUserVerificationError is returned when device passcode
// verification fails terminally.
type DevicePasscodeUserVerificationError struct {
	Kind        UserVerificationErrorKind
	Description string
	Cause       string
}

// Error returns the error message.
func (e *DevicePasscodeUserVerificationError) Error() string {
	return format("device passcode user verification", string(e.Kind), e.Description, e.Cause)
}

// Is matches another DevicePasscodeUserVerificationError by kind.
func (e *DevicePasscodeUserVerificationError) Is(target error) bool {
	t, ok := target.(*DevicePasscodeUserVerificationError)
	return ok && t.Kind == e.Kind
}

// ToDevicePasscodeUserVerificationError converts a native error payload.
func ToDevicePasscodeUserVerificationError(p message.ErrorPayload) *DevicePasscodeUserVerificationError {
	return &DevicePasscodeUserVerificationError{
		Kind:        toUserVerificationKind(p.Type),
		Description: p.Description,
		Cause:       p.Cause,
	}
}

// FingerprintUserVerificationError is returned when fingerprint verification
// fails terminally.
type FingerprintUserVerificationError struct {
	Kind        UserVerificationErrorKind
	Description string
	Cause       string
}

// Error returns the error message.
func (e *FingerprintUserVerificationError) Error() string {
	return format("fingerprint user verification", string(e.Kind), e.Description, e.Cause)
}

// Is matches another FingerprintUserVerificationError by kind.
func (e *FingerprintUserVerificationError) Is(target error) bool {
	t, ok := target.(*FingerprintUserVerificationError)
	return ok && t.Kind == e.Kind
}

// ToFingerprintUserVerificationError converts a native error payload.
func ToFingerprintUserVerificationError(p message.ErrorPayload) *FingerprintUserVerificationError {
	return &FingerprintUserVerificationError{
		Kind:        toUserVerificationKind(p.Type),
		Description: p.Description,
		Cause:       p.Cause,
	}
}
