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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-authbridge/pkg/message"
)

func TestToInitializationError(t *testing.T) {
	tests := []struct {
		nativeType string
		wantKind   InitializationErrorKind
	}{
		{"deviceProtectionError", InitializationDeviceProtection},
		{"noDeviceLock", InitializationNoDeviceLock},
		{"lockScreenHasChanged", InitializationLockScreenHasChanged},
		{"hardwareError", InitializationHardware},
		{"rooted", InitializationRooted},
		{"somethingFromTheFuture", InitializationUnknown},
		{"", InitializationUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.nativeType, func(t *testing.T) {
			err := ToInitializationError(message.ErrorPayload{
				Type:        tt.nativeType,
				Description: "desc",
				Cause:       "cause",
			})
			assert.Equal(t, tt.wantKind, err.Kind)
			assert.Equal(t, "desc", err.Description)
			assert.Equal(t, "cause", err.Cause)
		})
	}
}

func TestToRegistrationError(t *testing.T) {
	tests := []struct {
		nativeType string
		wantKind   RegistrationErrorKind
	}{
		{"fidoError", RegistrationFido},
		{"networkError", RegistrationNetwork},
		{"deviceProtectionError", RegistrationDeviceProtection},
		{"noDeviceLock", RegistrationNoDeviceLock},
		{"userCanceled", RegistrationUserCanceled},
		{"unmapped", RegistrationUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.nativeType, func(t *testing.T) {
			err := ToRegistrationError(message.ErrorPayload{Type: tt.nativeType})
			assert.Equal(t, tt.wantKind, err.Kind)
		})
	}
}

func TestToAuthenticationError(t *testing.T) {
	tests := []struct {
		nativeType string
		wantKind   AuthenticationErrorKind
	}{
		{"fidoError", AuthenticationFido},
		{"networkError", AuthenticationNetwork},
		{"deviceProtectionError", AuthenticationDeviceProtection},
		{"noDeviceLock", AuthenticationNoDeviceLock},
		{"userCanceled", AuthenticationUserCanceled},
		{"unmapped", AuthenticationUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.nativeType, func(t *testing.T) {
			err := ToAuthenticationError(message.ErrorPayload{Type: tt.nativeType})
			assert.Equal(t, tt.wantKind, err.Kind)
		})
	}
}

// TestToOutOfBandOperationError_TokenExpired covers the scenario where the
// native side reports an expired redemption token: the caller must receive
// the tokenExpired variant with the native diagnostics preserved verbatim.
func TestToOutOfBandOperationError_TokenExpired(t *testing.T) {
	err := ToOutOfBandOperationError(message.ErrorPayload{
		Type:        "tokenExpired",
		Description: "the out-of-band token expired 5 minutes ago",
		Cause:       "server rejected redemption",
	})

	assert.Equal(t, OutOfBandOperationTokenExpired, err.Kind)
	assert.Equal(t, "the out-of-band token expired 5 minutes ago", err.Description)
	assert.Equal(t, "server rejected redemption", err.Cause)
}

func TestToOutOfBandOperationError(t *testing.T) {
	tests := []struct {
		nativeType string
		wantKind   OutOfBandOperationErrorKind
	}{
		{"tokenExpired", OutOfBandOperationTokenExpired},
		{"tokenAlreadyRedeemed", OutOfBandOperationTokenAlreadyRedeemed},
		{"networkError", OutOfBandOperationNetwork},
		{"deviceProtectionError", OutOfBandOperationDeviceProtection},
		{"noDeviceLock", OutOfBandOperationNoDeviceLock},
		{"unmapped", OutOfBandOperationUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.nativeType, func(t *testing.T) {
			err := ToOutOfBandOperationError(message.ErrorPayload{Type: tt.nativeType})
			assert.Equal(t, tt.wantKind, err.Kind)
		})
	}
}

func TestToOutOfBandPayloadError(t *testing.T) {
	tests := []struct {
		nativeType string
		wantKind   OutOfBandPayloadErrorKind
	}{
		{"decryptionError", OutOfBandPayloadDecryption},
		{"malformedPayload", OutOfBandPayloadMalformed},
		{"expired", OutOfBandPayloadExpired},
		{"unmapped", OutOfBandPayloadUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.nativeType, func(t *testing.T) {
			err := ToOutOfBandPayloadError(message.ErrorPayload{Type: tt.nativeType})
			assert.Equal(t, tt.wantKind, err.Kind)
		})
	}
}

func TestToPinChangeError(t *testing.T) {
	tests := []struct {
		nativeType string
		wantKind   PinChangeErrorKind
	}{
		{"pinLocked", PinChangePinLocked},
		{"pinNotEnrolled", PinChangePinNotEnrolled},
		{"userCanceled", PinChangeUserCanceled},
		{"deviceProtectionError", PinChangeDeviceProtection},
		{"unmapped", PinChangeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.nativeType, func(t *testing.T) {
			err := ToPinChangeError(message.ErrorPayload{Type: tt.nativeType})
			assert.Equal(t, tt.wantKind, err.Kind)
		})
	}
}

func TestToDeviceInformationChangeError(t *testing.T) {
	tests := []struct {
		nativeType string
		wantKind   DeviceInformationChangeErrorKind
	}{
		{"nameAlreadyExists", DeviceInformationChangeNameAlreadyExists},
		{"notFound", DeviceInformationChangeNotFound},
		{"networkError", DeviceInformationChangeNetwork},
		{"signingError", DeviceInformationChangeSigning},
		{"unmapped", DeviceInformationChangeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.nativeType, func(t *testing.T) {
			err := ToDeviceInformationChangeError(message.ErrorPayload{Type: tt.nativeType})
			assert.Equal(t, tt.wantKind, err.Kind)
		})
	}
}

func TestToUserVerificationErrors(t *testing.T) {
	payload := message.ErrorPayload{Type: "lockout", Description: "too many attempts"}

	assert.Equal(t, UserVerificationLockout, ToPinUserVerificationError(payload).Kind)
	assert.Equal(t, UserVerificationLockout, ToBiometricUserVerificationError(payload).Kind)
	assert.Equal(t, UserVerificationLockout, ToDevicePasscodeUserVerificationError(payload).Kind)
	assert.Equal(t, UserVerificationLockout, ToFingerprintUserVerificationError(payload).Kind)

	unmapped := message.ErrorPayload{Type: "weird"}
	assert.Equal(t, UserVerificationUnknown, ToPinUserVerificationError(unmapped).Kind)
}

// TestConvert verifies the domain routing of the total converter.
func TestConvert(t *testing.T) {
	payload := message.ErrorPayload{Type: "networkError", Description: "offline"}

	tests := []struct {
		domain Domain
		want   error
	}{
		{DomainInitialization, &InitializationError{Kind: InitializationUnknown}},
		{DomainRegistration, &RegistrationError{Kind: RegistrationNetwork}},
		{DomainAuthentication, &AuthenticationError{Kind: AuthenticationNetwork}},
		{DomainOutOfBandOperation, &OutOfBandOperationError{Kind: OutOfBandOperationNetwork}},
		{DomainDeregistration, &DeregistrationError{Kind: DeregistrationNetwork}},
		{DomainPinChange, &PinChangeError{Kind: PinChangeUnknown}},
		{DomainDeviceInformationChange, &DeviceInformationChangeError{Kind: DeviceInformationChangeNetwork}},
	}

	for _, tt := range tests {
		t.Run(string(tt.domain), func(t *testing.T) {
			err := Convert(tt.domain, payload)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// Unrecognized domains fall back to the authentication taxonomy.
	err := Convert(Domain("bogus"), payload)
	assert.ErrorIs(t, err, &AuthenticationError{Kind: AuthenticationNetwork})
}

func TestErrorIsMatchesByKind(t *testing.T) {
	err := ToAuthenticationError(message.ErrorPayload{Type: "userCanceled", Description: "user backed out"})

	assert.True(t, errors.Is(err, &AuthenticationError{Kind: AuthenticationUserCanceled}))
	assert.False(t, errors.Is(err, &AuthenticationError{Kind: AuthenticationFido}))
	assert.False(t, errors.Is(err, errors.New("userCanceled")))
}

func TestErrorMessagePreservesDiagnostics(t *testing.T) {
	err := ToRegistrationError(message.ErrorPayload{
		Type:        "fidoError",
		Description: "attestation rejected",
		Cause:       "status code 1490",
	})

	msg := err.Error()
	assert.Contains(t, msg, "fidoError")
	assert.Contains(t, msg, "attestation rejected")
	assert.Contains(t, msg, "status code 1490")
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ToRegistrationError(message.ErrorPayload{Type: "fidoError"})))
	assert.True(t, IsClientError(ToOutOfBandPayloadError(message.ErrorPayload{Type: "expired"})))
	assert.False(t, IsClientError(errors.New("plain")))
	assert.False(t, IsClientError(nil))
}
