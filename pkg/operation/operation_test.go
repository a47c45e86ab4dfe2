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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-authbridge/pkg/clienterror"
	"github.com/jeremyhahn/go-authbridge/pkg/message"
)

type stubAccountSelector struct{}

func (stubAccountSelector) SelectAccount(ctx AccountSelectionContext, handler AccountSelectionHandler) {
}

type stubPinEnroller struct{}

func (stubPinEnroller) EnrollPin(ctx PinEnrollmentContext, handler PinEnrollmentHandler) {}

type stubPinVerifier struct{}

func (stubPinVerifier) VerifyPin(ctx PinVerificationContext, handler PinVerificationHandler) {}

type stubBiometricVerifier struct{}

func (stubBiometricVerifier) VerifyBiometric(ctx BiometricVerificationContext, handler VerificationConsentHandler) {
}

// Flags must advertise exactly the handlers the caller configured; a nil
// handler advertised as present would let the native side request a
// round-trip nobody can answer.
func TestUserInteractionOperationFlags(t *testing.T) {
	tests := []struct {
		name string
		op   UserInteractionOperation
		want message.CapabilityFlags
	}{
		{
			name: "none configured",
			op:   UserInteractionOperation{OperationID: "op-1"},
			want: message.CapabilityFlags{},
		},
		{
			name: "account selector and pin verifier",
			op: UserInteractionOperation{
				OperationID:     "op-2",
				AccountSelector: stubAccountSelector{},
				PinUserVerifier: stubPinVerifier{},
			},
			want: message.CapabilityFlags{
				AccountSelectorSet: true,
				PinUserVerifierSet: true,
			},
		},
		{
			name: "enrollment and biometric",
			op: UserInteractionOperation{
				OperationID:           "op-3",
				PinEnroller:           stubPinEnroller{},
				BiometricUserVerifier: stubBiometricVerifier{},
			},
			want: message.CapabilityFlags{
				PinEnrollerSet:           true,
				BiometricUserVerifierSet: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.Flags())
		})
	}
}

func TestUserInteractionOperationTerminalCallbacks(t *testing.T) {
	var gotPayload *message.SuccessPayload
	var gotErr error

	op := &UserInteractionOperation{
		OperationID: "op-1",
		Domain:      clienterror.DomainAuthentication,
		OnSuccess:   func(p *message.SuccessPayload) { gotPayload = p },
		OnError:     func(err error) { gotErr = err },
	}

	assert.Equal(t, "op-1", op.ID())
	assert.Equal(t, clienterror.DomainAuthentication, op.ErrorDomain())

	payload := &message.SuccessPayload{}
	op.Success(payload)
	require.Same(t, payload, gotPayload)

	sentinel := errors.New("terminal")
	op.Error(sentinel)
	assert.Same(t, sentinel, gotErr)
}

func TestPlatformOperationNilCallbacks(t *testing.T) {
	op := &PlatformOperation{OperationID: "op-1", Domain: clienterror.DomainDeregistration}

	// Unset callbacks are tolerated; terminal delivery must not panic.
	assert.NotPanics(t, func() {
		op.Success(&message.SuccessPayload{})
		op.Error(errors.New("boom"))
	})
}
