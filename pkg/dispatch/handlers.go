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

package dispatch

import (
	"context"
	"sync/atomic"

	"github.com/jeremyhahn/go-authbridge/pkg/channel"
	"github.com/jeremyhahn/go-authbridge/pkg/message"
)

// roundTrip is the one-shot resolution state bound to a single prompt.
// Exactly one resolution (a value or a cancel) reaches the native side;
// further attempts fail with ErrAlreadyResolved.
type roundTrip struct {
	boundary    channel.MethodChannel
	operationID string
	resolved    atomic.Bool
}

// resolve encodes and sends one resolution, enforcing the once-only
// invariant.
func (rt *roundTrip) resolve(method string, payload any) error {
	if !rt.resolved.CompareAndSwap(false, true) {
		return ErrAlreadyResolved
	}
	encoded, err := message.EncodeRequest(payload)
	if err != nil {
		return err
	}
	return rt.boundary.Invoke(context.Background(), method, encoded)
}

func (rt *roundTrip) cancel() error {
	return rt.resolve(channel.MethodCancel, message.CancelResponse{
		OperationID: rt.operationID,
	})
}

// accountSelectionHandler resolves an account selection prompt.
type accountSelectionHandler struct {
	*roundTrip
}

func (h *accountSelectionHandler) SelectAccount(username string) error {
	return h.resolve(channel.MethodSelectAccount, message.AccountSelectionResponse{
		OperationID: h.operationID,
		Username:    username,
	})
}

func (h *accountSelectionHandler) Cancel() error { return h.cancel() }

// authenticatorSelectionHandler resolves an authenticator selection prompt.
type authenticatorSelectionHandler struct {
	*roundTrip
}

func (h *authenticatorSelectionHandler) SelectAuthenticator(aaid string) error {
	return h.resolve(channel.MethodSelectAuthenticator, message.AuthenticatorSelectionResponse{
		OperationID: h.operationID,
		AAID:        aaid,
	})
}

func (h *authenticatorSelectionHandler) Cancel() error { return h.cancel() }

// pinEnrollmentHandler resolves a PIN enrollment prompt.
type pinEnrollmentHandler struct {
	*roundTrip
}

func (h *pinEnrollmentHandler) EnrollPin(pin string) error {
	return h.resolve(channel.MethodEnrollPin, message.PinEnrollmentResponse{
		OperationID: h.operationID,
		Pin:         pin,
	})
}

func (h *pinEnrollmentHandler) Cancel() error { return h.cancel() }

// pinVerificationHandler resolves a PIN verification prompt.
type pinVerificationHandler struct {
	*roundTrip
}

func (h *pinVerificationHandler) VerifyPin(pin string) error {
	return h.resolve(channel.MethodVerifyPin, message.PinVerificationResponse{
		OperationID: h.operationID,
		Pin:         pin,
	})
}

func (h *pinVerificationHandler) Cancel() error { return h.cancel() }

// pinChangeHandler resolves a PIN change prompt.
type pinChangeHandler struct {
	*roundTrip
}

func (h *pinChangeHandler) ChangePin(oldPin, newPin string) error {
	return h.resolve(channel.MethodConfirmPinChange, message.PinChangeResponse{
		OperationID: h.operationID,
		OldPin:      oldPin,
		NewPin:      newPin,
	})
}

func (h *pinChangeHandler) Cancel() error { return h.cancel() }

// verificationConsentHandler resolves a biometric, device passcode or
// fingerprint prompt; the OS performs the verification after consent.
type verificationConsentHandler struct {
	*roundTrip
}

func (h *verificationConsentHandler) Verify() error {
	return h.resolve(channel.MethodConsentVerification, message.VerificationConsentResponse{
		OperationID: h.operationID,
	})
}

func (h *verificationConsentHandler) Cancel() error { return h.cancel() }
