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

package nativesim

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-authbridge/pkg/channel"
	"github.com/jeremyhahn/go-authbridge/pkg/message"
)

func newToken() string {
	return uuid.New().String()
}

// runRegistration drives an attestation ceremony, optionally preceded by PIN
// enrollment when the caller configured a PIN enroller.
func (s *Simulator) runRegistration(sess *session, payload []byte) {
	var req message.RegistrationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.emitError(sess.id, message.ErrorPayload{Type: "fidoError", Description: "malformed registration request", Cause: err.Error()})
		return
	}
	if req.Username == "" {
		s.emitError(sess.id, message.ErrorPayload{Type: "fidoError", Description: "username is required"})
		return
	}
	s.register(sess, req.Username, req.CapabilityFlags)
}

// register is the shared tail of in-band and out-of-band registration.
func (s *Simulator) register(sess *session, username string, flags message.CapabilityFlags) {
	if flags.PinEnrollerSet {
		pin, ok := s.enrollPin(sess)
		if !ok {
			s.emitCanceled(sess.id, "registration canceled during PIN enrollment")
			return
		}
		s.mu.Lock()
		s.pins[username] = pin
		s.mu.Unlock()
	}

	if err := s.rp.register(username); err != nil {
		s.emitError(sess.id, message.ErrorPayload{Type: "fidoError", Description: "registration failed", Cause: err.Error()})
		return
	}
	token, err := s.rp.issueToken(username)
	if err != nil {
		s.emitError(sess.id, message.ErrorPayload{Type: "fidoError", Description: "token issuance failed", Cause: err.Error()})
		return
	}
	s.log.Debug("registration complete", "operationId", sess.id, "username", username)
	s.emitSuccess(sess.id, token)
}

// enrollPin prompts until an acceptable PIN arrives or the flow is canceled.
func (s *Simulator) enrollPin(sess *session) (string, bool) {
	lastError := ""
	for {
		s.emit(message.EventPinEnrollmentRequired, sess.id, &message.PinEnrollmentPayload{LastError: lastError})
		raw, ok := s.wait(sess, channel.MethodEnrollPin)
		if !ok {
			return "", false
		}
		var resp message.PinEnrollmentResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			lastError = "malformed PIN enrollment response"
			continue
		}
		if len(resp.Pin) < minPinLength {
			lastError = "PIN too short"
			continue
		}
		return resp.Pin, true
	}
}

// runAuthentication drives an assertion ceremony with the account selection
// and user verification prompts the caller's capability flags ask for.
func (s *Simulator) runAuthentication(sess *session, payload []byte) {
	var req message.AuthenticationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.emitError(sess.id, message.ErrorPayload{Type: "fidoError", Description: "malformed authentication request", Cause: err.Error()})
		return
	}
	s.authenticate(sess, req.Username, req.CapabilityFlags)
}

// authenticate is the shared tail of in-band and out-of-band authentication.
func (s *Simulator) authenticate(sess *session, username string, flags message.CapabilityFlags) {
	if username == "" {
		if !flags.AccountSelectorSet {
			s.emitError(sess.id, message.ErrorPayload{Type: "fidoError", Description: "no username and no account selector configured"})
			return
		}
		selected, ok := s.selectAccount(sess)
		if !ok {
			s.emitCanceled(sess.id, "authentication canceled during account selection")
			return
		}
		username = selected
	}
	if !s.rp.registered(username) {
		s.emitError(sess.id, message.ErrorPayload{Type: "fidoError", Description: "no credential registered for user"})
		return
	}

	if flags.AuthenticatorSelectorSet {
		if ok := s.selectAuthenticator(sess); !ok {
			s.emitCanceled(sess.id, "authentication canceled during authenticator selection")
			return
		}
	}

	s.mu.Lock()
	enrolledPin, pinEnrolled := s.pins[username]
	s.mu.Unlock()
	switch {
	case pinEnrolled && flags.PinUserVerifierSet:
		if ok := s.verifyPin(sess, enrolledPin); !ok {
			return
		}
	case flags.BiometricUserVerifierSet:
		if ok := s.consent(sess, message.EventBiometricVerificationRequired, &message.BiometricVerificationPayload{}); !ok {
			s.emitCanceled(sess.id, "biometric verification canceled")
			return
		}
	case flags.DevicePasscodeUserVerifierSet:
		if ok := s.consent(sess, message.EventDevicePasscodeVerificationRequired, nil); !ok {
			s.emitCanceled(sess.id, "device passcode verification canceled")
			return
		}
	case flags.FingerprintUserVerifierSet:
		if ok := s.consent(sess, message.EventFingerprintVerificationRequired, &message.FingerprintVerificationPayload{}); !ok {
			s.emitCanceled(sess.id, "fingerprint verification canceled")
			return
		}
	}

	if err := s.rp.authenticate(username); err != nil {
		s.emitError(sess.id, message.ErrorPayload{Type: "fidoError", Description: "authentication failed", Cause: err.Error()})
		return
	}
	token, err := s.rp.issueToken(username)
	if err != nil {
		s.emitError(sess.id, message.ErrorPayload{Type: "fidoError", Description: "token issuance failed", Cause: err.Error()})
		return
	}
	s.log.Debug("authentication complete", "operationId", sess.id, "username", username)
	s.emitSuccess(sess.id, token)
}

// selectAccount prompts with the registered accounts and returns the choice.
func (s *Simulator) selectAccount(sess *session) (string, bool) {
	s.emit(message.EventAccountSelectionRequired, sess.id, &message.AccountSelectionPayload{
		Accounts: s.rp.accountList(),
	})
	raw, ok := s.wait(sess, channel.MethodSelectAccount)
	if !ok {
		return "", false
	}
	var resp message.AccountSelectionResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Username == "" {
		return "", false
	}
	return resp.Username, true
}

// selectAuthenticator prompts with the single simulated authenticator.
func (s *Simulator) selectAuthenticator(sess *session) bool {
	s.emit(message.EventAuthenticatorSelectionRequired, sess.id, &message.AuthenticatorSelectionPayload{
		Authenticators: []message.Authenticator{{
			AAID:                simulatedAAID,
			Registered:          true,
			SupportedByHardware: true,
			UserEnrolled:        true,
		}},
	})
	_, ok := s.wait(sess, channel.MethodSelectAuthenticator)
	return ok
}

// verifyPin prompts until the enrolled PIN arrives, the attempt budget runs
// out, or the flow is canceled. It emits the terminal error itself and
// reports whether verification passed.
func (s *Simulator) verifyPin(sess *session, enrolled string) bool {
	attempts := s.pinAttempts
	failed := false
	for attempts > 0 {
		remaining := attempts
		s.emit(message.EventPinVerificationRequired, sess.id, &message.PinVerificationPayload{
			AttemptsRemaining: &remaining,
			LastAttemptFailed: failed,
		})
		raw, ok := s.wait(sess, channel.MethodVerifyPin)
		if !ok {
			s.emitCanceled(sess.id, "authentication canceled during PIN verification")
			return false
		}
		var resp message.PinVerificationResponse
		if err := json.Unmarshal(raw, &resp); err == nil && resp.Pin == enrolled {
			return true
		}
		failed = true
		attempts--
	}
	s.emitError(sess.id, message.ErrorPayload{Type: "fidoError", Description: "PIN locked after too many attempts"})
	return false
}

// consent prompts for a verification consent round-trip.
func (s *Simulator) consent(sess *session, eventType string, payload any) bool {
	s.emit(eventType, sess.id, payload)
	_, ok := s.wait(sess, channel.MethodConsentVerification)
	return ok
}

// runOutOfBand redeems a provisioned token and continues into the flow it
// was issued for.
func (s *Simulator) runOutOfBand(sess *session, payload []byte) {
	var req message.OutOfBandOperationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.emitError(sess.id, message.ErrorPayload{Type: "networkError", Description: "malformed out-of-band request", Cause: err.Error()})
		return
	}
	if req.Payload == nil || req.Payload.Token == "" {
		s.emitError(sess.id, message.ErrorPayload{Type: "tokenExpired", Description: "out-of-band payload carries no token"})
		return
	}

	s.mu.Lock()
	ticket := s.oob[req.Payload.Token]
	switch {
	case ticket == nil:
		s.mu.Unlock()
		s.emitError(sess.id, message.ErrorPayload{Type: "tokenExpired", Description: "token is not redeemable"})
		return
	case ticket.redeemed:
		s.mu.Unlock()
		s.emitError(sess.id, message.ErrorPayload{Type: "tokenAlreadyRedeemed", Description: "token was already redeemed"})
		return
	}
	ticket.redeemed = true
	s.mu.Unlock()

	switch ticket.operation {
	case "registration":
		s.register(sess, ticket.username, req.CapabilityFlags)
	case "authentication":
		s.authenticate(sess, ticket.username, req.CapabilityFlags)
	default:
		s.emitError(sess.id, message.ErrorPayload{Type: "tokenExpired", Description: "token names no redeemable operation"})
	}
}

// runDeregistration removes the credential and the enrolled PIN.
func (s *Simulator) runDeregistration(sess *session, payload []byte) {
	var req message.DeregistrationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.emitError(sess.id, message.ErrorPayload{Type: "fidoError", Description: "malformed deregistration request", Cause: err.Error()})
		return
	}
	if !s.rp.deregister(req.Username) {
		s.emitError(sess.id, message.ErrorPayload{Type: "fidoError", Description: "no credential registered for user"})
		return
	}
	s.mu.Lock()
	delete(s.pins, req.Username)
	s.mu.Unlock()
	s.log.Debug("deregistration complete", "operationId", sess.id, "username", req.Username)
	s.emitSuccess(sess.id, nil)
}

// runPinChange verifies the old PIN and stores the new one, with the same
// attempt budget as verification.
func (s *Simulator) runPinChange(sess *session, payload []byte) {
	var req message.PinChangeRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.emitError(sess.id, message.ErrorPayload{Type: "pinNotEnrolled", Description: "malformed PIN change request", Cause: err.Error()})
		return
	}
	s.mu.Lock()
	enrolled, ok := s.pins[req.Username]
	s.mu.Unlock()
	if !ok {
		s.emitError(sess.id, message.ErrorPayload{Type: "pinNotEnrolled", Description: "no PIN enrolled for user"})
		return
	}

	attempts := s.pinAttempts
	failed := false
	for attempts > 0 {
		remaining := attempts
		s.emit(message.EventPinChangeRequired, sess.id, &message.PinVerificationPayload{
			AttemptsRemaining: &remaining,
			LastAttemptFailed: failed,
		})
		raw, ok := s.wait(sess, channel.MethodConfirmPinChange)
		if !ok {
			s.emitCanceled(sess.id, "PIN change canceled")
			return
		}
		var resp message.PinChangeResponse
		if err := json.Unmarshal(raw, &resp); err == nil &&
			resp.OldPin == enrolled && len(resp.NewPin) >= minPinLength {
			s.mu.Lock()
			s.pins[req.Username] = resp.NewPin
			s.mu.Unlock()
			s.log.Debug("pin change complete", "operationId", sess.id, "username", req.Username)
			s.emitSuccess(sess.id, nil)
			return
		}
		failed = true
		attempts--
	}
	s.emitError(sess.id, message.ErrorPayload{Type: "pinLocked", Description: "PIN locked after too many attempts"})
}

// runDeviceInformationChange updates the dispatch target metadata and
// broadcasts the change globally before resolving the operation.
func (s *Simulator) runDeviceInformationChange(sess *session, payload []byte) {
	var req message.DeviceInformationChangeRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.emitError(sess.id, message.ErrorPayload{Type: "notFound", Description: "malformed device information change request", Cause: err.Error()})
		return
	}
	s.mu.Lock()
	if req.Name != "" {
		s.device.Name = req.Name
	}
	if req.PushToken != "" {
		s.device.PushToken = req.PushToken
	}
	if req.DisablePushNotifications {
		s.device.PushToken = ""
	}
	if s.device.DeviceID == "" {
		s.device.DeviceID = newToken()
	}
	device := s.device
	s.mu.Unlock()

	s.emit(message.EventDeviceInformationChanged, "", &message.DeviceInformationChangedPayload{
		DeviceInformation: device,
	})
	s.emitSuccess(sess.id, nil)
}
