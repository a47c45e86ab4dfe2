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

// Package nativesim implements a simulated native authenticator behind the
// channel contracts. It runs real FIDO ceremonies in-process against a
// virtual authenticator, so the bridge can be exercised end to end without
// a mobile platform underneath.
package nativesim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jeremyhahn/go-authbridge/pkg/channel"
	"github.com/jeremyhahn/go-authbridge/pkg/logging"
	"github.com/jeremyhahn/go-authbridge/pkg/message"
)

var (
	// ErrAlreadySubscribed is returned when a second event subscription is
	// attempted while one is active.
	ErrAlreadySubscribed = errors.New("nativesim: event channel already subscribed")

	// ErrNotInitialized is returned when an operation method is invoked
	// before initialize.
	ErrNotInitialized = errors.New("nativesim: not initialized")
)

const (
	defaultPinAttempts      = 5
	defaultRoundTripTimeout = 30 * time.Second
	minPinLength            = 4
)

// Params holds the configuration for NewSimulator.
type Params struct {
	// RPID is the relying party identifier (a registrable domain).
	RPID string

	// RPName is the human-readable relying party name.
	RPName string

	// Origin is the web origin assertions are scoped to.
	Origin string

	// SigningKey signs issued authorization tokens.
	SigningKey []byte

	// PinAttempts bounds wrong-PIN retries before lockout. Defaults to 5.
	PinAttempts int

	// RoundTripTimeout bounds how long a flow waits for an interaction
	// response before treating the operation as canceled. Defaults to 30s.
	RoundTripTimeout time.Duration

	// Logger is optional; a default logger is created when nil.
	Logger *logging.Logger
}

// Simulator is the native side of the bridge. It implements both
// channel.MethodChannel and channel.EventChannel.
type Simulator struct {
	rp          *relyingParty
	log         *logging.Logger
	pinAttempts int
	timeout     time.Duration

	mu          sync.Mutex
	subscriber  func(raw []byte)
	sessions    map[string]*session
	pins        map[string]string
	oob         map[string]*oobTicket
	failures    map[string]*message.ErrorPayload
	device      message.DeviceInformation
	serverURL   string
	initialized bool
}

// oobTicket is a provisioned out-of-band token awaiting redemption.
type oobTicket struct {
	username  string
	operation string
	redeemed  bool
}

// session tracks one in-flight operation and the interaction responses
// routed back to it.
type session struct {
	id        string
	responses chan invocation
}

type invocation struct {
	method  string
	payload []byte
}

// opRef extracts the operation identifier common to every request.
type opRef struct {
	OperationID string `json:"operationId"`
}

// NewSimulator creates a simulator backed by an in-process relying party.
func NewSimulator(params Params) (*Simulator, error) {
	if params.RPID == "" {
		return nil, fmt.Errorf("RPID is required")
	}
	if params.Origin == "" {
		return nil, fmt.Errorf("Origin is required")
	}
	if params.RPName == "" {
		params.RPName = params.RPID
	}
	if len(params.SigningKey) == 0 {
		return nil, fmt.Errorf("SigningKey is required")
	}
	if params.PinAttempts <= 0 {
		params.PinAttempts = defaultPinAttempts
	}
	if params.RoundTripTimeout <= 0 {
		params.RoundTripTimeout = defaultRoundTripTimeout
	}
	if params.Logger == nil {
		params.Logger = logging.DefaultLogger()
	}

	rp, err := newRelyingParty(params.RPID, params.RPName, params.Origin, params.SigningKey)
	if err != nil {
		return nil, err
	}
	return &Simulator{
		rp:          rp,
		log:         params.Logger.Component("nativesim"),
		pinAttempts: params.PinAttempts,
		timeout:     params.RoundTripTimeout,
		sessions:    make(map[string]*session),
		pins:        make(map[string]string),
		oob:         make(map[string]*oobTicket),
		failures:    make(map[string]*message.ErrorPayload),
	}, nil
}

// Subscribe implements channel.EventChannel. Only one subscription may be
// active at a time.
func (s *Simulator) Subscribe(fn func(raw []byte)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscriber != nil {
		return nil, ErrAlreadySubscribed
	}
	s.subscriber = fn
	return func() {
		s.mu.Lock()
		s.subscriber = nil
		s.mu.Unlock()
	}, nil
}

// Invoke implements channel.MethodChannel. Operation methods start a flow
// goroutine and return immediately; interaction methods are routed to the
// flow waiting on them.
func (s *Simulator) Invoke(ctx context.Context, method string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch method {
	case channel.MethodInitialize:
		return s.initialize(payload)
	case channel.MethodRegister:
		return s.begin(method, payload, s.runRegistration)
	case channel.MethodAuthenticate:
		return s.begin(method, payload, s.runAuthentication)
	case channel.MethodProcessOutOfBandPayload:
		return s.begin(method, payload, s.runOutOfBand)
	case channel.MethodDeregister:
		return s.begin(method, payload, s.runDeregistration)
	case channel.MethodChangePin:
		return s.begin(method, payload, s.runPinChange)
	case channel.MethodChangeDeviceInformation:
		return s.begin(method, payload, s.runDeviceInformationChange)
	case channel.MethodSelectAccount,
		channel.MethodSelectAuthenticator,
		channel.MethodEnrollPin,
		channel.MethodVerifyPin,
		channel.MethodConfirmPinChange,
		channel.MethodConsentVerification,
		channel.MethodCancel:
		return s.deliver(method, payload)
	default:
		return fmt.Errorf("nativesim: unknown method %q", method)
	}
}

// initialize records the backend endpoint and reports success.
func (s *Simulator) initialize(payload []byte) error {
	var req message.InitializationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("nativesim: decode initialize request: %w", err)
	}
	s.mu.Lock()
	s.serverURL = req.ServerURL
	s.initialized = true
	s.mu.Unlock()
	go s.emitSuccess(req.OperationID, nil)
	return nil
}

// begin starts an operation flow in its own goroutine. Events for one
// operation are emitted sequentially from that goroutine, so per-identifier
// ordering holds while separate operations interleave freely.
func (s *Simulator) begin(method string, payload []byte, run func(*session, []byte)) error {
	var ref opRef
	if err := json.Unmarshal(payload, &ref); err != nil {
		return fmt.Errorf("nativesim: decode %s request: %w", method, err)
	}
	if ref.OperationID == "" {
		return fmt.Errorf("nativesim: %s request missing operation identifier", method)
	}

	s.mu.Lock()
	if !s.initialized && method != channel.MethodChangeDeviceInformation {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	if fail := s.failures[method]; fail != nil {
		delete(s.failures, method)
		s.mu.Unlock()
		go s.emitError(ref.OperationID, *fail)
		return nil
	}
	sess := &session{id: ref.OperationID, responses: make(chan invocation, 4)}
	s.sessions[ref.OperationID] = sess
	s.mu.Unlock()

	go func() {
		defer s.closeSession(sess.id)
		run(sess, payload)
	}()
	return nil
}

// deliver routes an interaction response to the flow that prompted for it.
func (s *Simulator) deliver(method string, payload []byte) error {
	var ref opRef
	if err := json.Unmarshal(payload, &ref); err != nil {
		return fmt.Errorf("nativesim: decode %s response: %w", method, err)
	}
	s.mu.Lock()
	sess := s.sessions[ref.OperationID]
	s.mu.Unlock()
	if sess == nil {
		return fmt.Errorf("nativesim: no operation %q in flight", ref.OperationID)
	}
	select {
	case sess.responses <- invocation{method: method, payload: payload}:
		return nil
	default:
		return fmt.Errorf("nativesim: operation %q not awaiting a response", ref.OperationID)
	}
}

func (s *Simulator) closeSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// wait blocks until the flow receives the named interaction response.
// It returns false when the operation was canceled or timed out.
func (s *Simulator) wait(sess *session, method string) ([]byte, bool) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	for {
		select {
		case inv := <-sess.responses:
			if inv.method == channel.MethodCancel {
				return nil, false
			}
			if inv.method == method {
				return inv.payload, true
			}
			s.log.Warn("unexpected interaction response",
				"operationId", sess.id, "expected", method, "got", inv.method)
		case <-timer.C:
			s.log.Warn("interaction response timed out", "operationId", sess.id, "expected", method)
			return nil, false
		}
	}
}

// emit publishes a discriminated event to the subscriber, if any.
func (s *Simulator) emit(eventType, operationID string, payload any) {
	env := message.Envelope{Type: eventType, OperationID: operationID}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			s.log.Errorf("marshal %s payload: %v", eventType, err)
			return
		}
		env.Data = data
	}
	raw, err := json.Marshal(env)
	if err != nil {
		s.log.Errorf("marshal %s envelope: %v", eventType, err)
		return
	}
	s.mu.Lock()
	fn := s.subscriber
	s.mu.Unlock()
	if fn == nil {
		s.log.Debug("dropping event, no subscriber", "type", eventType, "operationId", operationID)
		return
	}
	fn(raw)
}

func (s *Simulator) emitSuccess(operationID string, authorization *message.AuthorizationToken) {
	s.emit(message.EventOperationSuccess, operationID, &message.SuccessPayload{Authorization: authorization})
}

func (s *Simulator) emitError(operationID string, p message.ErrorPayload) {
	s.emit(message.EventOperationError, operationID, &p)
}

func (s *Simulator) emitCanceled(operationID, description string) {
	s.emitError(operationID, message.ErrorPayload{
		Type:        "userCanceled",
		Description: description,
	})
}

// FailNext schedules the next invocation of an operation method to fail
// immediately with the given native error payload. Used to script error
// paths that a healthy ceremony never produces.
func (s *Simulator) FailNext(method string, p message.ErrorPayload) {
	s.mu.Lock()
	s.failures[method] = &p
	s.mu.Unlock()
}

// EnrollPin pre-enrolls a PIN for username, as if a prior registration had
// completed PIN enrollment.
func (s *Simulator) EnrollPin(username, pin string) {
	s.mu.Lock()
	s.pins[username] = pin
	s.mu.Unlock()
}

// Registered reports whether username holds a credential.
func (s *Simulator) Registered(username string) bool {
	return s.rp.registered(username)
}

// DeviceInformation returns the current dispatch target metadata.
func (s *Simulator) DeviceInformation() message.DeviceInformation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// IssueOutOfBandToken provisions a single-use out-of-band payload for
// username. The operation is "registration" or "authentication".
func (s *Simulator) IssueOutOfBandToken(username, operation string) *message.OutOfBandPayload {
	token := newToken()
	s.mu.Lock()
	s.oob[token] = &oobTicket{username: username, operation: operation}
	redeemURL := s.serverURL + "/oob/redeem"
	s.mu.Unlock()
	return &message.OutOfBandPayload{
		Version:       "1",
		Operation:     operation,
		TransactionID: newToken(),
		RedeemURL:     redeemURL,
		Token:         token,
	}
}
