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

// Package dispatch routes inbound native events to the cached operation they
// belong to. A single listener owns the event channel subscription and a
// single dispatch goroutine, so handler invocations are serialized and events
// for one operation identifier are processed in emission order.
package dispatch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jeremyhahn/go-authbridge/pkg/channel"
	"github.com/jeremyhahn/go-authbridge/pkg/clienterror"
	"github.com/jeremyhahn/go-authbridge/pkg/logging"
	"github.com/jeremyhahn/go-authbridge/pkg/message"
	"github.com/jeremyhahn/go-authbridge/pkg/metrics"
	"github.com/jeremyhahn/go-authbridge/pkg/operation"
)

// queueSize bounds the inbound event queue. The native side emits events at
// human interaction pace; a full queue indicates a stalled handler and the
// overflowing event is dropped with a log line rather than blocking the
// native callback.
const queueSize = 256

// Sentinel errors for listener construction and handler resolution.
var (
	// ErrEventChannelRequired is returned when no event channel is supplied.
	ErrEventChannelRequired = errors.New("event channel is required")

	// ErrMethodChannelRequired is returned when no method channel is supplied.
	ErrMethodChannelRequired = errors.New("method channel is required")

	// ErrCacheRequired is returned when no operation cache is supplied.
	ErrCacheRequired = errors.New("operation cache is required")

	// ErrAlreadyResolved is returned when a handler resolves a round-trip
	// more than once.
	ErrAlreadyResolved = errors.New("round-trip already resolved")
)

// ListenerParams contains dependencies for creating a Listener.
type ListenerParams struct {
	// Events is the native event channel (required).
	Events channel.EventChannel

	// Boundary is the method channel handler resolutions are sent over
	// (required).
	Boundary channel.MethodChannel

	// Cache is the in-flight operation registry (required).
	Cache *operation.Cache

	// Logger is optional; a default logger is used when nil.
	Logger *logging.Logger

	// OnDeviceInformationChanged receives global device information
	// events. Optional.
	OnDeviceInformationChanged func(message.DeviceInformation)
}

// Listener owns the native event subscription. Start and Stop are idempotent;
// the subscription is established at most once per Start/Stop cycle and is
// torn down automatically when the last cached operation terminates.
type Listener struct {
	events   channel.EventChannel
	boundary channel.MethodChannel
	cache    *operation.Cache
	log      *logging.Logger

	onDeviceInformationChanged func(message.DeviceInformation)

	mu          sync.Mutex
	active      bool
	queue       chan []byte
	done        chan struct{}
	unsubscribe func()
}

// NewListener creates a listener bound to the given channels and cache.
func NewListener(params ListenerParams) (*Listener, error) {
	if params.Events == nil {
		return nil, ErrEventChannelRequired
	}
	if params.Boundary == nil {
		return nil, ErrMethodChannelRequired
	}
	if params.Cache == nil {
		return nil, ErrCacheRequired
	}
	log := params.Logger
	if log == nil {
		log = logging.DefaultLogger()
	}
	return &Listener{
		events:                     params.Events,
		boundary:                   params.Boundary,
		cache:                      params.Cache,
		log:                        log.Component("dispatch"),
		onDeviceInformationChanged: params.OnDeviceInformationChanged,
	}, nil
}

// Start establishes the event subscription and the dispatch goroutine.
// Calling Start while already started is a no-op.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active {
		return nil
	}

	queue := make(chan []byte, queueSize)
	done := make(chan struct{})

	unsubscribe, err := l.events.Subscribe(func(raw []byte) {
		l.enqueue(raw)
	})
	if err != nil {
		return fmt.Errorf("subscribe to native events: %w", err)
	}

	l.queue = queue
	l.done = done
	l.unsubscribe = unsubscribe
	l.active = true
	metrics.SetListenerActive(true)

	go l.run(queue, done)

	l.log.Debug("listener started")
	return nil
}

// Stop tears down the subscription and the dispatch goroutine. Calling Stop
// while not started is a no-op. Events still queued when Stop is called are
// discarded.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

// StopIfIdle tears the listener down only when no operations remain cached.
// The emptiness check and the teardown share one critical section: a caller
// racing in with Put followed by Start either lands its entry before the
// check, which keeps the listener up, or blocks on Start until the teardown
// completes and establishes a fresh subscription.
func (l *Listener) StopIfIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cache.Len() != 0 {
		return
	}
	l.stopLocked()
}

func (l *Listener) stopLocked() {
	if !l.active {
		return
	}

	l.unsubscribe()
	close(l.done)
	l.active = false
	l.queue = nil
	l.done = nil
	l.unsubscribe = nil
	metrics.SetListenerActive(false)

	l.log.Debug("listener stopped")
}

// Active reports whether the subscription is currently established.
func (l *Listener) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// enqueue hands a raw event to the dispatch goroutine. It never blocks the
// native callback: when the queue is full the event is dropped and logged.
func (l *Listener) enqueue(raw []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.active {
		return
	}
	select {
	case l.queue <- raw:
	default:
		l.log.Warn("event queue full, dropping event")
		metrics.RecordEventDropped(metrics.DropQueueFull)
	}
}

// run is the single dispatch goroutine. Draining one queue preserves the
// emission order of events per operation identifier.
func (l *Listener) run(queue chan []byte, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case raw := <-queue:
			l.dispatch(raw)
		}
	}
}

// dispatch decodes one inbound event and routes it. Malformed events, unknown
// discriminators, and events for unknown or completed operations are dropped;
// the native boundary is trusted but decoding is defensive.
func (l *Listener) dispatch(raw []byte) {
	env, err := message.ParseEnvelope(raw)
	if err != nil {
		l.log.Debugf("dropping event: %v", err)
		metrics.RecordEventDropped(metrics.DropMalformed)
		return
	}
	if !env.KnownType() {
		l.log.Debugf("dropping event with unknown type %q", env.Type)
		metrics.RecordEventDropped(metrics.DropUnknownType)
		return
	}

	if env.Type == message.EventDeviceInformationChanged {
		l.dispatchDeviceInformationChanged(env)
		return
	}

	op, ok := l.cache.Get(env.OperationID)
	if !ok {
		// Normal race: the operation completed or was never registered.
		l.log.Debugf("dropping %s event for unknown operation %q", env.Type, env.OperationID)
		metrics.RecordEventDropped(metrics.DropUnknownOperation)
		return
	}

	switch env.Type {
	case message.EventOperationSuccess:
		l.dispatchSuccess(env, op)
	case message.EventOperationError:
		l.dispatchError(env, op)
	default:
		l.dispatchInteraction(env, op)
	}
}

func (l *Listener) dispatchDeviceInformationChanged(env *message.Envelope) {
	var payload message.DeviceInformationChangedPayload
	if err := env.DecodePayload(&payload); err != nil {
		l.log.Debugf("dropping event: %v", err)
		metrics.RecordEventDropped(metrics.DropMalformed)
		return
	}
	if l.onDeviceInformationChanged != nil {
		l.onDeviceInformationChanged(payload.DeviceInformation)
	}
	metrics.RecordEventDispatched(env.Type)
}

// dispatchSuccess delivers the terminal success callback, removes the cache
// entry, and stops the listener when no operations remain.
func (l *Listener) dispatchSuccess(env *message.Envelope, op operation.Operation) {
	var payload message.SuccessPayload
	if err := env.DecodePayload(&payload); err != nil {
		l.log.Debugf("dropping event: %v", err)
		metrics.RecordEventDropped(metrics.DropMalformed)
		return
	}

	op.Success(&payload)
	metrics.RecordEventDispatched(env.Type)
	l.finish(env.OperationID)
}

// dispatchError converts the native error through the operation's taxonomy,
// delivers the terminal error callback, removes the cache entry, and stops
// the listener when no operations remain.
func (l *Listener) dispatchError(env *message.Envelope, op operation.Operation) {
	var payload message.ErrorPayload
	if err := env.DecodePayload(&payload); err != nil {
		l.log.Debugf("dropping event: %v", err)
		metrics.RecordEventDropped(metrics.DropMalformed)
		return
	}

	op.Error(clienterror.Convert(op.ErrorDomain(), payload))
	metrics.RecordEventDispatched(env.Type)
	l.finish(env.OperationID)
}

// finish removes a terminated operation and tears the listener down when it
// was the last one.
func (l *Listener) finish(operationID string) {
	l.cache.Delete(operationID)
	metrics.SetActiveOperations(l.cache.Len())
	l.StopIfIdle()
}

// dispatchInteraction routes an intermediate prompt to the matching handler
// on a user-interaction operation. The handler is expected to return promptly
// and resolve its round-trip later through the bound resolution handler.
func (l *Listener) dispatchInteraction(env *message.Envelope, op operation.Operation) {
	interactive, ok := op.(*operation.UserInteractionOperation)
	if !ok {
		l.log.Warnf("%s event for non-interactive operation %q", env.Type, env.OperationID)
		metrics.RecordEventDropped(metrics.DropMissingHandler)
		return
	}

	switch env.Type {
	case message.EventAccountSelectionRequired:
		l.dispatchAccountSelection(env, interactive)
	case message.EventAuthenticatorSelectionRequired:
		l.dispatchAuthenticatorSelection(env, interactive)
	case message.EventPinEnrollmentRequired:
		l.dispatchPinEnrollment(env, interactive)
	case message.EventPinVerificationRequired:
		l.dispatchPinVerification(env, interactive)
	case message.EventPinChangeRequired:
		l.dispatchPinChange(env, interactive)
	case message.EventBiometricVerificationRequired:
		l.dispatchBiometricVerification(env, interactive)
	case message.EventDevicePasscodeVerificationRequired:
		l.dispatchDevicePasscodeVerification(env, interactive)
	case message.EventFingerprintVerificationRequired:
		l.dispatchFingerprintVerification(env, interactive)
	}
}

func (l *Listener) dispatchAccountSelection(env *message.Envelope, op *operation.UserInteractionOperation) {
	if op.AccountSelector == nil {
		l.dropMissingHandler(env)
		return
	}
	var payload message.AccountSelectionPayload
	if err := env.DecodePayload(&payload); err != nil {
		l.log.Debugf("dropping event: %v", err)
		metrics.RecordEventDropped(metrics.DropMalformed)
		return
	}
	metrics.RecordEventDispatched(env.Type)
	op.AccountSelector.SelectAccount(operation.AccountSelectionContext{
		Accounts:                    payload.Accounts,
		TransactionConfirmationData: payload.TransactionConfirmationData,
	}, &accountSelectionHandler{roundTrip: l.roundTrip(env.OperationID)})
}

func (l *Listener) dispatchAuthenticatorSelection(env *message.Envelope, op *operation.UserInteractionOperation) {
	if op.AuthenticatorSelector == nil {
		l.dropMissingHandler(env)
		return
	}
	var payload message.AuthenticatorSelectionPayload
	if err := env.DecodePayload(&payload); err != nil {
		l.log.Debugf("dropping event: %v", err)
		metrics.RecordEventDropped(metrics.DropMalformed)
		return
	}
	metrics.RecordEventDispatched(env.Type)
	op.AuthenticatorSelector.SelectAuthenticator(operation.AuthenticatorSelectionContext{
		Authenticators: payload.Authenticators,
	}, &authenticatorSelectionHandler{roundTrip: l.roundTrip(env.OperationID)})
}

func (l *Listener) dispatchPinEnrollment(env *message.Envelope, op *operation.UserInteractionOperation) {
	if op.PinEnroller == nil {
		l.dropMissingHandler(env)
		return
	}
	var payload message.PinEnrollmentPayload
	if err := env.DecodePayload(&payload); err != nil {
		l.log.Debugf("dropping event: %v", err)
		metrics.RecordEventDropped(metrics.DropMalformed)
		return
	}
	metrics.RecordEventDispatched(env.Type)
	op.PinEnroller.EnrollPin(operation.PinEnrollmentContext{
		LastError: payload.LastError,
	}, &pinEnrollmentHandler{roundTrip: l.roundTrip(env.OperationID)})
}

func (l *Listener) dispatchPinVerification(env *message.Envelope, op *operation.UserInteractionOperation) {
	if op.PinUserVerifier == nil {
		l.dropMissingHandler(env)
		return
	}
	var payload message.PinVerificationPayload
	if err := env.DecodePayload(&payload); err != nil {
		l.log.Debugf("dropping event: %v", err)
		metrics.RecordEventDropped(metrics.DropMalformed)
		return
	}
	metrics.RecordEventDispatched(env.Type)
	op.PinUserVerifier.VerifyPin(operation.PinVerificationContext{
		AttemptsRemaining: payload.AttemptsRemaining,
		LastAttemptFailed: payload.LastAttemptFailed,
	}, &pinVerificationHandler{roundTrip: l.roundTrip(env.OperationID)})
}

func (l *Listener) dispatchPinChange(env *message.Envelope, op *operation.UserInteractionOperation) {
	if op.PinChanger == nil {
		l.dropMissingHandler(env)
		return
	}
	var payload message.PinVerificationPayload
	if err := env.DecodePayload(&payload); err != nil {
		l.log.Debugf("dropping event: %v", err)
		metrics.RecordEventDropped(metrics.DropMalformed)
		return
	}
	metrics.RecordEventDispatched(env.Type)
	op.PinChanger.ChangePin(operation.PinChangeContext{
		AttemptsRemaining: payload.AttemptsRemaining,
		LastAttemptFailed: payload.LastAttemptFailed,
	}, &pinChangeHandler{roundTrip: l.roundTrip(env.OperationID)})
}

func (l *Listener) dispatchBiometricVerification(env *message.Envelope, op *operation.UserInteractionOperation) {
	if op.BiometricUserVerifier == nil {
		l.dropMissingHandler(env)
		return
	}
	var payload message.BiometricVerificationPayload
	if err := env.DecodePayload(&payload); err != nil {
		l.log.Debugf("dropping event: %v", err)
		metrics.RecordEventDropped(metrics.DropMalformed)
		return
	}
	metrics.RecordEventDispatched(env.Type)
	op.BiometricUserVerifier.VerifyBiometric(operation.BiometricVerificationContext{
		LastError: payload.LastError,
	}, &verificationConsentHandler{roundTrip: l.roundTrip(env.OperationID)})
}

func (l *Listener) dispatchDevicePasscodeVerification(env *message.Envelope, op *operation.UserInteractionOperation) {
	if op.DevicePasscodeUserVerifier == nil {
		l.dropMissingHandler(env)
		return
	}
	metrics.RecordEventDispatched(env.Type)
	op.DevicePasscodeUserVerifier.VerifyDevicePasscode(operation.DevicePasscodeVerificationContext{},
		&verificationConsentHandler{roundTrip: l.roundTrip(env.OperationID)})
}

func (l *Listener) dispatchFingerprintVerification(env *message.Envelope, op *operation.UserInteractionOperation) {
	if op.FingerprintUserVerifier == nil {
		l.dropMissingHandler(env)
		return
	}
	var payload message.FingerprintVerificationPayload
	if err := env.DecodePayload(&payload); err != nil {
		l.log.Debugf("dropping event: %v", err)
		metrics.RecordEventDropped(metrics.DropMalformed)
		return
	}
	metrics.RecordEventDispatched(env.Type)
	op.FingerprintUserVerifier.VerifyFingerprint(operation.FingerprintVerificationContext{
		LastError: payload.LastError,
	}, &verificationConsentHandler{roundTrip: l.roundTrip(env.OperationID)})
}

func (l *Listener) dropMissingHandler(env *message.Envelope) {
	// The capability flags told the native side this handler is absent;
	// receiving the event anyway is a native-side bug.
	l.log.Warnf("%s event for operation %q without a configured handler", env.Type, env.OperationID)
	metrics.RecordEventDropped(metrics.DropMissingHandler)
}

// roundTrip creates the one-shot resolution state shared by all bound
// handlers for one prompt.
func (l *Listener) roundTrip(operationID string) *roundTrip {
	return &roundTrip{
		boundary:    l.boundary,
		operationID: operationID,
	}
}
