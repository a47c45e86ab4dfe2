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
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-authbridge/pkg/channel"
	"github.com/jeremyhahn/go-authbridge/pkg/clienterror"
	"github.com/jeremyhahn/go-authbridge/pkg/message"
	"github.com/jeremyhahn/go-authbridge/pkg/operation"
)

// fakeEventChannel is an in-memory event stream the tests emit into.
type fakeEventChannel struct {
	mu           sync.Mutex
	fn           func([]byte)
	subscribes   int
	unsubscribes int
}

func (c *fakeEventChannel) Subscribe(fn func(raw []byte)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fn = fn
	c.subscribes++
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.fn = nil
		c.unsubscribes++
	}, nil
}

func (c *fakeEventChannel) emit(t *testing.T, eventType, operationID string, data any) {
	t.Helper()
	env := map[string]any{"type": eventType}
	if operationID != "" {
		env["operationId"] = operationID
	}
	if data != nil {
		env["data"] = data
	}
	raw, err := json.Marshal(env)
	require.NoError(t, err)

	c.mu.Lock()
	fn := c.fn
	c.mu.Unlock()
	require.NotNil(t, fn, "no active subscription")
	fn(raw)
}

// invocation records one outbound method call.
type invocation struct {
	method  string
	payload []byte
}

// fakeMethodChannel records every outbound resolution.
type fakeMethodChannel struct {
	mu    sync.Mutex
	calls []invocation
}

func (c *fakeMethodChannel) Invoke(ctx context.Context, method string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, invocation{method: method, payload: payload})
	return nil
}

func (c *fakeMethodChannel) invocations() []invocation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]invocation(nil), c.calls...)
}

// capturingPinVerifier hands the bound resolution handler to the test.
type capturingPinVerifier struct {
	handlers chan operation.PinVerificationHandler
}

func (v *capturingPinVerifier) VerifyPin(ctx operation.PinVerificationContext, handler operation.PinVerificationHandler) {
	v.handlers <- handler
}

// capturingAccountSelector hands the selection context and handler to the test.
type capturingAccountSelector struct {
	contexts chan operation.AccountSelectionContext
	handlers chan operation.AccountSelectionHandler
}

func (s *capturingAccountSelector) SelectAccount(ctx operation.AccountSelectionContext, handler operation.AccountSelectionHandler) {
	s.contexts <- ctx
	s.handlers <- handler
}

func newTestListener(t *testing.T) (*Listener, *fakeEventChannel, *fakeMethodChannel, *operation.Cache) {
	t.Helper()
	events := &fakeEventChannel{}
	boundary := &fakeMethodChannel{}
	cache := operation.NewCache()
	listener, err := NewListener(ListenerParams{
		Events:   events,
		Boundary: boundary,
		Cache:    cache,
	})
	require.NoError(t, err)
	return listener, events, boundary, cache
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestNewListenerValidation(t *testing.T) {
	events := &fakeEventChannel{}
	boundary := &fakeMethodChannel{}
	cache := operation.NewCache()

	_, err := NewListener(ListenerParams{Boundary: boundary, Cache: cache})
	assert.ErrorIs(t, err, ErrEventChannelRequired)

	_, err = NewListener(ListenerParams{Events: events, Cache: cache})
	assert.ErrorIs(t, err, ErrMethodChannelRequired)

	_, err = NewListener(ListenerParams{Events: events, Boundary: boundary})
	assert.ErrorIs(t, err, ErrCacheRequired)
}

func TestListenerStartStopIdempotent(t *testing.T) {
	listener, events, _, _ := newTestListener(t)

	require.NoError(t, listener.Start())
	require.NoError(t, listener.Start())
	assert.True(t, listener.Active())
	assert.Equal(t, 1, events.subscribes)

	listener.Stop()
	listener.Stop()
	assert.False(t, listener.Active())
	assert.Equal(t, 1, events.unsubscribes)

	// A fresh Start/Stop cycle establishes a new subscription.
	require.NoError(t, listener.Start())
	assert.Equal(t, 2, events.subscribes)
	listener.Stop()
}

// A terminal success must reach the operation's callback exactly once, remove
// the cache entry, and tear the listener down when it was the last operation
// in flight.
func TestListenerTerminalSuccess(t *testing.T) {
	listener, events, _, cache := newTestListener(t)

	results := make(chan *message.SuccessPayload, 1)
	cache.Put(&operation.UserInteractionOperation{
		OperationID: "op-42",
		Domain:      clienterror.DomainAuthentication,
		OnSuccess:   func(p *message.SuccessPayload) { results <- p },
		OnError:     func(err error) { t.Errorf("unexpected error: %v", err) },
	})
	require.NoError(t, listener.Start())

	events.emit(t, message.EventOperationSuccess, "op-42", map[string]any{
		"authorization": map[string]any{"value": "token-abc", "type": "jwt"},
	})

	select {
	case payload := <-results:
		require.NotNil(t, payload.Authorization)
		assert.Equal(t, "token-abc", payload.Authorization.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("success callback never fired")
	}

	waitFor(t, func() bool { return !listener.Active() }, "listener did not stop after last operation")
	_, ok := cache.Get("op-42")
	assert.False(t, ok)
}

// A terminal error converts through the operation's error domain before it
// reaches the callback.
func TestListenerTerminalErrorConverts(t *testing.T) {
	listener, events, _, cache := newTestListener(t)

	errs := make(chan error, 1)
	cache.Put(&operation.UserInteractionOperation{
		OperationID: "op-1",
		Domain:      clienterror.DomainRegistration,
		OnError:     func(err error) { errs <- err },
	})
	require.NoError(t, listener.Start())

	events.emit(t, message.EventOperationError, "op-1", map[string]any{
		"type":        "fidoError",
		"description": "attestation rejected",
		"cause":       "status code 1490",
	})

	select {
	case err := <-errs:
		var regErr *clienterror.RegistrationError
		require.ErrorAs(t, err, &regErr)
		assert.Equal(t, clienterror.RegistrationFido, regErr.Kind)
		assert.Equal(t, "attestation rejected", regErr.Description)
		assert.Equal(t, "status code 1490", regErr.Cause)
	case <-time.After(2 * time.Second):
		t.Fatal("error callback never fired")
	}

	waitFor(t, func() bool { return !listener.Active() }, "listener did not stop after last operation")
}

// Events for unknown identifiers are dropped without disturbing the
// operations that are in flight.
func TestListenerDropsUnknownOperation(t *testing.T) {
	listener, events, _, cache := newTestListener(t)

	results := make(chan *message.SuccessPayload, 1)
	cache.Put(&operation.PlatformOperation{
		OperationID: "known",
		Domain:      clienterror.DomainDeregistration,
		OnSuccess:   func(p *message.SuccessPayload) { results <- p },
	})
	require.NoError(t, listener.Start())

	events.emit(t, message.EventOperationSuccess, "never-registered", nil)
	events.emit(t, "someFutureEventType", "known", nil)
	events.emit(t, message.EventOperationSuccess, "known", nil)

	select {
	case <-results:
	case <-time.After(2 * time.Second):
		t.Fatal("success callback never fired")
	}
	assert.Equal(t, 0, cache.Len())
}

// Two interleaved operations each receive only their own events, and the
// listener stays up until both have terminated.
func TestListenerInterleavedOperations(t *testing.T) {
	listener, events, _, cache := newTestListener(t)

	resultsA := make(chan *message.SuccessPayload, 1)
	errsB := make(chan error, 1)
	cache.Put(&operation.UserInteractionOperation{
		OperationID: "a",
		Domain:      clienterror.DomainRegistration,
		OnSuccess:   func(p *message.SuccessPayload) { resultsA <- p },
		OnError:     func(err error) { t.Errorf("operation a: unexpected error %v", err) },
	})
	cache.Put(&operation.UserInteractionOperation{
		OperationID: "b",
		Domain:      clienterror.DomainAuthentication,
		OnSuccess:   func(p *message.SuccessPayload) { t.Error("operation b: unexpected success") },
		OnError:     func(err error) { errsB <- err },
	})
	require.NoError(t, listener.Start())

	events.emit(t, message.EventOperationSuccess, "a", nil)

	select {
	case <-resultsA:
	case <-time.After(2 * time.Second):
		t.Fatal("operation a: success never fired")
	}
	assert.True(t, listener.Active(), "listener stopped with operation b still in flight")

	events.emit(t, message.EventOperationError, "b", map[string]any{"type": "userCanceled"})

	select {
	case err := <-errsB:
		assert.ErrorIs(t, err, &clienterror.AuthenticationError{Kind: clienterror.AuthenticationUserCanceled})
	case <-time.After(2 * time.Second):
		t.Fatal("operation b: error never fired")
	}

	waitFor(t, func() bool { return !listener.Active() }, "listener did not stop after last operation")
}

// An interaction prompt routes to the configured handler with the decoded
// context, and the bound resolution handler relays exactly one outbound call.
func TestListenerAccountSelectionRoundTrip(t *testing.T) {
	listener, events, boundary, cache := newTestListener(t)

	selector := &capturingAccountSelector{
		contexts: make(chan operation.AccountSelectionContext, 1),
		handlers: make(chan operation.AccountSelectionHandler, 1),
	}
	cache.Put(&operation.UserInteractionOperation{
		OperationID:     "op-7",
		Domain:          clienterror.DomainAuthentication,
		AccountSelector: selector,
	})
	require.NoError(t, listener.Start())
	defer listener.Stop()

	events.emit(t, message.EventAccountSelectionRequired, "op-7", map[string]any{
		"accounts": []map[string]any{
			{"username": "alice"},
			{"username": "bob"},
		},
	})

	var handler operation.AccountSelectionHandler
	select {
	case ctx := <-selector.contexts:
		require.Len(t, ctx.Accounts, 2)
		assert.Equal(t, "alice", ctx.Accounts[0].Username)
		handler = <-selector.handlers
	case <-time.After(2 * time.Second):
		t.Fatal("account selector never invoked")
	}

	require.NoError(t, handler.SelectAccount("alice"))

	calls := boundary.invocations()
	require.Len(t, calls, 1)
	assert.Equal(t, channel.MethodSelectAccount, calls[0].method)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(calls[0].payload, &sent))
	assert.Equal(t, "op-7", sent["operationId"])
	assert.Equal(t, "alice", sent["username"])
}

// Resolving the same prompt twice must fail the second attempt and leave a
// single outbound call on the boundary.
func TestListenerRoundTripResolvesOnce(t *testing.T) {
	listener, events, boundary, cache := newTestListener(t)

	verifier := &capturingPinVerifier{handlers: make(chan operation.PinVerificationHandler, 1)}
	cache.Put(&operation.UserInteractionOperation{
		OperationID:     "op-9",
		Domain:          clienterror.DomainAuthentication,
		PinUserVerifier: verifier,
	})
	require.NoError(t, listener.Start())
	defer listener.Stop()

	events.emit(t, message.EventPinVerificationRequired, "op-9", map[string]any{
		"attemptsRemaining": 3,
	})

	var handler operation.PinVerificationHandler
	select {
	case handler = <-verifier.handlers:
	case <-time.After(2 * time.Second):
		t.Fatal("pin verifier never invoked")
	}

	require.NoError(t, handler.VerifyPin("1234"))
	assert.ErrorIs(t, handler.VerifyPin("1234"), ErrAlreadyResolved)
	assert.ErrorIs(t, handler.Cancel(), ErrAlreadyResolved)

	calls := boundary.invocations()
	require.Len(t, calls, 1)
	assert.Equal(t, channel.MethodVerifyPin, calls[0].method)
}

// Cancel is a resolution like any other and is sent over the cancel method.
func TestListenerRoundTripCancel(t *testing.T) {
	listener, events, boundary, cache := newTestListener(t)

	verifier := &capturingPinVerifier{handlers: make(chan operation.PinVerificationHandler, 1)}
	cache.Put(&operation.UserInteractionOperation{
		OperationID:     "op-3",
		Domain:          clienterror.DomainAuthentication,
		PinUserVerifier: verifier,
	})
	require.NoError(t, listener.Start())
	defer listener.Stop()

	events.emit(t, message.EventPinVerificationRequired, "op-3", nil)

	var handler operation.PinVerificationHandler
	select {
	case handler = <-verifier.handlers:
	case <-time.After(2 * time.Second):
		t.Fatal("pin verifier never invoked")
	}

	require.NoError(t, handler.Cancel())

	calls := boundary.invocations()
	require.Len(t, calls, 1)
	assert.Equal(t, channel.MethodCancel, calls[0].method)
}

// A prompt for a handler the caller never configured is dropped; the
// operation stays in flight so its terminal event can still arrive.
func TestListenerDropsMissingHandler(t *testing.T) {
	listener, events, boundary, cache := newTestListener(t)

	results := make(chan *message.SuccessPayload, 1)
	cache.Put(&operation.UserInteractionOperation{
		OperationID: "op-5",
		Domain:      clienterror.DomainAuthentication,
		OnSuccess:   func(p *message.SuccessPayload) { results <- p },
	})
	require.NoError(t, listener.Start())

	events.emit(t, message.EventPinVerificationRequired, "op-5", nil)
	events.emit(t, message.EventOperationSuccess, "op-5", nil)

	select {
	case <-results:
	case <-time.After(2 * time.Second):
		t.Fatal("success callback never fired")
	}
	assert.Empty(t, boundary.invocations())
}

// Global device information events carry no operation identifier and route to
// the listener-level callback.
func TestListenerDeviceInformationChanged(t *testing.T) {
	events := &fakeEventChannel{}
	boundary := &fakeMethodChannel{}
	cache := operation.NewCache()

	changes := make(chan message.DeviceInformation, 1)
	listener, err := NewListener(ListenerParams{
		Events:   events,
		Boundary: boundary,
		Cache:    cache,
		OnDeviceInformationChanged: func(info message.DeviceInformation) {
			changes <- info
		},
	})
	require.NoError(t, err)

	// Keep one operation cached so the listener stays up.
	cache.Put(&operation.PlatformOperation{OperationID: "anchor"})
	require.NoError(t, listener.Start())
	defer listener.Stop()

	events.emit(t, message.EventDeviceInformationChanged, "", map[string]any{
		"deviceInformation": map[string]any{"name": "renamed phone", "deviceId": "dev-1"},
	})

	select {
	case info := <-changes:
		assert.Equal(t, "renamed phone", info.Name)
		assert.Equal(t, "dev-1", info.DeviceID)
	case <-time.After(2 * time.Second):
		t.Fatal("device information callback never fired")
	}
}

// Malformed frames are dropped without killing the dispatch goroutine.
func TestListenerDropsMalformed(t *testing.T) {
	listener, events, _, cache := newTestListener(t)

	results := make(chan *message.SuccessPayload, 1)
	cache.Put(&operation.PlatformOperation{
		OperationID: "op-1",
		Domain:      clienterror.DomainDeregistration,
		OnSuccess:   func(p *message.SuccessPayload) { results <- p },
	})
	require.NoError(t, listener.Start())

	events.mu.Lock()
	fn := events.fn
	events.mu.Unlock()
	fn([]byte("{not json"))
	fn([]byte(`{"operationId":"op-1"}`))

	events.emit(t, message.EventOperationSuccess, "op-1", nil)

	select {
	case <-results:
	case <-time.After(2 * time.Second):
		t.Fatal("success callback never fired")
	}
}

// A successor operation registered while the predecessor's terminal event is
// being dispatched must never be stranded without a subscription: the
// cache-emptiness check and the teardown share one critical section, so the
// successor either keeps the listener up or re-establishes it on Start.
func TestListenerTeardownStartHandoff(t *testing.T) {
	listener, events, _, cache := newTestListener(t)

	for i := 0; i < 500; i++ {
		first := fmt.Sprintf("first-%d", i)
		second := fmt.Sprintf("second-%d", i)
		results := make(chan string, 2)

		cache.Put(&operation.PlatformOperation{
			OperationID: first,
			Domain:      clienterror.DomainDeregistration,
			OnSuccess:   func(*message.SuccessPayload) { results <- first },
		})
		require.NoError(t, listener.Start())
		events.emit(t, message.EventOperationSuccess, first, nil)

		// The dispatch goroutine is now processing the predecessor's
		// terminal event, deciding whether to tear the listener down.
		// Register the successor concurrently with that decision.
		cache.Put(&operation.PlatformOperation{
			OperationID: second,
			Domain:      clienterror.DomainDeregistration,
			OnSuccess:   func(*message.SuccessPayload) { results <- second },
		})
		require.NoError(t, listener.Start())
		require.True(t, listener.Active(),
			"iteration %d: listener inactive with an operation cached", i)

		events.emit(t, message.EventOperationSuccess, second, nil)

		for n := 0; n < 2; n++ {
			select {
			case <-results:
			case <-time.After(2 * time.Second):
				t.Fatalf("iteration %d: terminal event stranded with %d operations cached", i, cache.Len())
			}
		}
		waitFor(t, func() bool { return !listener.Active() }, "listener did not stop after the last operation")
	}
}
