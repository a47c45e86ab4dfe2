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

// Package client is the application-facing surface of the bridge. Operations
// are configured with immutable config structs and executed with one blocking
// call per operation kind; intermediate prompts reach the caller through the
// handler interfaces in pkg/operation, and exactly one terminal outcome
// (success or typed error) is returned per operation identifier.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/jeremyhahn/go-authbridge/pkg/channel"
	"github.com/jeremyhahn/go-authbridge/pkg/correlation"
	"github.com/jeremyhahn/go-authbridge/pkg/dispatch"
	"github.com/jeremyhahn/go-authbridge/pkg/logging"
	"github.com/jeremyhahn/go-authbridge/pkg/message"
	"github.com/jeremyhahn/go-authbridge/pkg/metrics"
	"github.com/jeremyhahn/go-authbridge/pkg/operation"
)

// ClientParams contains dependencies for creating a Client.
type ClientParams struct {
	// Boundary is the outbound method channel to the native side (required).
	Boundary channel.MethodChannel

	// Events is the inbound native event channel (required).
	Events channel.EventChannel

	// Logger is optional; a default logger is used when nil.
	Logger *logging.Logger

	// OnDeviceInformationChanged receives global device information
	// events. Optional.
	OnDeviceInformationChanged func(message.DeviceInformation)
}

// Client owns the operation cache and the event listener for the process
// lifetime. It is safe for concurrent use; each in-flight operation is keyed
// by its own identifier.
type Client struct {
	boundary channel.MethodChannel
	cache    *operation.Cache
	listener *dispatch.Listener
	log      *logging.Logger
}

// New creates a Client bound to the given native channels.
func New(params ClientParams) (*Client, error) {
	if params.Boundary == nil {
		return nil, fmt.Errorf("boundary method channel is required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("event channel is required")
	}
	log := params.Logger
	if log == nil {
		log = logging.DefaultLogger()
	}

	cache := operation.NewCache()
	listener, err := dispatch.NewListener(dispatch.ListenerParams{
		Events:                     params.Events,
		Boundary:                   params.Boundary,
		Cache:                      cache,
		Logger:                     log,
		OnDeviceInformationChanged: params.OnDeviceInformationChanged,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		boundary: params.Boundary,
		cache:    cache,
		listener: listener,
		log:      log.Component("client"),
	}, nil
}

// ListenerActive reports whether the native event subscription is currently
// established.
func (c *Client) ListenerActive() bool {
	return c.listener.Active()
}

// ActiveOperations returns the number of in-flight operations.
func (c *Client) ActiveOperations() int {
	return c.cache.Len()
}

// outcome is the terminal result delivered by the dispatcher.
type outcome struct {
	payload *message.SuccessPayload
	err     error
}

// execute runs one operation to its terminal state: it caches the operation,
// ensures the listener is active, sends the encoded request, and blocks until
// the dispatcher delivers success or a typed error. Cancelling ctx abandons
// the wait and removes the cache entry; in-flight native events for the
// identifier are then dropped by the dispatcher.
func (c *Client) execute(ctx context.Context, op operation.Operation, method string, payload any, opName string, done <-chan outcome) (*message.SuccessPayload, error) {
	c.cache.Put(op)
	metrics.SetActiveOperations(c.cache.Len())

	if err := c.listener.Start(); err != nil {
		c.abandon(op.ID())
		return nil, err
	}

	encoded, err := message.EncodeRequest(payload)
	if err != nil {
		c.abandon(op.ID())
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	start := time.Now()
	c.log.Debugf("starting %s operation %s", opName, op.ID())

	if err := c.boundary.Invoke(ctx, method, encoded); err != nil {
		c.abandon(op.ID())
		metrics.RecordOperation(opName, metrics.StatusError, time.Since(start).Seconds())
		return nil, fmt.Errorf("invoke %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		c.abandon(op.ID())
		metrics.RecordOperation(opName, metrics.StatusError, time.Since(start).Seconds())
		return nil, ctx.Err()
	case out := <-done:
		status := metrics.StatusSuccess
		if out.err != nil {
			status = metrics.StatusError
		}
		metrics.RecordOperation(opName, status, time.Since(start).Seconds())
		return out.payload, out.err
	}
}

// abandon removes an operation that never reached a terminal event and stops
// the listener when it was the last one.
func (c *Client) abandon(operationID string) {
	c.cache.Delete(operationID)
	metrics.SetActiveOperations(c.cache.Len())
	c.listener.StopIfIdle()
}

// terminal builds the pair of terminal callbacks feeding the outcome channel.
// The dispatcher delivers at most one terminal event per identifier; the
// buffered channel keeps delivery non-blocking regardless.
func terminal() (chan outcome, func(*message.SuccessPayload), func(error)) {
	done := make(chan outcome, 1)
	onSuccess := func(p *message.SuccessPayload) {
		done <- outcome{payload: p}
	}
	onError := func(err error) {
		done <- outcome{err: err}
	}
	return done, onSuccess, onError
}

// operationID resolves the identifier for a new operation, honoring one
// supplied through the context for tests and tracing.
func operationID(ctx context.Context) string {
	return correlation.GetOrGenerate(ctx)
}
