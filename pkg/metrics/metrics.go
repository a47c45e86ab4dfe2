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

// Package metrics provides Prometheus instrumentation for bridge operations.
// It exposes operation counters, dispatch histograms, and event drop counters
// so hosts can monitor the health of the native boundary.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all bridge metrics
	Namespace = "authbridge"

	// Label names
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelEventType = "event_type"
	LabelReason    = "reason"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpInitialize              = "initialize"
	OpRegister                = "register"
	OpAuthenticate            = "authenticate"
	OpOutOfBand               = "out_of_band"
	OpDeregister              = "deregister"
	OpPinChange               = "pin_change"
	OpDeviceInformationChange = "device_information_change"

	// Drop reasons
	DropMalformed        = "malformed"
	DropUnknownType      = "unknown_type"
	DropUnknownOperation = "unknown_operation"
	DropMissingHandler   = "missing_handler"
	DropQueueFull        = "queue_full"
)

var (
	// OperationsTotal tracks the total number of bridge operations by kind
	// and terminal status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of bridge operations by kind and terminal status",
		},
		[]string{LabelOperation, LabelStatus},
	)

	// OperationDuration tracks start-to-terminal operation duration in
	// seconds. Buckets cover interactive flows that wait on user input.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of bridge operations in seconds",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{LabelOperation},
	)

	// EventsDispatchedTotal tracks inbound native events routed to a
	// cached operation's handler, by event type.
	EventsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_dispatched_total",
			Help:      "Total number of native events dispatched to handlers",
		},
		[]string{LabelEventType},
	)

	// EventsDroppedTotal tracks inbound native events dropped without
	// reaching a handler, by reason.
	EventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_dropped_total",
			Help:      "Total number of native events dropped without dispatch",
		},
		[]string{LabelReason},
	)

	// ActiveOperations tracks the number of in-flight operations.
	ActiveOperations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_operations",
			Help:      "Number of in-flight bridge operations",
		},
	)

	// ListenerActive indicates whether the native event subscription is
	// established (1) or torn down (0).
	ListenerActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "listener_active",
			Help:      "Whether the native event subscription is active (1) or not (0)",
		},
	)

	// Goroutines tracks the current number of goroutines in the host
	// process. Updated periodically by the resource collector.
	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	// MemoryAllocBytes tracks the current bytes of allocated heap objects.
	// Updated periodically by the resource collector.
	MemoryAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_alloc_bytes",
			Help:      "Current bytes of allocated heap objects",
		},
	)

	// Uptime tracks seconds since the bridge was created. Updated
	// periodically by the resource collector.
	Uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "uptime_seconds",
			Help:      "Seconds since the bridge was created",
		},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	// Metrics are enabled by default
	enabled.Store(true)
}

// RecordOperation records a completed bridge operation with its duration and
// terminal status.
//
// Parameters:
//   - operation: The operation name (use Op* constants)
//   - status: The terminal status (use Status* constants)
//   - duration: The start-to-terminal duration in seconds
func RecordOperation(operation, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordEventDispatched records a native event routed to a handler.
func RecordEventDispatched(eventType string) {
	if !enabled.Load() {
		return
	}
	EventsDispatchedTotal.WithLabelValues(eventType).Inc()
}

// RecordEventDropped records a native event dropped without dispatch.
// Use the Drop* constants for reason.
func RecordEventDropped(reason string) {
	if !enabled.Load() {
		return
	}
	EventsDroppedTotal.WithLabelValues(reason).Inc()
}

// SetActiveOperations sets the in-flight operation gauge.
func SetActiveOperations(count int) {
	if !enabled.Load() {
		return
	}
	ActiveOperations.Set(float64(count))
}

// SetListenerActive sets the listener subscription gauge.
// active=true sets the gauge to 1, active=false sets it to 0.
func SetListenerActive(active bool) {
	if !enabled.Load() {
		return
	}
	value := 0.0
	if active {
		value = 1.0
	}
	ListenerActive.Set(value)
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
