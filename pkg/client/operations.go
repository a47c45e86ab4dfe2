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

package client

import (
	"context"

	"github.com/jeremyhahn/go-authbridge/pkg/channel"
	"github.com/jeremyhahn/go-authbridge/pkg/clienterror"
	"github.com/jeremyhahn/go-authbridge/pkg/message"
	"github.com/jeremyhahn/go-authbridge/pkg/metrics"
	"github.com/jeremyhahn/go-authbridge/pkg/operation"
)

// Initialization configures the one-time native SDK setup.
type Initialization struct {
	ServerURL string
	Debug     bool
}

// Initialize establishes the native SDK. It must complete successfully before
// any other operation is executed.
func (c *Client) Initialize(ctx context.Context, cfg Initialization) error {
	id := operationID(ctx)
	done, onSuccess, onError := terminal()

	op := &operation.PlatformOperation{
		OperationID: id,
		Domain:      clienterror.DomainInitialization,
		OnSuccess:   onSuccess,
		OnError:     onError,
	}

	_, err := c.execute(ctx, op, channel.MethodInitialize, message.InitializationRequest{
		OperationID: id,
		ServerURL:   cfg.ServerURL,
		Debug:       cfg.Debug,
	}, metrics.OpInitialize, done)
	return err
}

// Registration configures a FIDO registration flow. Handler fields left nil
// are reported as absent to the native side.
type Registration struct {
	Username          string
	ServerURL         string
	DeviceInformation *message.DeviceInformation
	Authorization     *message.AuthorizationToken

	AuthenticatorSelector      operation.AuthenticatorSelector
	PinEnroller                operation.PinEnroller
	BiometricUserVerifier      operation.BiometricUserVerifier
	DevicePasscodeUserVerifier operation.DevicePasscodeUserVerifier
	FingerprintUserVerifier    operation.FingerprintUserVerifier
}

// Register executes a registration flow and returns the authorization token
// on success.
func (c *Client) Register(ctx context.Context, cfg Registration) (*message.AuthorizationToken, error) {
	id := operationID(ctx)
	done, onSuccess, onError := terminal()

	op := &operation.UserInteractionOperation{
		OperationID:                id,
		Domain:                     clienterror.DomainRegistration,
		AuthenticatorSelector:      cfg.AuthenticatorSelector,
		PinEnroller:                cfg.PinEnroller,
		BiometricUserVerifier:      cfg.BiometricUserVerifier,
		DevicePasscodeUserVerifier: cfg.DevicePasscodeUserVerifier,
		FingerprintUserVerifier:    cfg.FingerprintUserVerifier,
		OnSuccess:                  onSuccess,
		OnError:                    onError,
	}

	payload, err := c.execute(ctx, op, channel.MethodRegister, message.RegistrationRequest{
		OperationID:       id,
		Username:          cfg.Username,
		ServerURL:         cfg.ServerURL,
		DeviceInformation: cfg.DeviceInformation,
		Authorization:     cfg.Authorization,
		CapabilityFlags:   op.Flags(),
	}, metrics.OpRegister, done)
	if err != nil {
		return nil, err
	}
	return payload.Authorization, nil
}

// Authentication configures a FIDO authentication flow.
type Authentication struct {
	Username string

	AccountSelector            operation.AccountSelector
	AuthenticatorSelector      operation.AuthenticatorSelector
	PinUserVerifier            operation.PinUserVerifier
	BiometricUserVerifier      operation.BiometricUserVerifier
	DevicePasscodeUserVerifier operation.DevicePasscodeUserVerifier
	FingerprintUserVerifier    operation.FingerprintUserVerifier
}

// Authenticate executes an authentication flow and returns the authorization
// token on success.
func (c *Client) Authenticate(ctx context.Context, cfg Authentication) (*message.AuthorizationToken, error) {
	id := operationID(ctx)
	done, onSuccess, onError := terminal()

	op := &operation.UserInteractionOperation{
		OperationID:                id,
		Domain:                     clienterror.DomainAuthentication,
		AccountSelector:            cfg.AccountSelector,
		AuthenticatorSelector:      cfg.AuthenticatorSelector,
		PinUserVerifier:            cfg.PinUserVerifier,
		BiometricUserVerifier:      cfg.BiometricUserVerifier,
		DevicePasscodeUserVerifier: cfg.DevicePasscodeUserVerifier,
		FingerprintUserVerifier:    cfg.FingerprintUserVerifier,
		OnSuccess:                  onSuccess,
		OnError:                    onError,
	}

	payload, err := c.execute(ctx, op, channel.MethodAuthenticate, message.AuthenticationRequest{
		OperationID:     id,
		Username:        cfg.Username,
		CapabilityFlags: op.Flags(),
	}, metrics.OpAuthenticate, done)
	if err != nil {
		return nil, err
	}
	return payload.Authorization, nil
}

// OutOfBandOperation configures the redemption of an out-of-band payload.
// The backend decides whether the flow continues as registration or
// authentication, so both handler sets may be supplied.
type OutOfBandOperation struct {
	Payload *message.OutOfBandPayload

	AccountSelector            operation.AccountSelector
	AuthenticatorSelector      operation.AuthenticatorSelector
	PinEnroller                operation.PinEnroller
	PinUserVerifier            operation.PinUserVerifier
	BiometricUserVerifier      operation.BiometricUserVerifier
	DevicePasscodeUserVerifier operation.DevicePasscodeUserVerifier
	FingerprintUserVerifier    operation.FingerprintUserVerifier
}

// ProcessOutOfBand redeems an out-of-band payload and runs the resulting flow
// to completion, returning the authorization token on success.
func (c *Client) ProcessOutOfBand(ctx context.Context, cfg OutOfBandOperation) (*message.AuthorizationToken, error) {
	id := operationID(ctx)
	done, onSuccess, onError := terminal()

	op := &operation.UserInteractionOperation{
		OperationID:                id,
		Domain:                     clienterror.DomainOutOfBandOperation,
		AccountSelector:            cfg.AccountSelector,
		AuthenticatorSelector:      cfg.AuthenticatorSelector,
		PinEnroller:                cfg.PinEnroller,
		PinUserVerifier:            cfg.PinUserVerifier,
		BiometricUserVerifier:      cfg.BiometricUserVerifier,
		DevicePasscodeUserVerifier: cfg.DevicePasscodeUserVerifier,
		FingerprintUserVerifier:    cfg.FingerprintUserVerifier,
		OnSuccess:                  onSuccess,
		OnError:                    onError,
	}

	payload, err := c.execute(ctx, op, channel.MethodProcessOutOfBandPayload, message.OutOfBandOperationRequest{
		OperationID:     id,
		Payload:         cfg.Payload,
		CapabilityFlags: op.Flags(),
	}, metrics.OpOutOfBand, done)
	if err != nil {
		return nil, err
	}
	return payload.Authorization, nil
}

// Deregistration configures credential removal for a username, or for a
// single authenticator when AAID is set.
type Deregistration struct {
	Username      string
	AAID          string
	Authorization *message.AuthorizationToken
}

// Deregister removes credentials on the native side and the backend.
func (c *Client) Deregister(ctx context.Context, cfg Deregistration) error {
	id := operationID(ctx)
	done, onSuccess, onError := terminal()

	op := &operation.PlatformOperation{
		OperationID: id,
		Domain:      clienterror.DomainDeregistration,
		OnSuccess:   onSuccess,
		OnError:     onError,
	}

	_, err := c.execute(ctx, op, channel.MethodDeregister, message.DeregistrationRequest{
		OperationID:   id,
		Username:      cfg.Username,
		AAID:          cfg.AAID,
		Authorization: cfg.Authorization,
	}, metrics.OpDeregister, done)
	return err
}

// PinChange configures an interactive PIN change flow.
type PinChange struct {
	Username   string
	PinChanger operation.PinChanger
}

// ChangePin executes a PIN change flow.
func (c *Client) ChangePin(ctx context.Context, cfg PinChange) error {
	id := operationID(ctx)
	done, onSuccess, onError := terminal()

	op := &operation.UserInteractionOperation{
		OperationID: id,
		Domain:      clienterror.DomainPinChange,
		PinChanger:  cfg.PinChanger,
		OnSuccess:   onSuccess,
		OnError:     onError,
	}

	_, err := c.execute(ctx, op, channel.MethodChangePin, message.PinChangeRequest{
		OperationID:   id,
		Username:      cfg.Username,
		PinChangerSet: cfg.PinChanger != nil,
	}, metrics.OpPinChange, done)
	return err
}

// DeviceInformationChange configures an update of the dispatch target
// metadata.
type DeviceInformationChange struct {
	Name                     string
	PushToken                string
	DisablePushNotifications bool
}

// ChangeDeviceInformation updates the device name and push settings.
func (c *Client) ChangeDeviceInformation(ctx context.Context, cfg DeviceInformationChange) error {
	id := operationID(ctx)
	done, onSuccess, onError := terminal()

	op := &operation.PlatformOperation{
		OperationID: id,
		Domain:      clienterror.DomainDeviceInformationChange,
		OnSuccess:   onSuccess,
		OnError:     onError,
	}

	_, err := c.execute(ctx, op, channel.MethodChangeDeviceInformation, message.DeviceInformationChangeRequest{
		OperationID:              id,
		Name:                     cfg.Name,
		PushToken:                cfg.PushToken,
		DisablePushNotifications: cfg.DisablePushNotifications,
	}, metrics.OpDeviceInformationChange, done)
	return err
}
