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

// Package oob decodes out-of-band messages into redeemable payloads. QR codes
// carry the payload as plain JSON; push notifications wrap it in a signed JWT
// so the dispatch infrastructure cannot tamper with the redemption data.
package oob

import (
	"encoding/json"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jeremyhahn/go-authbridge/pkg/clienterror"
	"github.com/jeremyhahn/go-authbridge/pkg/message"
)

// pushClaims is the JWT claim set carried by push-delivered payloads.
type pushClaims struct {
	RedeemURL     string `json:"redeemUrl"`
	Token         string `json:"token"`
	Operation     string `json:"operation,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	Version       string `json:"version,omitempty"`
	jwt.RegisteredClaims
}

// DecodeQR decodes the JSON contents of a scanned QR code.
// Failures are reported as typed OutOfBandPayloadError values.
func DecodeQR(data []byte) (*message.OutOfBandPayload, error) {
	var payload message.OutOfBandPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &clienterror.OutOfBandPayloadError{
			Kind:        clienterror.OutOfBandPayloadMalformed,
			Description: "qr payload is not valid JSON",
			Cause:       err.Error(),
		}
	}
	if err := validate(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DecodePush decodes and verifies a JWT-wrapped push payload using the shared
// HMAC key provisioned during registration. An expired token yields an
// OutOfBandPayloadError with the expired kind; any other verification failure
// is reported as malformed.
func DecodePush(token string, key []byte) (*message.OutOfBandPayload, error) {
	claims := &pushClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, &clienterror.OutOfBandPayloadError{
				Kind:        clienterror.OutOfBandPayloadExpired,
				Description: "push payload token has expired",
				Cause:       err.Error(),
			}
		}
		return nil, &clienterror.OutOfBandPayloadError{
			Kind:        clienterror.OutOfBandPayloadMalformed,
			Description: "push payload token verification failed",
			Cause:       err.Error(),
		}
	}

	payload := &message.OutOfBandPayload{
		Version:       claims.Version,
		Operation:     claims.Operation,
		TransactionID: claims.TransactionID,
		RedeemURL:     claims.RedeemURL,
		Token:         claims.Token,
	}
	if err := validate(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// validate enforces the fields the native side cannot redeem without.
func validate(payload *message.OutOfBandPayload) error {
	if payload.RedeemURL == "" {
		return &clienterror.OutOfBandPayloadError{
			Kind:        clienterror.OutOfBandPayloadMalformed,
			Description: "payload is missing redeemUrl",
		}
	}
	if payload.Token == "" {
		return &clienterror.OutOfBandPayloadError{
			Kind:        clienterror.OutOfBandPayloadMalformed,
			Description: "payload is missing token",
		}
	}
	return nil
}
