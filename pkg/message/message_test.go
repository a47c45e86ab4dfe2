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

package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantErr     error
		wantType    string
		wantOpID    string
		wantKnown   bool
		wantPayload bool
	}{
		{
			name:      "success event",
			raw:       `{"type":"onSuccess","operationId":"op-1","data":{"authorization":{"value":"tok"}}}`,
			wantType:  EventOperationSuccess,
			wantOpID:  "op-1",
			wantKnown: true,
		},
		{
			name:      "global event without operation id",
			raw:       `{"type":"localDeviceInformationChanged","data":{"deviceInformation":{"name":"phone"}}}`,
			wantType:  EventDeviceInformationChanged,
			wantKnown: true,
		},
		{
			name:      "unknown discriminator parses",
			raw:       `{"type":"somethingNew","operationId":"op-2"}`,
			wantType:  "somethingNew",
			wantOpID:  "op-2",
			wantKnown: false,
		},
		{
			name:    "malformed json",
			raw:     `{"type":`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "missing type tag",
			raw:     `{"operationId":"op-3"}`,
			wantErr: ErrMalformedEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tt.raw))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, env.Type)
			assert.Equal(t, tt.wantOpID, env.OperationID)
			assert.Equal(t, tt.wantKnown, env.KnownType())
		})
	}
}

func TestDecodePayload(t *testing.T) {
	t.Run("absent payload leaves target untouched", func(t *testing.T) {
		env, err := ParseEnvelope([]byte(`{"type":"onSuccess","operationId":"op-1"}`))
		require.NoError(t, err)

		payload := SuccessPayload{Authorization: &AuthorizationToken{Value: "sentinel"}}
		require.NoError(t, env.DecodePayload(&payload))
		assert.Equal(t, "sentinel", payload.Authorization.Value)
	})

	t.Run("missing optional fields decode to zero values", func(t *testing.T) {
		env, err := ParseEnvelope([]byte(`{"type":"pinVerificationRequired","operationId":"op-1","data":{}}`))
		require.NoError(t, err)

		var payload PinVerificationPayload
		require.NoError(t, env.DecodePayload(&payload))
		assert.Nil(t, payload.AttemptsRemaining)
		assert.False(t, payload.LastAttemptFailed)
	})

	t.Run("attempts remaining distinguishes absent from zero", func(t *testing.T) {
		env, err := ParseEnvelope([]byte(`{"type":"pinVerificationRequired","operationId":"op-1","data":{"attemptsRemaining":0,"lastAttemptFailed":true}}`))
		require.NoError(t, err)

		var payload PinVerificationPayload
		require.NoError(t, env.DecodePayload(&payload))
		require.NotNil(t, payload.AttemptsRemaining)
		assert.Equal(t, 0, *payload.AttemptsRemaining)
		assert.True(t, payload.LastAttemptFailed)
	})

	t.Run("malformed payload", func(t *testing.T) {
		env, err := ParseEnvelope([]byte(`{"type":"onError","operationId":"op-1","data":[1,2]}`))
		require.NoError(t, err)

		var payload ErrorPayload
		assert.ErrorIs(t, env.DecodePayload(&payload), ErrMalformedEvent)
	})
}

// TestCapabilityFlags_OnlyConfiguredHandlersAdvertised covers the contract
// that a request advertises exactly the handlers the caller configured.
func TestCapabilityFlags_OnlyConfiguredHandlersAdvertised(t *testing.T) {
	encoded, err := EncodeRequest(AuthenticationRequest{
		OperationID: "op-7",
		Username:    "alice",
		CapabilityFlags: CapabilityFlags{
			PinUserVerifierSet: true,
		},
	})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(encoded, &doc))

	// Flags are flattened into the request document.
	assert.Equal(t, "op-7", doc["operationId"])
	assert.Equal(t, "alice", doc["username"])
	assert.Equal(t, true, doc["pinUserVerifierSet"])
	assert.Equal(t, false, doc["accountSelectorSet"])
	assert.Equal(t, false, doc["authenticatorSelectorSet"])
	assert.Equal(t, false, doc["pinEnrollerSet"])
	assert.Equal(t, false, doc["biometricUserVerifierSet"])
	assert.Equal(t, false, doc["devicePasscodeUserVerifierSet"])
	assert.Equal(t, false, doc["fingerprintUserVerifierSet"])
}

func TestEncodeRequest_RegistrationOmitsEmptyOptionals(t *testing.T) {
	encoded, err := EncodeRequest(RegistrationRequest{
		OperationID: "op-9",
		Username:    "bob",
	})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(encoded, &doc))

	assert.NotContains(t, doc, "deviceInformation")
	assert.NotContains(t, doc, "authorization")
	assert.NotContains(t, doc, "serverUrl")
}

func TestAuthorizationTokenRoundTrip(t *testing.T) {
	encoded, err := json.Marshal(AuthorizationToken{Value: "tok", Type: "jwt"})
	require.NoError(t, err)

	// A zero expiry is omitted entirely rather than encoded as the zero time.
	assert.NotContains(t, string(encoded), "expiresAt")

	var decoded AuthorizationToken
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, "tok", decoded.Value)
	assert.True(t, decoded.ExpiresAt.IsZero())
}
