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

package correlation

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestWithOperationID(t *testing.T) {
	tests := []struct {
		name        string
		ctx         context.Context
		operationID string
		want        string
	}{
		{
			name:        "Add operation ID to context",
			ctx:         context.Background(),
			operationID: "op-1",
			want:        "op-1",
		},
		{
			name:        "Add operation ID to nil context",
			ctx:         nil,
			operationID: "op-2",
			want:        "op-2",
		},
		{
			name:        "Add empty operation ID",
			ctx:         context.Background(),
			operationID: "",
			want:        "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithOperationID(tt.ctx, tt.operationID)
			if ctx == nil {
				t.Fatal("WithOperationID returned nil context")
			}
			got := GetOperationID(ctx)
			if got != tt.want {
				t.Errorf("GetOperationID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetOperationID(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{
			name: "Get operation ID from context",
			ctx:  WithOperationID(context.Background(), "op-42"),
			want: "op-42",
		},
		{
			name: "Get from context without operation ID",
			ctx:  context.Background(),
			want: "",
		},
		{
			name: "Get from nil context",
			ctx:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetOperationID(tt.ctx)
			if got != tt.want {
				t.Errorf("GetOperationID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		got := NewID()

		// Verify it's a valid UUID
		if _, err := uuid.Parse(got); err != nil {
			t.Errorf("NewID() returned invalid UUID: %v, error: %v", got, err)
		}

		// Verify it's unique
		if seen[got] {
			t.Errorf("NewID() returned duplicate ID: %v", got)
		}
		seen[got] = true
	}
}

func TestGetOrGenerate(t *testing.T) {
	existingID := "existing-operation-id"

	tests := []struct {
		name      string
		ctx       context.Context
		wantExact string
		wantNew   bool
	}{
		{
			name:      "Get existing operation ID",
			ctx:       WithOperationID(context.Background(), existingID),
			wantExact: existingID,
			wantNew:   false,
		},
		{
			name:      "Generate new operation ID from context without one",
			ctx:       context.Background(),
			wantExact: "",
			wantNew:   true,
		},
		{
			name:      "Generate new operation ID from nil context",
			ctx:       nil,
			wantExact: "",
			wantNew:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetOrGenerate(tt.ctx)

			if tt.wantNew {
				if _, err := uuid.Parse(got); err != nil {
					t.Errorf("GetOrGenerate() returned invalid UUID: %v, error: %v", got, err)
				}
			} else if got != tt.wantExact {
				t.Errorf("GetOrGenerate() = %v, want %v", got, tt.wantExact)
			}
		})
	}
}

func TestContextKeyIsolation(t *testing.T) {
	// Verify that the operation ID doesn't conflict with a string key of the
	// same name.
	operationID := "op-isolated"

	type plainKey string
	ctx := context.Background()
	ctx = context.WithValue(ctx, plainKey("operation-id"), "wrong-value")
	ctx = WithOperationID(ctx, operationID)

	got := GetOperationID(ctx)
	if got != operationID {
		t.Errorf("Context key collision detected, got %v, want %v", got, operationID)
	}
}

func BenchmarkNewID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		NewID()
	}
}
