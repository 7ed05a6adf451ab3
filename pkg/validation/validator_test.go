package validation

import (
	"strings"
	"testing"
)

// TestValidateNodeDocument tests node document validation
func TestValidateNodeDocument(t *testing.T) {
	tests := []struct {
		name        string
		doc         NodeDocument
		expectError bool
	}{
		{
			name:        "Valid minimal node",
			doc:         NodeDocument{ID: "acct-1"},
			expectError: false,
		},
		{
			name: "Valid node with metadata",
			doc: NodeDocument{
				ID:             "user:alice@example",
				Stake:          500,
				PaymentHistory: 1200,
				ContentQuality: 85,
				MinorityGroup:  true,
				Extra:          map[string]float64{"tenure_years": 3},
			},
			expectError: false,
		},
		{
			name:        "Empty id - invalid",
			doc:         NodeDocument{ID: ""},
			expectError: true,
		},
		{
			name:        "Id too long - invalid",
			doc:         NodeDocument{ID: strings.Repeat("a", 129)},
			expectError: true,
		},
		{
			name:        "Id with invalid characters",
			doc:         NodeDocument{ID: "acct one"},
			expectError: true,
		},
		{
			name:        "Negative stake - invalid",
			doc:         NodeDocument{ID: "a", Stake: -1},
			expectError: true,
		},
		{
			name:        "Quality above 100 - invalid",
			doc:         NodeDocument{ID: "a", ContentQuality: 101},
			expectError: true,
		},
		{
			name:        "Extra key with invalid characters",
			doc:         NodeDocument{ID: "a", Extra: map[string]float64{"1bad": 0}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeDocument(&tt.doc)
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestValidateNodeDocument_Nil tests the nil document guard
func TestValidateNodeDocument_Nil(t *testing.T) {
	if err := ValidateNodeDocument(nil); err == nil {
		t.Error("expected error for nil document")
	}
}

// TestValidateEdgeDocument tests edge document validation
func TestValidateEdgeDocument(t *testing.T) {
	tests := []struct {
		name        string
		doc         EdgeDocument
		expectError bool
	}{
		{
			name: "Valid edge",
			doc: EdgeDocument{
				Source:    "a",
				Target:    "b",
				Weight:    0.8,
				Type:      "endorse",
				Timestamp: "2025-06-01T00:00:00Z",
			},
			expectError: false,
		},
		{
			name: "Valid economic edge",
			doc: EdgeDocument{
				Source:        "a",
				Target:        "b",
				Weight:        1,
				Type:          "payment",
				Timestamp:     "2025-06-01T00:00:00Z",
				PaymentAmount: 250,
				StakeBacked:   true,
				Verified:      true,
			},
			expectError: false,
		},
		{
			name: "Missing source - invalid",
			doc: EdgeDocument{
				Target:    "b",
				Weight:    0.5,
				Type:      "follow",
				Timestamp: "2025-06-01T00:00:00Z",
			},
			expectError: true,
		},
		{
			name: "Weight above one - invalid",
			doc: EdgeDocument{
				Source:    "a",
				Target:    "b",
				Weight:    1.5,
				Type:      "follow",
				Timestamp: "2025-06-01T00:00:00Z",
			},
			expectError: true,
		},
		{
			name: "Negative weight - invalid",
			doc: EdgeDocument{
				Source:    "a",
				Target:    "b",
				Weight:    -0.1,
				Type:      "follow",
				Timestamp: "2025-06-01T00:00:00Z",
			},
			expectError: true,
		},
		{
			name: "Missing timestamp - invalid",
			doc: EdgeDocument{
				Source: "a",
				Target: "b",
				Weight: 0.5,
				Type:   "follow",
			},
			expectError: true,
		},
		{
			name: "Missing type - invalid",
			doc: EdgeDocument{
				Source:    "a",
				Target:    "b",
				Weight:    0.5,
				Timestamp: "2025-06-01T00:00:00Z",
			},
			expectError: true,
		},
		{
			name: "Source with invalid characters",
			doc: EdgeDocument{
				Source:    "a b",
				Target:    "c",
				Weight:    0.5,
				Type:      "follow",
				Timestamp: "2025-06-01T00:00:00Z",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEdgeDocument(&tt.doc)
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestValidateBatchSize tests batch size limits
func TestValidateBatchSize(t *testing.T) {
	if err := ValidateBatchSize(0); err == nil {
		t.Error("expected error for zero batch")
	}
	if err := ValidateBatchSize(1); err != nil {
		t.Errorf("unexpected error for size 1: %v", err)
	}
	if err := ValidateBatchSize(MaxBatchSize); err != nil {
		t.Errorf("unexpected error at limit: %v", err)
	}
	if err := ValidateBatchSize(MaxBatchSize + 1); err == nil {
		t.Error("expected error above limit")
	}
}

// TestValidateExtraKey tests metadata extension key validation
func TestValidateExtraKey(t *testing.T) {
	tests := []struct {
		key         string
		expectError bool
	}{
		{"tenure_years", false},
		{"_internal", false},
		{"a1", false},
		{"", true},
		{"1leading", true},
		{"has space", true},
		{strings.Repeat("k", 101), true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateExtraKey(tt.key)
			if tt.expectError && err == nil {
				t.Errorf("ValidateExtraKey(%q) = nil, want error", tt.key)
			}
			if !tt.expectError && err != nil {
				t.Errorf("ValidateExtraKey(%q) = %v, want nil", tt.key, err)
			}
		})
	}
}
