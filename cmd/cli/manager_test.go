// manager_test.go: Manager setup and helper tests
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/agilira/hypnos"
)

func TestNewManager(t *testing.T) {
	manager := NewManager()

	if manager == nil {
		t.Fatal("NewManager() returned nil")
	}
	if manager.app == nil {
		t.Fatal("Manager.app not initialized")
	}
	if manager.auditLogger != nil {
		t.Error("Manager.auditLogger should be nil by default")
	}
}

func TestManagerWithAudit(t *testing.T) {
	auditPath := filepath.Join(t.TempDir(), "cli-audit.jsonl")

	auditLogger, err := hypnos.NewAuditLogger(hypnos.AuditConfig{
		Enabled:       true,
		OutputFile:    auditPath,
		MinLevel:      hypnos.AuditInfo,
		BufferSize:    16,
		FlushInterval: time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create audit logger: %v", err)
	}
	defer func() {
		if err := auditLogger.Close(); err != nil {
			t.Logf("Failed to close auditLogger: %v", err)
		}
	}()

	baseManager := NewManager()
	manager := baseManager.WithAudit(auditLogger)

	if manager.auditLogger == nil {
		t.Error("WithAudit() did not set audit logger")
	}
	if manager != baseManager {
		t.Error("WithAudit() should return same manager instance for chaining")
	}
}

func TestParseExtendedDuration(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"standard_hours", "24h", 24 * time.Hour, false},
		{"standard_minutes", "5m", 5 * time.Minute, false},
		{"days", "7d", 7 * 24 * time.Hour, false},
		{"weeks", "2w", 14 * 24 * time.Hour, false},
		{"single_day", "1d", 24 * time.Hour, false},
		{"invalid_unit", "3y", 0, true},
		{"empty", "", 0, true},
		{"garbage", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseExtendedDuration(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseExtendedDuration(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseExtendedDuration(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("parseExtendedDuration(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFlattenValue(t *testing.T) {
	value := map[string]interface{}{
		"app": map[string]interface{}{
			"name": "test",
			"port": 8080,
		},
		"tags":  []interface{}{"a", "b"},
		"debug": true,
	}

	t.Run("all_keys_sorted", func(t *testing.T) {
		entries := flattenValue(value, "")
		want := []string{"app.name", "app.port", "debug", "tags.0", "tags.1"}
		if len(entries) != len(want) {
			t.Fatalf("expected %d entries, got %d", len(want), len(entries))
		}
		for i, key := range want {
			if entries[i].key != key {
				t.Errorf("entry %d: expected key %q, got %q", i, key, entries[i].key)
			}
		}
	})

	t.Run("prefix_filter", func(t *testing.T) {
		entries := flattenValue(value, "app.")
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries with prefix, got %d", len(entries))
		}
	})
}

func TestLookupValue(t *testing.T) {
	value := map[string]interface{}{
		"db": map[string]interface{}{
			"pool": map[string]interface{}{
				"size": 20,
			},
		},
	}

	t.Run("nested_path", func(t *testing.T) {
		got, ok := lookupValue(value, "db.pool.size")
		if !ok {
			t.Fatal("expected db.pool.size to resolve")
		}
		if got != 20 {
			t.Errorf("expected 20, got %v", got)
		}
	})

	t.Run("missing_path", func(t *testing.T) {
		if _, ok := lookupValue(value, "db.host"); ok {
			t.Error("expected db.host to be absent")
		}
	})

	t.Run("path_through_scalar", func(t *testing.T) {
		if _, ok := lookupValue(value, "db.pool.size.extra"); ok {
			t.Error("expected descent through scalar to fail")
		}
	})
}

func TestGenerateTemplate(t *testing.T) {
	for _, name := range []string{"default", "trainer", "minimal"} {
		t.Run(name, func(t *testing.T) {
			config, err := generateTemplate(name)
			if err != nil {
				t.Fatalf("generateTemplate(%q) error: %v", name, err)
			}
			if len(config) == 0 {
				t.Errorf("generateTemplate(%q) returned empty config", name)
			}
		})
	}

	t.Run("unknown_template", func(t *testing.T) {
		if _, err := generateTemplate("nope"); err == nil {
			t.Error("expected error for unknown template")
		}
	})
}
