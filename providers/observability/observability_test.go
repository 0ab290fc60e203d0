package observability

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestAttributeConstructors(t *testing.T) {
	tests := []struct {
		name      string
		attr      Attribute
		wantKey   string
		wantValue any
	}{
		{"string", String("graph.name", "echo"), "graph.name", "echo"},
		{"string slice", StringSlice("graph.history", []string{"a", "b"}), "graph.history", []string{"a", "b"}},
		{"int", Int("graph.activations", 3), "graph.activations", 3},
		{"int64", Int64("tokens", 9223372036854775807), "tokens", int64(9223372036854775807)},
		{"duration", Duration(AttrDuration, 2*time.Second), AttrDuration, 2 * time.Second},
		{"error", Error(errors.New("boom")), AttrError, "boom"},
		{"nil error", Error(nil), AttrError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("Expected key %q, got %q", tt.wantKey, tt.attr.Key)
			}
			if !reflect.DeepEqual(tt.attr.Value, tt.wantValue) {
				t.Errorf("Expected value %v, got %v", tt.wantValue, tt.attr.Value)
			}
		})
	}
}

func TestStatusCode_Values(t *testing.T) {
	if StatusUnset != 0 || StatusOK != 1 || StatusError != 2 {
		t.Errorf("Unexpected status code values: %d %d %d", StatusUnset, StatusOK, StatusError)
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("Expected untouched string, got %q", got)
	}

	got := TruncateString("abcdefghij", 4)
	if !strings.HasPrefix(got, "abcd...") {
		t.Errorf("Expected prefix 'abcd...', got %q", got)
	}
	if !strings.Contains(got, "total: 10 chars") {
		t.Errorf("Expected original length in suffix, got %q", got)
	}

	long := strings.Repeat("x", DefaultMaxStringLength+1)
	if got := TruncateString(long, 0); len(got) <= DefaultMaxStringLength || !strings.Contains(got, "truncated") {
		t.Errorf("Expected default length to apply for maxLen <= 0, got %d chars", len(got))
	}
	if got := TruncateStringDefault("ok"); got != "ok" {
		t.Errorf("Expected 'ok', got %q", got)
	}
}

func TestTruncateString_CountsRunes(t *testing.T) {
	got := TruncateString("ação rápida", 3)
	if got != "açã... (truncated, total: 11 chars)" {
		t.Errorf("TruncateString() = %q", got)
	}
}

func BenchmarkAttribute_String(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = String("key", "value")
	}
}
