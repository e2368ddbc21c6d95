package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasChanges(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name    string
		desired map[string]any
		current map[string]any
		ignore  []string
		want    bool
	}{
		{
			name:    "identical",
			desired: map[string]any{"firstname": "Alice", "lastname": "Doe"},
			current: map[string]any{"firstname": "Alice", "lastname": "Doe"},
			want:    false,
		},
		{
			name:    "changed field",
			desired: map[string]any{"firstname": "Alice"},
			current: map[string]any{"firstname": "Alicia"},
			want:    true,
		},
		{
			name:    "difference only in ignored field",
			desired: map[string]any{"firstname": "Alice", "updated_at": "2025-03-01"},
			current: map[string]any{"firstname": "Alice", "updated_at": "2024-01-01"},
			ignore:  []string{"updated_at"},
			want:    false,
		},
		{
			name:    "trimmed strings equal",
			desired: map[string]any{"firstname": "Alice "},
			current: map[string]any{"firstname": " Alice"},
			want:    false,
		},
		{
			name:    "numeric within tolerance",
			desired: map[string]any{"amount": 10.0005},
			current: map[string]any{"amount": "10.001"},
			want:    false,
		},
		{
			name:    "numeric beyond tolerance",
			desired: map[string]any{"amount": 10.0},
			current: map[string]any{"amount": 10.01},
			want:    true,
		},
		{
			name:    "boolean-like string",
			desired: map[string]any{"active": true},
			current: map[string]any{"active": "1"},
			want:    false,
		},
		{
			name:    "nil equals empty string",
			desired: map[string]any{"managerMail": nil},
			current: map[string]any{"managerMail": ""},
			want:    false,
		},
		{
			name:    "missing target field with non-empty value",
			desired: map[string]any{"culture": "fr-FR"},
			current: map[string]any{},
			want:    true,
		},
		{
			name:    "missing target field with empty value",
			desired: map[string]any{"culture": ""},
			current: map[string]any{},
			want:    false,
		},
		{
			name: "nested slice equal",
			desired: map[string]any{
				"names": []any{map[string]any{"culture": "fr-FR", "value": "Projet A"}},
			},
			current: map[string]any{
				"names": []any{map[string]any{"culture": "fr-FR", "value": "Projet A"}},
			},
			want: false,
		},
		{
			name: "nested slice differs",
			desired: map[string]any{
				"names": []any{map[string]any{"culture": "fr-FR", "value": "Projet A"}},
			},
			current: map[string]any{
				"names": []any{map[string]any{"culture": "fr-FR", "value": "Projet B"}},
			},
			want: true,
		},
		{
			name:    "extra target fields do not count",
			desired: map[string]any{"firstname": "Alice"},
			current: map[string]any{"firstname": "Alice", "uuid": "abc-123"},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.HasChanges(tt.desired, tt.current, tt.ignore))
		})
	}
}

func TestHasChangesBytesFromDriver(t *testing.T) {
	d := NewDetector()

	desired := map[string]any{"company": "ACME"}
	current := map[string]any{"company": []byte("ACME")}
	assert.False(t, d.HasChanges(desired, current, nil))
}
