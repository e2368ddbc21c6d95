package erp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expense-sync/core/reconcile"
)

func TestNormalizeUsers(t *testing.T) {
	records := []reconcile.Record{
		{
			"mail":         " Alice.DOE@X.COM ",
			"manager_mail": "NONE",
			"structure":    "",
			"sso_method":   "Saml",
		},
		{
			"mail":         "bob@x.com",
			"manager_mail": "Manager@X.com",
			"structure":    "L1",
			"sso_method":   "Sso",
		},
	}

	normalized := NormalizeUsers(records)
	require.Len(t, normalized, 2)

	assert.Equal(t, "alice.doe@x.com", normalized[0]["mail"])
	assert.Equal(t, "", normalized[0]["manager_mail"])
	assert.Equal(t, DefaultStructure, normalized[0]["structure"])
	assert.Equal(t, DefaultSSOMethod, normalized[0]["sso_method"])

	assert.Equal(t, "manager@x.com", normalized[1]["manager_mail"])
	assert.Equal(t, "L1", normalized[1]["structure"])
	assert.Equal(t, "Sso", normalized[1]["sso_method"])
}

func TestNormalizeTargetUsers(t *testing.T) {
	users := []map[string]any{
		{"mail": "A@X.COM", "profile": "", "role": "Gebruiker"},
		{"mail": "b@x.com", "profile": "standaard", "role": "Utilisateur"},
	}
	profileMapping := map[string]string{"standaard": "Standard"}
	roleMapping := map[string]string{"gebruiker": "Utilisateur"}

	normalized := NormalizeTargetUsers(users, profileMapping, roleMapping)

	assert.Equal(t, "a@x.com", normalized[0]["mail"])
	assert.Equal(t, DefaultProfile, normalized[0]["profile"])
	assert.Equal(t, "Utilisateur", normalized[0]["role"])
	assert.Equal(t, "Standard", normalized[1]["profile"])
}

func TestBuildCultureMapping(t *testing.T) {
	rows := []map[string]any{
		{
			"names": []any{
				map[string]any{"culture": "fr", "value": "utilisateur"},
				map[string]any{"culture": "nl", "value": "Gebruiker"},
				map[string]any{"culture": "en", "value": "User"},
			},
		},
		{
			// No French name, row contributes nothing.
			"names": []any{
				map[string]any{"culture": "en", "value": "Admin"},
			},
		},
	}

	mapping := BuildCultureMapping(rows, "fr")

	assert.Equal(t, "Utilisateur", mapping["gebruiker"])
	assert.Equal(t, "Utilisateur", mapping["user"])
	assert.Equal(t, "Utilisateur", mapping["utilisateur"])
	assert.NotContains(t, mapping, "admin")
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  any
	}{
		{"nil", nil, nil},
		{"empty string", "", nil},
		{"nan marker", "NaN", nil},
		{"iso day", "2025-03-01", "2025-03-01T00:00:00Z"},
		{"datetime", "2025-03-01 10:30:00", "2025-03-01T00:00:00Z"},
		{"french day", "01/03/2025", "2025-03-01T00:00:00Z"},
		{"sentinel unlimited", "2099-12-31", nil},
		{"time value", time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC), "2025-03-01T00:00:00Z"},
		{"sentinel time value", time.Date(2099, 12, 31, 0, 0, 0, 0, time.UTC), nil},
		{"unparseable", "not a date", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.input))
		})
	}
}
