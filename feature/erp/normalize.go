package erp

import (
	"strings"
	"time"

	"expense-sync/core/reconcile"
	"expense-sync/core/utils"
)

const (
	// DefaultStructure fills an empty reporting structure.
	DefaultStructure = "L3"
	// DefaultProfile fills an empty user profile on the platform side.
	DefaultProfile = "Standard"
	// DefaultRole fills an empty user role on the platform side.
	DefaultRole = "Utilisateur"
	// DefaultSSOMethod replaces the legacy "Saml" marker.
	DefaultSSOMethod = "Sso"

	// sentinelEndDate marks "no end date" in the ERP; it must not reach
	// the platform.
	sentinelEndDate = "2099-12-31"
)

// NormalizeUsers prepares raw ERP user rows for synchronization:
// emails are lowercased, empty-ish manager emails cleared, empty structures
// defaulted and the legacy SSO marker replaced.
func NormalizeUsers(records []reconcile.Record) []reconcile.Record {
	for _, rec := range records {
		rec["mail"] = strings.ToLower(strings.TrimSpace(utils.ToString(rec["mail"])))

		manager := strings.ToLower(strings.TrimSpace(utils.ToString(rec["manager_mail"])))
		if manager == "nan" || manager == "none" {
			manager = ""
		}
		rec["manager_mail"] = manager

		if isBlank(rec["structure"]) {
			rec["structure"] = DefaultStructure
		}

		if utils.ToString(rec["sso_method"]) == "Saml" {
			rec["sso_method"] = DefaultSSOMethod
		}
	}
	return records
}

// NormalizeTargetUsers prepares platform user records for comparison:
// emails lowercased, empty profiles and roles defaulted, then profile and
// role values mapped to their French form so both sides speak one language.
func NormalizeTargetUsers(users []map[string]any, profileMapping, roleMapping map[string]string) []map[string]any {
	for _, user := range users {
		user["mail"] = strings.ToLower(strings.TrimSpace(utils.ToString(user["mail"])))

		profile := utils.ToString(user["profile"])
		if isBlank(profile) {
			profile = DefaultProfile
		}
		if mapped, ok := profileMapping[strings.ToLower(strings.TrimSpace(profile))]; ok {
			profile = mapped
		}
		user["profile"] = profile

		role := utils.ToString(user["role"])
		if isBlank(role) {
			role = DefaultRole
		}
		if mapped, ok := roleMapping[strings.ToLower(strings.TrimSpace(role))]; ok {
			role = mapped
		}
		user["role"] = role
	}
	return users
}

// BuildCultureMapping flattens localized name lists into a mapping from any
// language's value (lowercased) to the reference culture's value. Platform
// roles and profiles come back as {names: [{culture, value}, ...]} rows.
func BuildCultureMapping(rows []map[string]any, culture string) map[string]string {
	mapping := make(map[string]string)
	for _, row := range rows {
		names, ok := row["names"].([]any)
		if !ok {
			continue
		}

		var reference string
		values := make([]string, 0, len(names))
		for _, n := range names {
			name, ok := n.(map[string]any)
			if !ok {
				continue
			}
			value := strings.TrimSpace(utils.ToString(name["value"]))
			if value == "" {
				continue
			}
			values = append(values, strings.ToLower(value))
			if utils.ToString(name["culture"]) == culture {
				reference = capitalize(strings.ToLower(value))
			}
		}
		if reference == "" {
			continue
		}
		for _, v := range values {
			mapping[v] = reference
		}
	}
	return mapping
}

// NormalizeDate turns an ERP date value into the platform's timestamp form
// (YYYY-MM-DDT00:00:00Z). Empty values and the open-ended sentinel date
// return nil so the field is sent as unset.
func NormalizeDate(value any) any {
	if value == nil {
		return nil
	}

	var day time.Time
	switch t := value.(type) {
	case time.Time:
		day = t
	default:
		s := strings.TrimSpace(utils.ToString(value))
		if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "none") {
			return nil
		}
		parsed, ok := parseDay(s)
		if !ok {
			return nil
		}
		day = parsed
	}

	if day.Format("2006-01-02") == sentinelEndDate {
		return nil
	}
	return day.Format("2006-01-02") + "T00:00:00Z"
}

func parseDay(s string) (time.Time, bool) {
	layouts := []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		time.RFC3339,
		"02/01/2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isBlank(v any) bool {
	s := strings.ToLower(strings.TrimSpace(utils.ToString(v)))
	return s == "" || s == "nan" || s == "none"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
