// Package erp loads and normalizes the source datasets from the finance ERP
// database.
//
// Extraction queries live in SQL files executed verbatim; rows come back as
// generic records. Normalization aligns the two sides before diffing:
// lowercased emails, defaulted structures, profiles and roles, the legacy
// SSO marker, and ERP date values rendered in the platform's timestamp form.
package erp
