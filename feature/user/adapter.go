package user

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"expense-sync/core/reconcile"
	"expense-sync/core/utils"
	"expense-sync/feature/erp"
	"expense-sync/platform"
)

// referenceCulture is the culture the platform's localized labels are
// normalized to before comparison.
const referenceCulture = "fr"

// sandboxAuthMode is forced on every user payload sent to a sandbox tenant,
// since sandbox tenants have no SSO federation.
const sandboxAuthMode = "Integrated"

// Adapter synchronizes ERP users into platform users. Identity is the
// lowercased email address.
type Adapter struct {
	client *platform.Client
	log    *zap.Logger

	companyIDs map[string]string
	fallbackID string
}

// NewAdapter creates the user adapter.
func NewAdapter(client *platform.Client, log *zap.Logger) *Adapter {
	return &Adapter{client: client, log: log}
}

func (a *Adapter) Name() string       { return "users" }
func (a *Adapter) EntityType() string { return "users" }

// Identity returns the lowercased email address of a source record.
func (a *Adapter) Identity(rec reconcile.Record) (string, error) {
	mail := strings.ToLower(strings.TrimSpace(utils.ToString(rec["mail"])))
	if mail == "" {
		return "", fmt.Errorf("user record has no mail address")
	}
	return mail, nil
}

// BuildPayload shapes an ERP user row into the platform user payload.
// The source company code is resolved to the platform company UUID; an
// unresolvable code fails the record.
func (a *Adapter) BuildPayload(ctx context.Context, rec reconcile.Record) (map[string]any, error) {
	mail, err := a.Identity(rec)
	if err != nil {
		return nil, err
	}

	companyCode := strings.TrimSpace(utils.ToString(rec["company"]))
	companyID, err := a.resolveCompany(ctx, companyCode)
	if err != nil {
		return nil, err
	}

	profile := strings.TrimSpace(utils.ToString(rec["profile"]))
	if profile == "" {
		profile = erp.DefaultProfile
	}
	role := strings.TrimSpace(utils.ToString(rec["role"]))
	if role == "" {
		role = erp.DefaultRole
	}
	culture := strings.TrimSpace(utils.ToString(rec["culture"]))
	if culture == "" {
		culture = referenceCulture
	}

	authMode := strings.TrimSpace(utils.ToString(rec["sso_method"]))
	if a.client.Sandbox() {
		authMode = sandboxAuthMode
	}

	return map[string]any{
		"mail":        mail,
		"firstName":   strings.TrimSpace(utils.ToString(rec["firstname"])),
		"lastName":    strings.TrimSpace(utils.ToString(rec["lastname"])),
		"company":     companyID,
		"profile":     profile,
		"role":        role,
		"culture":     culture,
		"managerMail": strings.ToLower(strings.TrimSpace(utils.ToString(rec["manager_mail"]))),
		"structure":   strings.TrimSpace(utils.ToString(rec["structure"])),
		"authMode":    authMode,
		"entryDate":   erp.NormalizeDate(rec["entry_date"]),
		"exitDate":    erp.NormalizeDate(rec["exit_date"]),
	}, nil
}

// ListTargets fetches all platform users plus the role and profile
// catalogues, and normalizes the users for comparison.
func (a *Adapter) ListTargets(ctx context.Context) ([]reconcile.TargetRecord, error) {
	users, err := a.client.List(ctx, "users", "/users")
	if err != nil {
		return nil, err
	}

	profiles, err := a.client.List(ctx, "userprofiles", "/userprofiles")
	if err != nil {
		return nil, err
	}
	roles, err := a.client.List(ctx, "roles", "/roles")
	if err != nil {
		return nil, err
	}

	profileMapping := erp.BuildCultureMapping(profiles, referenceCulture)
	roleMapping := erp.BuildCultureMapping(roles, referenceCulture)
	users = erp.NormalizeTargetUsers(users, profileMapping, roleMapping)

	targets := make([]reconcile.TargetRecord, 0, len(users))
	for _, u := range users {
		mail := utils.ToString(u["mail"])
		targets = append(targets, reconcile.TargetRecord{
			ID:       mail,
			Identity: mail,
			Fields:   u,
		})
	}
	return targets, nil
}

func (a *Adapter) Create(ctx context.Context, identity string, payload map[string]any) reconcile.OperationResult {
	return a.client.Create(ctx, a.EntityType(), "/users", identity, payload)
}

// Update posts to the same endpoint as Create; the platform upserts on mail.
func (a *Adapter) Update(ctx context.Context, identity string, _ reconcile.TargetRecord, payload map[string]any) reconcile.OperationResult {
	return a.client.Update(ctx, a.EntityType(), "/users", identity, payload)
}

func (a *Adapter) Delete(ctx context.Context, target reconcile.TargetRecord) reconcile.OperationResult {
	return a.client.Delete(ctx, a.EntityType(), "/users/"+target.ID, target.Identity)
}

// IgnoreFields lists server-managed user fields excluded from diffing.
func (a *Adapter) IgnoreFields() []string {
	return []string{
		"uuid", "id",
		"created_at", "updated_at", "created", "updated",
		"company_id", "manager_id", "profile_id", "role_id",
	}
}

// resolveCompany maps an ERP company code to the platform company UUID via
// the cached companies list. On a sandbox tenant an unknown code falls back
// to the first company, since sandbox company codes rarely match production.
func (a *Adapter) resolveCompany(ctx context.Context, code string) (string, error) {
	if a.companyIDs == nil {
		companies, err := a.client.List(ctx, "companies", "/companies")
		if err != nil {
			return "", fmt.Errorf("failed to list companies: %w", err)
		}
		a.companyIDs = make(map[string]string, len(companies))
		for _, company := range companies {
			companyCode := utils.ToString(company["code"])
			if _, dup := a.companyIDs[companyCode]; !dup {
				a.companyIDs[companyCode] = utils.ToString(company["uuid"])
			}
			if a.fallbackID == "" {
				a.fallbackID = utils.ToString(company["uuid"])
			}
		}
	}

	if id, ok := a.companyIDs[code]; ok && id != "" {
		return id, nil
	}
	if a.client.Sandbox() && a.fallbackID != "" {
		a.log.Debug("Unknown company code on sandbox, using first company",
			zap.String("code", code))
		return a.fallbackID, nil
	}
	return "", fmt.Errorf("company not found: %q", code)
}
