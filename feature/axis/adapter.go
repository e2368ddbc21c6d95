package axis

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

// Adapter synchronizes one kind of ERP analytic axis into the matching
// platform axis. Identity is the axis value code; values are listed and
// written per company, with the owning company tracked on each target record.
type Adapter struct {
	kind   Kind
	client *platform.Client
	log    *zap.Logger

	companyIDs map[string]string
	companies  []string
	axisID     string
}

// NewAdapter creates an adapter for the given axis kind.
func NewAdapter(kind Kind, client *platform.Client, log *zap.Logger) *Adapter {
	return &Adapter{kind: kind, client: client, log: log}
}

func (a *Adapter) Name() string       { return string(a.kind) }
func (a *Adapter) EntityType() string { return "axes_" + string(a.kind) }

// Identity returns the axis value code of a source record.
func (a *Adapter) Identity(rec reconcile.Record) (string, error) {
	code := strings.TrimSpace(utils.ToString(rec["code"]))
	if code == "" {
		return "", fmt.Errorf("axis record has no code")
	}
	return code, nil
}

// BuildPayload shapes a source row into the axis value payload. The owning
// company UUID rides along as company_id; it routes the call and is ignored
// by change detection.
func (a *Adapter) BuildPayload(ctx context.Context, rec reconcile.Record) (map[string]any, error) {
	code, err := a.Identity(rec)
	if err != nil {
		return nil, err
	}

	companyCode := strings.TrimSpace(utils.ToString(rec["company"]))
	companyID, err := a.resolveCompany(ctx, companyCode)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(utils.ToString(rec["name"]))
	if name == "" {
		name = code
	}

	return map[string]any{
		"code": code,
		"names": []any{
			map[string]any{"culture": "fr", "value": name},
		},
		"validFrom":  erp.NormalizeDate(rec["date_from"]),
		"validUntil": erp.NormalizeDate(rec["date_to"]),
		"company_id": companyID,
	}, nil
}

// ListTargets lists the axis values of every company and merges them,
// tagging each record with its company UUID for later deletes.
func (a *Adapter) ListTargets(ctx context.Context) ([]reconcile.TargetRecord, error) {
	if err := a.loadCompanies(ctx); err != nil {
		return nil, err
	}
	axisID, err := a.resolveAxisID(ctx)
	if err != nil {
		return nil, err
	}

	var targets []reconcile.TargetRecord
	for _, companyID := range a.companies {
		values, err := a.client.List(ctx, a.EntityType(),
			fmt.Sprintf("/companies/%s/axes/%s", companyID, axisID))
		if err != nil {
			return nil, fmt.Errorf("failed to list %s values for company %s: %w", a.kind, companyID, err)
		}
		for _, v := range values {
			v["company_id"] = companyID
			code := utils.ToString(v["code"])
			targets = append(targets, reconcile.TargetRecord{
				ID:       code,
				Identity: code,
				Fields:   v,
			})
		}
	}
	return targets, nil
}

func (a *Adapter) Create(ctx context.Context, identity string, payload map[string]any) reconcile.OperationResult {
	return a.upsert(ctx, reconcile.OperationCreate, identity, payload)
}

func (a *Adapter) Update(ctx context.Context, identity string, _ reconcile.TargetRecord, payload map[string]any) reconcile.OperationResult {
	return a.upsert(ctx, reconcile.OperationUpdate, identity, payload)
}

func (a *Adapter) Delete(ctx context.Context, target reconcile.TargetRecord) reconcile.OperationResult {
	companyID := utils.ToString(target.Fields["company_id"])
	if companyID == "" {
		return reconcile.OperationResult{
			Identity:  target.Identity,
			Kind:      reconcile.OperationDelete,
			ErrorKind: reconcile.ErrorValidation,
			Error:     "target record carries no company_id",
		}
	}
	axisID, err := a.resolveAxisID(ctx)
	if err != nil {
		return reconcile.OperationResult{
			Identity:  target.Identity,
			Kind:      reconcile.OperationDelete,
			ErrorKind: reconcile.ErrorValidation,
			Error:     err.Error(),
		}
	}
	path := fmt.Sprintf("/companies/%s/axes/%s/%s", companyID, axisID, target.Identity)
	return a.client.Delete(ctx, a.EntityType(), path, target.Identity)
}

// IgnoreFields lists the common server-managed fields plus the axis-specific
// ones; code is the identity, not a business field, and company routing
// values never signal a change.
func (a *Adapter) IgnoreFields() []string {
	return []string{
		"uuid", "id",
		"created_at", "updated_at", "created", "updated",
		"company_id", "manager_id", "profile_id", "role_id",
		"axe_id", "company_uuid", "created_by", "modified_by", "code",
	}
}

func (a *Adapter) upsert(ctx context.Context, kind reconcile.OperationKind, identity string, payload map[string]any) reconcile.OperationResult {
	companyID := utils.ToString(payload["company_id"])
	axisID, err := a.resolveAxisID(ctx)
	if err != nil {
		return reconcile.OperationResult{
			Identity:  identity,
			Kind:      kind,
			ErrorKind: reconcile.ErrorValidation,
			Error:     err.Error(),
		}
	}
	path := fmt.Sprintf("/companies/%s/axes/%s", companyID, axisID)
	if kind == reconcile.OperationCreate {
		return a.client.Create(ctx, a.EntityType(), path, identity, payload)
	}
	return a.client.Update(ctx, a.EntityType(), path, identity, payload)
}

func (a *Adapter) loadCompanies(ctx context.Context) error {
	if a.companyIDs != nil {
		return nil
	}
	companies, err := a.client.List(ctx, "companies", "/companies")
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}
	a.companyIDs = make(map[string]string, len(companies))
	for _, company := range companies {
		code := utils.ToString(company["code"])
		uuid := utils.ToString(company["uuid"])
		if uuid == "" {
			continue
		}
		if _, dup := a.companyIDs[code]; !dup {
			a.companyIDs[code] = uuid
		}
		a.companies = append(a.companies, uuid)
	}
	return nil
}

func (a *Adapter) resolveCompany(ctx context.Context, code string) (string, error) {
	if err := a.loadCompanies(ctx); err != nil {
		return "", err
	}
	if id, ok := a.companyIDs[code]; ok {
		return id, nil
	}
	if a.client.Sandbox() && len(a.companies) > 0 {
		return a.companies[0], nil
	}
	return "", fmt.Errorf("company not found: %q", code)
}

// resolveAxisID maps the axis kind to its platform id. The projects axis is
// built in; custom axes are matched by their French label in the first
// company's custom axis list.
func (a *Adapter) resolveAxisID(ctx context.Context) (string, error) {
	if a.axisID != "" {
		return a.axisID, nil
	}
	if a.kind == Projects {
		a.axisID = "projects"
		return a.axisID, nil
	}

	if err := a.loadCompanies(ctx); err != nil {
		return "", err
	}
	if len(a.companies) == 0 {
		return "", fmt.Errorf("no company available to resolve %s axis", a.kind)
	}

	axes, err := a.client.List(ctx, "customaxes",
		fmt.Sprintf("/companies/%s/axes", a.companies[0]))
	if err != nil {
		return "", fmt.Errorf("failed to list custom axes: %w", err)
	}

	wanted := localizedName[a.kind]
	for _, axe := range axes {
		names, ok := axe["names"].([]any)
		if !ok {
			continue
		}
		for _, n := range names {
			name, ok := n.(map[string]any)
			if !ok {
				continue
			}
			if utils.ToString(name["culture"]) != "fr" {
				continue
			}
			if strings.ToLower(strings.TrimSpace(utils.ToString(name["value"]))) == wanted {
				a.axisID = utils.ToString(axe["uuid"])
				a.log.Debug("Custom axis resolved",
					zap.String("kind", string(a.kind)), zap.String("axis_id", a.axisID))
				return a.axisID, nil
			}
		}
	}
	return "", fmt.Errorf("custom axis %q not found on platform", a.kind)
}
