package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"expense-sync/core/cache"
	"expense-sync/core/config"
	"expense-sync/core/database"
	"expense-sync/core/logger"
	"expense-sync/core/memory"
	"expense-sync/core/ratelimit"
	"expense-sync/core/reconcile"
	"expense-sync/core/storage"
	"expense-sync/feature/axis"
	"expense-sync/feature/erp"
	"expense-sync/feature/export"
	"expense-sync/feature/user"
	"expense-sync/platform"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the sync command
	syncScopes   []string
	enableCreate bool
	enableUpdate bool
	enableDelete bool
	dryRunSync   bool
	yesConfirm   bool
)

// syncCmd runs one synchronization pass over the selected scopes.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize ERP data into the expense platform",
	Long: `Synchronize users and analytic axes from the ERP database into the
expense platform.

Each scope is loaded from the source database, diffed against the platform
and converged with create/update/delete calls. A JSON report per scope is
archived to object storage when configured.

Examples:
  # Sync everything (deletes disabled by default)
  expense-sync sync

  # Only users, preview without calling the API
  expense-sync sync --scope users --dry-run

  # Full convergence including deletes, non-interactive
  expense-sync sync --delete --yes`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringSliceVar(&syncScopes, "scope", nil, "Scopes to synchronize (default: all)")
	syncCmd.Flags().BoolVar(&enableCreate, "create", true, "Create records missing on the platform")
	syncCmd.Flags().BoolVar(&enableUpdate, "update", true, "Update records that differ")
	syncCmd.Flags().BoolVar(&enableDelete, "delete", false, "Delete platform records absent from the source")
	syncCmd.Flags().BoolVar(&dryRunSync, "dry-run", false, "Report planned operations without calling the API")
	syncCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize logger
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	runID := uuid.NewString()
	logg = logg.With(zap.String("run_id", runID))
	logg.Info("Starting synchronization run",
		zap.Bool("dry_run", dryRunSync),
		zap.Bool("simulate", cfg.Api.Simulate))

	// Connect to the source database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Shared infrastructure
	responseCache := cache.New(cfg.Cache, logg)
	limiter := ratelimit.New(cfg.RateLimit, logg)
	memMgr := memory.New(cfg.Memory, logg)
	client := platform.NewClient(cfg.Api, responseCache, limiter, cfg.Retry, logg)
	loader := erp.NewLoader(db, cfg.Sync.SQLDir, logg)

	// Report exporter is optional; a missing object store must not block the run.
	var exporter *export.Exporter
	if store, err := storage.NewClient(cfg.Storage); err != nil {
		logg.Warn("Optional storage connection failed, reports will not be archived", zap.Error(err))
	} else {
		exporter = export.NewExporter(store, cfg.Storage.Bucket, logg)
	}

	registry := buildRegistry(client, loader, logg)
	entries, err := selectScopes(registry, syncScopes)
	if err != nil {
		return err
	}

	opts := reconcile.Options{
		Create: enableCreate,
		Update: enableUpdate,
		Delete: enableDelete,
		DryRun: dryRunSync,
	}

	// Deletes touch live platform data, ask before proceeding.
	if opts.Delete && !opts.DryRun && !cfg.Api.Simulate {
		if !confirmDestructiveAction() {
			logg.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
	}

	engine := reconcile.NewEngine(reconcile.NewDetector(), logg)

	var failed int
	for _, entry := range entries {
		scopeLog := logg.With(zap.String("scope", entry.Scope))
		scopeLog.Info("Synchronizing scope", zap.String("name", entry.DisplayName))

		source, err := entry.Load(ctx)
		if err != nil {
			scopeLog.Error("Failed to load source data, scope skipped", zap.Error(err))
			failed++
			continue
		}
		memMgr.Register(entry.Scope+":source", source, entry.Scope)

		report, err := engine.Synchronize(ctx, runID, entry.Adapter, source, opts)
		if err != nil {
			scopeLog.Error("Synchronization failed, scope skipped", zap.Error(err))
			memMgr.CleanupScope(entry.Scope)
			failed++
			continue
		}

		printReport(scopeLog, report)
		if report.Failed > 0 {
			failed++
		}

		if exporter != nil {
			if _, err := exporter.Export(ctx, report); err != nil {
				scopeLog.Warn("Failed to archive report", zap.Error(err))
			}
		}

		memMgr.CleanupScope(entry.Scope)
	}

	stats := limiter.Stats()
	logg.Info("Run finished",
		zap.Int("scopes", len(entries)),
		zap.Int("scopes_with_failures", failed),
		zap.String("quota_phase", stats.Phase),
		zap.Int("reads_used", stats.ReadUsed),
		zap.Int("writes_used", stats.WriteUsed),
		zap.Uint64("quota_waits", stats.Waits))

	if failed > 0 {
		return fmt.Errorf("%d scope(s) finished with failures", failed)
	}
	return nil
}

// buildRegistry wires every synchronizable scope in dispatch order.
func buildRegistry(client *platform.Client, loader *erp.Loader, logg *zap.Logger) *reconcile.Registry {
	registry := reconcile.NewRegistry()

	_ = registry.Register(reconcile.Entry{
		Scope:       "users",
		DisplayName: "Users",
		Adapter:     user.NewAdapter(client, logg),
		Load: func(ctx context.Context) ([]reconcile.Record, error) {
			records, err := loader.Load(ctx, "users.sql")
			if err != nil {
				return nil, err
			}
			return erp.NormalizeUsers(records), nil
		},
	})

	for _, kind := range []axis.Kind{axis.Projects, axis.Plates, axis.Subposts} {
		kind := kind
		_ = registry.Register(reconcile.Entry{
			Scope:       string(kind),
			DisplayName: "Axis " + string(kind),
			Adapter:     axis.NewAdapter(kind, client, logg),
			Load: func(ctx context.Context) ([]reconcile.Record, error) {
				records, err := loader.Load(ctx, "axes.sql")
				if err != nil {
					return nil, err
				}
				return erp.FilterByColumn(records, "typ", kind.SourceFilter()), nil
			},
		})
	}

	return registry
}

// selectScopes resolves the --scope flags against the registry,
// preserving registration order. No flags means every scope.
func selectScopes(registry *reconcile.Registry, scopes []string) ([]reconcile.Entry, error) {
	if len(scopes) == 0 {
		return registry.All(), nil
	}

	requested := make(map[string]bool, len(scopes))
	for _, s := range scopes {
		if _, ok := registry.Get(s); !ok {
			return nil, fmt.Errorf("unknown scope %q (available: %s)", s, strings.Join(registry.Scopes(), ", "))
		}
		requested[s] = true
	}

	var entries []reconcile.Entry
	for _, e := range registry.All() {
		if requested[e.Scope] {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// printReport logs a formatted scope report.
func printReport(l *zap.Logger, report *reconcile.Report) {
	l.Info("Scope report",
		zap.Int("source", report.SourceCount),
		zap.Int("target", report.TargetCount),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("deleted", report.Deleted),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration),
	)

	// Show sample of failures (max 5 for logger)
	failures := report.Failures()
	maxShow := 5
	if len(failures) < maxShow {
		maxShow = len(failures)
	}
	for i := 0; i < maxShow; i++ {
		f := failures[i]
		l.Warn("Failed operation",
			zap.String("identity", f.Identity),
			zap.String("kind", string(f.Kind)),
			zap.String("error_kind", string(f.ErrorKind)),
			zap.String("error", f.Error),
		)
	}
	if len(failures) > maxShow {
		l.Warn("Additional failures not shown", zap.Int("count", len(failures)-maxShow))
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm destructive actions: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
