package cmd

import (
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"expense-sync/core/cache"
	"expense-sync/core/config"
	"expense-sync/core/logger"
	"expense-sync/core/memory"
	"expense-sync/core/middleware/auth"
	"expense-sync/core/middleware/requestid"
	"expense-sync/core/ratelimit"
	"expense-sync/core/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd starts the HTTP server exposing archived reports and runtime stats.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve archived synchronization reports",
	Long:  `Starts an HTTP server exposing archived run reports and quota statistics.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Initialize Storage
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}

		responseCache := cache.New(cfg.Cache, logg)
		limiter := ratelimit.New(cfg.RateLimit, logg)
		memMgr := memory.New(cfg.Memory, logg)

		// 4. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// Middleware Registration
		// 1. Request ID (Must be first to trace everything)
		app.Use(requestid.New())

		// 2. Logging Middleware (Custom to use Zap + request ID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRequestID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			// Log error if happened
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Health check stays public for probes
		app.Get("/healthz", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok"})
		})

		// 4. Auth (Protect API when a key is configured)
		if cfg.Server.ApiKey != "" {
			app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))
		} else {
			logg.Warn("No API key configured, report endpoints are unprotected")
		}

		// 5. Routes
		api := app.Group("/api/v1")

		api.Get("/reports", func(c *fiber.Ctx) error {
			type object struct {
				Name         string `json:"name"`
				Size         int64  `json:"size"`
				LastModified string `json:"last_modified"`
			}
			var objects []object
			for info := range store.ListObjects(c.Context(), cfg.Storage.Bucket, minio.ListObjectsOptions{
				Prefix:    "reports/",
				Recursive: true,
			}) {
				if info.Err != nil {
					return fiber.NewError(fiber.StatusBadGateway, info.Err.Error())
				}
				objects = append(objects, object{
					Name:         strings.TrimPrefix(info.Key, "reports/"),
					Size:         info.Size,
					LastModified: info.LastModified.UTC().Format("2006-01-02T15:04:05Z"),
				})
			}
			return c.JSON(fiber.Map{"reports": objects})
		})

		api.Get("/reports/+", func(c *fiber.Ctx) error {
			name, err := url.PathUnescape(c.Params("+"))
			if err != nil || name == "" || strings.Contains(name, "..") {
				return fiber.NewError(fiber.StatusBadRequest, "invalid report name")
			}
			reader, err := store.GetObject(c.Context(), cfg.Storage.Bucket, "reports/"+name, minio.GetObjectOptions{})
			if err != nil {
				return fiber.NewError(fiber.StatusNotFound, "report not found")
			}
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.SendStream(reader)
		})

		api.Get("/stats", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"cache":     responseCache.Stats(),
				"ratelimit": limiter.Stats(),
				"memory":    memMgr.Stats(),
			})
		})

		// 6. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 7. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
