package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/minio/minio-go/v7"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"camio-service/docs"
	"camio-service/internal/config"
	"camio-service/internal/conversion"
	"camio-service/internal/handlers"
	"camio-service/internal/models"
	"camio-service/internal/packaging"
	"camio-service/internal/repository"
	"camio-service/internal/services"
	"camio-service/internal/services/caches"
	"camio-service/internal/storage"
	"camio-service/internal/utils"
)

const janitorInterval = time.Minute

// @title CamIO Converter API
// @version 1.0
// @description Converts RoomPlan room scans into CamIO tactile map archives.
// @BasePath /api/camio
func main() {
	cfg := InitConfig()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profiles, err := config.LoadRenderProfiles(cfg.RenderProfilesPath)
	if err != nil {
		log.Fatalf("Render profiles error: %v", err)
	}
	log.Printf("Loaded %d render profiles", len(profiles))

	converter, err := conversion.NewConverter(conversion.WithCanvasSize(cfg.CanvasSize))
	if err != nil {
		log.Fatalf("Converter initialization failed: %v", err)
	}

	m := utils.NewMetrics(nil)
	resolver := services.NewRenderConfigResolver(profiles)

	var minioClient *minio.Client
	if cfg.MinioEnabled() {
		minioClient = InitMinIOClient(ctx, cfg)
	}
	exportService := services.NewExportService(
		converter, InitExportRepository(cfg), minioClient, cfg.MinioBucket, cfg.OutputDir,
		packaging.MetadataOptions{
			Title:            cfg.Title,
			ShortDescription: cfg.ShortDescription,
			LongDescription:  cfg.LongDescription,
			Lang:             cfg.Lang,
		},
		resolver, m,
	)

	strategy := InitPreviewCache(cfg, m)
	go strategy.RunJanitor(ctx, janitorInterval)
	previewService := services.NewPreviewService(converter, strategy, resolver, m)

	app := fiber.New(fiber.Config{BodyLimit: 64 * 1024 * 1024})

	//Register Prometheus metrics endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group(docs.SwaggerInfo.BasePath)
	handlers.RegisterRoutes(api, exportService, previewService, resolver)

	api.Get("/swagger/*", swagger.HandlerDefault)

	// Add Health check endpoint
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	routes := app.GetRoutes()
	log.Println("Registered routes:")
	for _, r := range routes {
		log.Printf("  %s %s\n", r.Method, r.Path)
	}

	go func() {
		<-ctx.Done()
		log.Printf("Shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// Start the Fiber server
	log.Printf("Server listening on port %s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal(err)
	}
}

func InitConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	return cfg
}

// InitExportRepository uses postgres when configured and an in-memory
// ledger otherwise.
func InitExportRepository(cfg *config.Config) repository.ExportRepository {
	if !cfg.DatabaseEnabled() {
		log.Printf("DB_HOST not set, keeping the export ledger in memory")
		return repository.NewMemoryExportRepository()
	}
	db := ConnectDatabase(cfg)
	MigrateDatabase(db)
	return repository.NewGormExportRepository(db)
}

func ConnectDatabase(cfg *config.Config) *gorm.DB {
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	return db
}

func MigrateDatabase(db *gorm.DB) {
	err := db.AutoMigrate(&models.ExportRecord{})
	if err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
}

func InitMinIOClient(ctx context.Context, cfg *config.Config) *minio.Client {
	minioClient, err := storage.NewMinioClient(ctx, cfg)
	if err != nil {
		log.Fatalf("MinIO client initialization failed: %v", err)
	}
	return minioClient
}

// InitPreviewCache builds the preview tiers: memory, then disk and redis
// when configured. Unreachable optional tiers are skipped.
func InitPreviewCache(cfg *config.Config, m *utils.Metrics) *services.CacheStrategy {
	tiers := []services.CacheTier{{
		Layer:         caches.NewMemoryCache(cfg.PreviewCacheMaxBytes, cfg.PreviewCacheTTL),
		MaxObjectSize: services.SmallPreviewThreshold,
	}}

	if cfg.PreviewCacheDir != "" {
		fsCache, err := caches.NewFileSystemCache(cfg.PreviewCacheDir, cfg.PreviewCacheMaxBytes, cfg.PreviewCacheTTL)
		if err != nil {
			log.Printf("Filesystem preview cache disabled: %v", err)
		} else {
			tiers = append(tiers, services.CacheTier{Layer: fsCache, MaxObjectSize: services.MediumPreviewThreshold})
		}
	}

	if cfg.RedisEnabled() {
		redisClient, err := storage.NewRedisClient(cfg.RedisHost, cfg.RedisPort)
		if err != nil {
			log.Printf("Redis preview cache disabled: %v", err)
		} else {
			tiers = append(tiers, services.CacheTier{
				Layer:         caches.NewRedisCache(redisClient, cfg.PreviewCacheTTL),
				MaxObjectSize: services.LargePreviewThreshold,
			})
		}
	}

	for _, t := range tiers {
		log.Printf("Preview cache tier %s (objects up to %d bytes)", t.Layer.Name(), t.MaxObjectSize)
	}
	return services.NewCacheStrategy(m, tiers...)
}
