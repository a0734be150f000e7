package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	defaultPort            = "8080"
	defaultCanvasSize      = 2048
	defaultLang            = "en"
	defaultPreviewMaxBytes = 64 << 20
	defaultPreviewTTL      = 10 * time.Minute
)

// Config holds all configuration values from environment.
type Config struct {
	AppPort    string
	OutputDir  string
	CanvasSize int

	// Text written to data.json when a request leaves it empty
	Lang             string
	Title            string
	ShortDescription string
	LongDescription  string

	RenderProfilesPath string

	// Preview cache settings
	PreviewCacheMaxBytes int64
	PreviewCacheTTL      time.Duration
	PreviewCacheDir      string // disk tier, disabled when empty
	RedisHost            string // redis tier, disabled when empty
	RedisPort            string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSSL       bool

	// Days before published archives expire, 0 keeps them forever
	MinioExportRetentionDays int
}

// DatabaseEnabled reports whether the export ledger should use postgres.
func (c *Config) DatabaseEnabled() bool { return c.DBHost != "" }

// MinioEnabled reports whether archives are published to object storage.
func (c *Config) MinioEnabled() bool { return c.MinioEndpoint != "" }

// RedisEnabled reports whether the preview cache has a redis tier.
func (c *Config) RedisEnabled() bool { return c.RedisHost != "" }

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppPort:              envOr("CAMIO_PORT", defaultPort),
		OutputDir:            envOr("CAMIO_OUTPUT_DIR", filepath.Join(os.TempDir(), "camio")),
		CanvasSize:           defaultCanvasSize,
		Lang:                 envOr("CAMIO_LANG", defaultLang),
		Title:                os.Getenv("CAMIO_TITLE"),
		ShortDescription:     os.Getenv("CAMIO_SHORT_DESCRIPTION"),
		LongDescription:      os.Getenv("CAMIO_LONG_DESCRIPTION"),
		RenderProfilesPath:   os.Getenv("CAMIO_RENDER_PROFILES"),
		PreviewCacheMaxBytes: defaultPreviewMaxBytes,
		PreviewCacheTTL:      defaultPreviewTTL,
		PreviewCacheDir:      os.Getenv("PREVIEW_CACHE_DIR"),
		RedisHost:            os.Getenv("REDIS_HOST"),
		RedisPort:            envOr("REDIS_PORT", "6379"),
		DBHost:               os.Getenv("DB_HOST"),
		DBPort:               envOr("DB_PORT", "5432"),
		DBUser:               os.Getenv("DB_USER"),
		DBPassword:           os.Getenv("DB_PASSWORD"),
		DBName:               os.Getenv("DB_NAME"),
		MinioEndpoint:        os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:       os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:       os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:          os.Getenv("MINIO_BUCKET"),
	}

	if v := os.Getenv("CAMIO_CANVAS_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CAMIO_CANVAS_SIZE value: %v", err)
		}
		cfg.CanvasSize = size
	}
	if v := os.Getenv("PREVIEW_CACHE_MAX_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PREVIEW_CACHE_MAX_BYTES value: %v", err)
		}
		cfg.PreviewCacheMaxBytes = n
	}
	if v := os.Getenv("PREVIEW_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PREVIEW_CACHE_TTL value: %v", err)
		}
		cfg.PreviewCacheTTL = ttl
	}
	if v := os.Getenv("MINIO_SSL"); v != "" {
		ssl, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MINIO_SSL value: %v", err)
		}
		cfg.MinioSSL = ssl
	}
	if v := os.Getenv("MINIO_EXPORT_RETENTION_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MINIO_EXPORT_RETENTION_DAYS value: %v", err)
		}
		cfg.MinioExportRetentionDays = days
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and the completeness of optional backends.
func (c *Config) Validate() error {
	if c.CanvasSize <= 0 || c.CanvasSize > 16384 {
		return fmt.Errorf("canvas size must be between 1 and 16384, got %d", c.CanvasSize)
	}
	lang, err := NormalizeLang(c.Lang)
	if err != nil {
		return err
	}
	c.Lang = lang
	if c.PreviewCacheMaxBytes <= 0 {
		return fmt.Errorf("preview cache size must be positive")
	}
	if c.PreviewCacheTTL <= 0 {
		return fmt.Errorf("preview cache ttl must be positive")
	}
	if c.DatabaseEnabled() && (c.DBUser == "" || c.DBName == "") {
		return fmt.Errorf("database configuration is incomplete")
	}
	if c.MinioEnabled() && (c.MinioAccessKey == "" || c.MinioSecretKey == "" || c.MinioBucket == "") {
		return fmt.Errorf("minio configuration is incomplete")
	}
	if c.MinioExportRetentionDays < 0 {
		return fmt.Errorf("export retention days must not be negative, got %d", c.MinioExportRetentionDays)
	}
	return nil
}

// NormalizeLang parses a BCP 47 tag and returns its canonical form.
func NormalizeLang(tag string) (string, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("invalid language tag %q: %v", tag, err)
	}
	return t.String(), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ConnectDatabase initializes a GORM database connection to PostgreSQL.
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}
