package storage

import (
	"context"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/minio/minio-go/v7/pkg/s3utils"
	"github.com/pkg/errors"

	"camio-service/internal/config"
)

// ExportPrefix is the object key prefix under which .camio archives are published.
const ExportPrefix = "exports/"

const exportExpiryRuleID = "camio-exports-expiry"

// NewMinioClient connects to the archive bucket, creating it when missing.
// With a positive MinioExportRetentionDays the bucket gets an expiry rule
// scoped to ExportPrefix; other objects in a shared bucket are untouched.
func NewMinioClient(ctx context.Context, cfg *config.Config) (*minio.Client, error) {
	if err := s3utils.CheckValidBucketName(cfg.MinioBucket); err != nil {
		return nil, errors.Wrapf(err, "archive bucket %q", cfg.MinioBucket)
	}
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "minio client")
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, errors.Wrapf(err, "check archive bucket %s", cfg.MinioBucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "create archive bucket %s", cfg.MinioBucket)
		}
		log.Printf("Created archive bucket %s\n", cfg.MinioBucket)
	}

	if rules := exportLifecycle(cfg.MinioExportRetentionDays); rules != nil {
		if err := client.SetBucketLifecycle(ctx, cfg.MinioBucket, rules); err != nil {
			return nil, errors.Wrapf(err, "set export expiry on %s", cfg.MinioBucket)
		}
		log.Printf("Archives under %s/%s expire after %d days\n", cfg.MinioBucket, ExportPrefix, cfg.MinioExportRetentionDays)
	}
	return client, nil
}

// exportLifecycle returns nil when retention is disabled.
func exportLifecycle(days int) *lifecycle.Configuration {
	if days <= 0 {
		return nil
	}
	rules := lifecycle.NewConfiguration()
	rules.Rules = []lifecycle.Rule{{
		ID:         exportExpiryRuleID,
		Status:     "Enabled",
		RuleFilter: lifecycle.Filter{Prefix: ExportPrefix},
		Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(days)},
	}}
	return rules
}
