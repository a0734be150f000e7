package services

import (
	"context"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"

	"camio-service/internal/config"
	"camio-service/internal/conversion"
	"camio-service/internal/metrics"
	"camio-service/internal/models"
	"camio-service/internal/packaging"
	"camio-service/internal/repository"
	"camio-service/internal/storage"
	"camio-service/internal/utils"
)

const archiveContentType = "application/zip"

// ErrArchiveUnavailable means the record exists but neither the local file
// nor the published object can be read.
var ErrArchiveUnavailable = errors.New("archive no longer available")

// ExportService converts scans into .camio archives, records them in the
// ledger and optionally publishes them to object storage.
type ExportService struct {
	Converter  *conversion.Converter
	Repo       repository.ExportRepository
	Minio      *minio.Client
	BucketName string
	OutputDir  string
	Defaults   packaging.MetadataOptions
	Resolver   *RenderConfigResolver
	Metrics    *utils.Metrics

	now func() time.Time
}

// NewExportService creates an ExportService. minioClient may be nil, in
// which case archives stay in outputDir only.
func NewExportService(converter *conversion.Converter, repo repository.ExportRepository, minioClient *minio.Client, bucketName, outputDir string, defaults packaging.MetadataOptions, resolver *RenderConfigResolver, m *utils.Metrics) *ExportService {
	return &ExportService{
		Converter:  converter,
		Repo:       repo,
		Minio:      minioClient,
		BucketName: bucketName,
		OutputDir:  outputDir,
		Defaults:   defaults,
		Resolver:   resolver,
		Metrics:    m,
		now:        time.Now,
	}
}

// StorageKey is the object name of a published archive.
func StorageKey(id uuid.UUID) string {
	return storage.ExportPrefix + id.String() + packaging.Extension
}

func (s *ExportService) metadataOptions(req models.ExportRequest) (packaging.MetadataOptions, error) {
	opts := s.Defaults
	if req.Title != "" {
		opts.Title = req.Title
	}
	if req.ShortDescription != "" {
		opts.ShortDescription = req.ShortDescription
	}
	if req.LongDescription != "" {
		opts.LongDescription = req.LongDescription
	}
	if req.Lang != "" {
		lang, err := config.NormalizeLang(req.Lang)
		if err != nil {
			return opts, errors.Wrap(ErrInvalidRequest, err.Error())
		}
		opts.Lang = lang
	}
	return opts, nil
}

// CreateExport converts the scan of req and stores the resulting archive.
func (s *ExportService) CreateExport(ctx context.Context, req models.ExportRequest, timer *metrics.StageTimer) (*models.ExportRecord, error) {
	if math.IsNaN(req.Rotation) || math.IsInf(req.Rotation, 0) {
		return nil, errors.Wrap(ErrInvalidRequest, "rotation must be finite")
	}
	if err := prepareScan(&req.Scan); err != nil {
		return nil, err
	}
	cfg, err := s.Resolver.Resolve(req.RenderConfig, req.Profile)
	if err != nil {
		return nil, err
	}
	opts, err := s.metadataOptions(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	stop := timer.Track(metrics.StageExport)
	res, err := s.Converter.Export(ctx, req.Scan, cfg, req.Rotation, s.OutputDir, opts)
	stop()
	if s.Metrics != nil {
		s.Metrics.RecordConversion(utils.EntrypointExport, float64(time.Since(start).Microseconds())/1000.0, err)
	}
	if err != nil {
		return nil, errors.Wrap(err, "conversion failed")
	}

	record := &models.ExportRecord{
		ID:           uuid.New(),
		FileName:     filepath.Base(res.Path),
		Size:         res.Size,
		HotspotCount: len(res.Metadata.Hotspots),
		Rotation:     req.Rotation,
		CanvasSize:   s.Converter.CanvasSize(),
		Lang:         res.Metadata.Lang,
		CreatedAt:    s.now().UTC(),
		LocalPath:    res.Path,
	}

	if s.Minio != nil {
		stopPublish := timer.Track(metrics.StagePublish)
		err := s.publish(ctx, record)
		stopPublish()
		if err != nil {
			os.Remove(res.Path)
			return nil, err
		}
	}

	stopLedger := timer.Track(metrics.StageLedger)
	err = s.Repo.Create(record)
	stopLedger()
	if err != nil {
		// Remove the archive so no file outlives its record
		if record.StorageKey != "" {
			s.Minio.RemoveObject(context.Background(), s.BucketName, record.StorageKey, minio.RemoveObjectOptions{})
		}
		os.Remove(res.Path)
		return nil, errors.Wrap(err, "failed to save export record")
	}

	if s.Metrics != nil {
		s.Metrics.RecordExport(record.Size, record.HotspotCount)
	}
	timer.SetSize(record.Size)
	log.Printf("Export created: ID=%s, File=%s, Size=%d, Hotspots=%d", record.ID, record.FileName, record.Size, record.HotspotCount)
	return record, nil
}

func (s *ExportService) publish(ctx context.Context, record *models.ExportRecord) error {
	f, err := os.Open(record.LocalPath)
	if err != nil {
		return errors.Wrap(err, "could not open archive for upload")
	}
	defer f.Close()

	key := StorageKey(record.ID)
	_, err = s.Minio.PutObject(ctx, s.BucketName, key, f, record.Size,
		minio.PutObjectOptions{ContentType: archiveContentType})
	if err != nil {
		return errors.Wrap(err, "failed to upload to MinIO")
	}
	record.StorageKey = key
	return nil
}

// GetExport returns the ledger entry of an archive.
func (s *ExportService) GetExport(id uuid.UUID) (*models.ExportRecord, error) {
	return s.Repo.Get(id)
}

// ListExports returns every ledger entry, newest first.
func (s *ExportService) ListExports() ([]models.ExportRecord, error) {
	return s.Repo.List()
}

// OpenExport streams the archive of a record, from the local spool when
// the file is still there and from MinIO otherwise.
func (s *ExportService) OpenExport(ctx context.Context, id uuid.UUID) (io.ReadCloser, *models.ExportRecord, error) {
	record, err := s.Repo.Get(id)
	if err != nil {
		return nil, nil, err
	}

	if record.LocalPath != "" {
		if f, err := os.Open(record.LocalPath); err == nil {
			return newCountingRC(f, id, SourceLocal, s.Metrics), record, nil
		}
	}
	if s.Minio != nil && record.StorageKey != "" {
		obj, err := s.Minio.GetObject(ctx, s.BucketName, record.StorageKey, minio.GetObjectOptions{})
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to fetch archive from MinIO")
		}
		if _, err := obj.Stat(); err != nil {
			obj.Close()
			return nil, nil, errors.Wrap(ErrArchiveUnavailable, err.Error())
		}
		return newCountingRC(obj, id, SourceMinio, s.Metrics), record, nil
	}
	return nil, nil, ErrArchiveUnavailable
}

// DeleteExport removes the archive everywhere and then its record.
func (s *ExportService) DeleteExport(ctx context.Context, id uuid.UUID) error {
	record, err := s.Repo.Get(id)
	if err != nil {
		return err
	}
	if s.Minio != nil && record.StorageKey != "" {
		err := s.Minio.RemoveObject(ctx, s.BucketName, record.StorageKey, minio.RemoveObjectOptions{})
		if err != nil {
			return errors.Wrap(err, "failed to remove archive from MinIO")
		}
	}
	if record.LocalPath != "" {
		if err := os.Remove(record.LocalPath); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "failed to remove local archive")
		}
	}
	return s.Repo.Delete(id)
}
