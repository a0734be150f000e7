package repository

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"camio-service/internal/models"
)

// ErrExportNotFound is returned when no record has the requested ID.
var ErrExportNotFound = errors.New("export not found")

// ExportRepository stores the ledger of produced archives.
type ExportRepository interface {
	Create(record *models.ExportRecord) error
	Get(id uuid.UUID) (*models.ExportRecord, error)
	List() ([]models.ExportRecord, error)
	Delete(id uuid.UUID) error
}

// GormExportRepository keeps export records in a SQL database.
type GormExportRepository struct {
	db *gorm.DB
}

// NewGormExportRepository creates a repository on the given connection.
func NewGormExportRepository(db *gorm.DB) *GormExportRepository {
	return &GormExportRepository{db: db}
}

// Create inserts a new record.
func (r *GormExportRepository) Create(record *models.ExportRecord) error {
	return r.db.Create(record).Error
}

// Get loads a record by ID.
func (r *GormExportRepository) Get(id uuid.UUID) (*models.ExportRecord, error) {
	var record models.ExportRecord
	err := r.db.First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrExportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns every record, newest first.
func (r *GormExportRepository) List() ([]models.ExportRecord, error) {
	var records []models.ExportRecord
	err := r.db.Order("created_at desc").Find(&records).Error
	return records, err
}

// Delete removes a record by ID.
func (r *GormExportRepository) Delete(id uuid.UUID) error {
	res := r.db.Delete(&models.ExportRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrExportNotFound
	}
	return nil
}

// MemoryExportRepository is an in-process ledger used when no database is
// configured.
type MemoryExportRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]models.ExportRecord
}

func NewMemoryExportRepository() *MemoryExportRepository {
	return &MemoryExportRepository{records: make(map[uuid.UUID]models.ExportRecord)}
}

func (r *MemoryExportRepository) Create(record *models.ExportRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.ID]; ok {
		return errors.New("duplicate export id")
	}
	r.records[record.ID] = *record
	return nil
}

func (r *MemoryExportRepository) Get(id uuid.UUID) (*models.ExportRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok {
		return nil, ErrExportNotFound
	}
	return &record, nil
}

func (r *MemoryExportRepository) List() ([]models.ExportRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ExportRecord, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryExportRepository) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return ErrExportNotFound
	}
	delete(r.records, id)
	return nil
}
