package models

import (
	"time"

	"github.com/google/uuid"
)

// ExportRecord describes a .camio archive produced by the service.
type ExportRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FileName     string    `json:"file_name"`
	StorageKey   string    `json:"storage_key,omitempty"`
	Size         int64     `json:"size"`
	HotspotCount int       `json:"hotspot_count"`
	Rotation     float64   `json:"rotation"`
	CanvasSize   int       `json:"canvas_size"`
	Lang         string    `json:"lang"`
	CreatedAt    time.Time `json:"created_at"`

	LocalPath string `json:"-"`
}
