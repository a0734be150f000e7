package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camio-service/internal/models"
)

func TestMemoryExportRepository(t *testing.T) {
	repo := NewMemoryExportRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older := &models.ExportRecord{ID: uuid.New(), FileName: "room_1.camio", CreatedAt: base}
	newer := &models.ExportRecord{ID: uuid.New(), FileName: "room_2.camio", CreatedAt: base.Add(time.Hour)}
	require.NoError(t, repo.Create(older))
	require.NoError(t, repo.Create(newer))
	assert.Error(t, repo.Create(older))

	got, err := repo.Get(older.ID)
	require.NoError(t, err)
	assert.Equal(t, "room_1.camio", got.FileName)

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)

	require.NoError(t, repo.Delete(older.ID))
	_, err = repo.Get(older.ID)
	assert.ErrorIs(t, err, ErrExportNotFound)
	assert.ErrorIs(t, repo.Delete(older.ID), ErrExportNotFound)
}

func TestMemoryExportRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryExportRepository()
	record := &models.ExportRecord{ID: uuid.New(), FileName: "a.camio"}
	require.NoError(t, repo.Create(record))

	record.FileName = "changed"
	got, err := repo.Get(record.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.camio", got.FileName)
}
