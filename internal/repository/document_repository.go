package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"docuchat/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) ListByUserID(userID uint) ([]model.Document, error) {
	var list []model.Document
	if err := r.db.Where("user_id = ?", userID).Order("id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

// GetByIDAndUserID loads only identity and status fields. The callers
// use it as an ownership/readiness check; pulling content or chunk data
// here would be unbounded work for no benefit.
func (r *DocumentRepository) GetByIDAndUserID(id, userID uint) (*model.Document, error) {
	var doc model.Document
	err := r.db.
		Select("id", "user_id", "file_name", "status").
		Where("id = ? AND user_id = ?", id, userID).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) MarkFailed(id uint) error {
	if err := r.db.Model(&model.Document{}).Where("id = ?", id).
		Update("status", model.StatusFailed).Error; err != nil {
		return fmt.Errorf("mark document failed status failed: %w", err)
	}
	return nil
}

// FinalizeSuccess bulk-inserts the chunks and flips the document to
// Success in one transaction. Either all chunks persist and the status
// changes, or neither does.
func (r *DocumentRepository) FinalizeSuccess(id uint, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("finalize document %d: no chunks to persist", id)
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&chunks).Error; err != nil {
			return fmt.Errorf("create chunks batch failed: %w", err)
		}
		if err := tx.Model(&model.Document{}).Where("id = ?", id).
			Update("status", model.StatusSuccess).Error; err != nil {
			return fmt.Errorf("update document status failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("finalize document %d failed: %w", id, err)
	}
	return nil
}

// MarkStaleProcessingFailed flips documents stuck in Processing since
// before cutoff to Failed and returns how many were affected. Covers
// crash windows where the pipeline died between create and finalize.
func (r *DocumentRepository) MarkStaleProcessingFailed(cutoff time.Time) (int64, error) {
	result := r.db.Model(&model.Document{}).
		Where("status = ? AND updated_at < ?", model.StatusProcessing, cutoff).
		Update("status", model.StatusFailed)
	if result.Error != nil {
		return 0, fmt.Errorf("mark stale documents failed: %w", result.Error)
	}
	return result.RowsAffected, nil
}
