package repository

import (
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"docuchat/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// FindSimilarContent returns up to limit chunk contents of the given
// document whose cosine distance to query is below threshold, closest
// first. Filtering and ordering both run in the database; the
// application never sees chunks that miss the threshold.
func (r *ChunkRepository) FindSimilarContent(documentID uint, query pgvector.Vector, threshold float64, limit int) ([]string, error) {
	var contents []string
	err := r.db.Model(&model.Chunk{}).
		Where("document_id = ?", documentID).
		Where("embedding <=> ? < ?", query, threshold).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{query}},
		}).
		Limit(limit).
		Pluck("content", &contents).Error
	if err != nil {
		return nil, fmt.Errorf("find similar chunks failed: %w", err)
	}
	return contents, nil
}

// CountByDocumentID reports how many chunks a document has.
func (r *ChunkRepository) CountByDocumentID(documentID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Chunk{}).Where("document_id = ?", documentID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count chunks failed: %w", err)
	}
	return count, nil
}
