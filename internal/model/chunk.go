package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// EmbeddingDim is the fixed dimensionality of chunk embeddings.
const EmbeddingDim = 2048

// Chunk is one embedded segment of a document's extracted text.
// Chunks are written once, as a batch, in the same transaction that
// flips the owning document to Success; they are immutable afterwards.
type Chunk struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	DocumentID uint            `gorm:"not null;index" json:"document_id"`
	Content    string          `gorm:"type:text;not null" json:"content"`
	Embedding  pgvector.Vector `gorm:"type:vector(2048);not null" json:"-"`
	CreatedAt  time.Time       `json:"created_at"`
}
