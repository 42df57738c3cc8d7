package model

import "time"

// DocumentStatus is the ingestion lifecycle state of a document.
type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "Processing"
	StatusSuccess    DocumentStatus = "Success"
	StatusFailed     DocumentStatus = "Failed"
)

// Document is a user-owned uploaded file. It is created in Processing
// status by the ingestion pipeline and is usable for chat only once the
// status reaches Success.
type Document struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index:idx_documents_user_status" json:"user_id"`
	FileName  string         `gorm:"size:256;not null" json:"file_name"`
	Status    DocumentStatus `gorm:"size:16;not null;default:Processing;index:idx_documents_user_status" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
