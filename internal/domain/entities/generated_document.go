package entities

import (
	"time"

	"github.com/google/uuid"
)

// DocumentFormat identifies a rendered minutes format
type DocumentFormat string

const (
	DocumentFormatPDF  DocumentFormat = "pdf"
	DocumentFormatDOCX DocumentFormat = "docx"
)

// ContentType returns the MIME type for the format.
func (f DocumentFormat) ContentType() string {
	switch f {
	case DocumentFormatPDF:
		return "application/pdf"
	case DocumentFormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

// GeneratedDocument is the metadata sidecar for a rendered minutes
// blob. Blobs are append-only; superseded versions are retained, and
// version numbers increase per (meeting, format).
type GeneratedDocument struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;index:idx_documents_meeting_format"`

	Format  DocumentFormat `json:"format" gorm:"type:varchar(10);not null;index:idx_documents_meeting_format"`
	Version int            `json:"version" gorm:"type:integer;not null"`

	FileName    string `json:"file_name" gorm:"type:varchar(255);not null"`
	BlobID      string `json:"blob_id" gorm:"type:varchar(500);not null"` // opaque object key in blob storage
	ContentType string `json:"content_type" gorm:"type:varchar(100);not null"`
	SizeBytes   int64  `json:"size_bytes" gorm:"type:bigint;not null"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (GeneratedDocument) TableName() string {
	return "generated_documents"
}
