package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meetingminutes/backend/internal/domain/entities"
)

// DocumentRepository handles generated document metadata operations
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create saves a document metadata row
func (r *DocumentRepository) Create(ctx context.Context, doc *entities.GeneratedDocument) error {
	if doc == nil {
		return errors.New("document cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document metadata: %w", err)
	}
	return nil
}

// NextVersion returns max(version)+1 for the (meeting, format) pair
func (r *DocumentRepository) NextVersion(ctx context.Context, meetingID uuid.UUID, format entities.DocumentFormat) (int, error) {
	var max *int
	if err := r.db.WithContext(ctx).
		Model(&entities.GeneratedDocument{}).
		Where("meeting_id = ? AND format = ?", meetingID, format).
		Select("MAX(version)").
		Scan(&max).Error; err != nil {
		return 0, fmt.Errorf("failed to compute next document version: %w", err)
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

// FindLatest returns the newest document of the given format, or nil
func (r *DocumentRepository) FindLatest(ctx context.Context, meetingID uuid.UUID, format entities.DocumentFormat) (*entities.GeneratedDocument, error) {
	var doc entities.GeneratedDocument
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND format = ?", meetingID, format).
		Order("version DESC").
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find latest document: %w", err)
	}
	return &doc, nil
}

// ListByMeetingID returns all document metadata for a meeting, newest first
func (r *DocumentRepository) ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.GeneratedDocument, error) {
	var docs []*entities.GeneratedDocument
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// CountByMeetingID returns the number of documents for a meeting
func (r *DocumentRepository) CountByMeetingID(ctx context.Context, meetingID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.GeneratedDocument{}).
		Where("meeting_id = ?", meetingID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}
