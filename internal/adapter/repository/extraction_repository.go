package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meetingminutes/backend/internal/domain/entities"
)

// ExtractionRepository handles extraction data operations
type ExtractionRepository struct {
	db *gorm.DB
}

// NewExtractionRepository creates a new extraction repository
func NewExtractionRepository(db *gorm.DB) *ExtractionRepository {
	return &ExtractionRepository{db: db}
}

// Upsert writes the extraction for its meeting, overwriting any existing row
func (r *ExtractionRepository) Upsert(ctx context.Context, extraction *entities.Extraction) error {
	if extraction == nil {
		return errors.New("extraction cannot be nil")
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "meeting_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"data", "model_version", "confidence_score", "processing_time_ms", "updated_at",
			}),
		}).
		Create(extraction).Error; err != nil {
		return fmt.Errorf("failed to upsert extraction: %w", err)
	}
	return nil
}

// FindByMeetingID returns the extraction for a meeting, or nil when none exists
func (r *ExtractionRepository) FindByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Extraction, error) {
	var extraction entities.Extraction
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		First(&extraction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find extraction: %w", err)
	}
	return &extraction, nil
}
