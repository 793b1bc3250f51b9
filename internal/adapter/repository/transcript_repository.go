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

// TranscriptRepository handles transcript data operations
type TranscriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// Upsert writes the transcript for its meeting. The unique index on
// meeting_id serializes concurrent writers; the loser's insert becomes
// an update of the content columns.
func (r *TranscriptRepository) Upsert(ctx context.Context, transcript *entities.Transcript) error {
	if transcript == nil {
		return errors.New("transcript cannot be nil")
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "meeting_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"raw_text", "word_timestamps", "language", "confidence_score",
				"audio_duration_sec", "processing_time_ms", "device_used", "updated_at",
			}),
		}).
		Create(transcript).Error; err != nil {
		return fmt.Errorf("failed to upsert transcript: %w", err)
	}
	return nil
}

// FindByMeetingID returns the transcript for a meeting, or nil when none exists
func (r *TranscriptRepository) FindByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Transcript, error) {
	var transcript entities.Transcript
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		First(&transcript).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find transcript: %w", err)
	}
	return &transcript, nil
}
