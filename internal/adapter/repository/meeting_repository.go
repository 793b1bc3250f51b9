package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meetingminutes/backend/internal/domain/entities"
)

// MeetingRepository implements the meeting repository interface using GORM
type MeetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Create creates a new meeting
func (r *MeetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	if err := r.db.WithContext(ctx).Create(meeting).Error; err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}
	return nil
}

// FindByID finds a meeting by ID with attendees and their users preloaded
func (r *MeetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := r.db.WithContext(ctx).
		Preload("Attendees").
		Preload("Attendees.User").
		Where("id = ?", id).
		First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find meeting: %w", err)
	}
	return &meeting, nil
}

// Update updates a meeting
func (r *MeetingRepository) Update(ctx context.Context, meeting *entities.Meeting) error {
	if meeting == nil {
		return errors.New("meeting cannot be nil")
	}
	if err := r.db.WithContext(ctx).Save(meeting).Error; err != nil {
		return fmt.Errorf("failed to update meeting: %w", err)
	}
	return nil
}

// ClaimForProcessing atomically transitions a meeting from DRAFT or
// FAILED to PROCESSING. The status condition in the WHERE clause is the
// fence: when two callers race, only one UPDATE matches a row.
func (r *MeetingRepository) ClaimForProcessing(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND status IN ?", id, []entities.MeetingStatus{entities.MeetingStatusDraft, entities.MeetingStatusFailed}).
		Updates(map[string]interface{}{
			"status":            entities.MeetingStatusProcessing,
			"actual_start_time": startedAt,
			"updated_at":        startedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim meeting for processing: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkProcessed transitions a meeting to PROCESSED
func (r *MeetingRepository) MarkProcessed(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	return r.setTerminalStatus(ctx, id, entities.MeetingStatusProcessed, endedAt)
}

// MarkFailed transitions a meeting to FAILED
func (r *MeetingRepository) MarkFailed(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	return r.setTerminalStatus(ctx, id, entities.MeetingStatusFailed, endedAt)
}

func (r *MeetingRepository) setTerminalStatus(ctx context.Context, id uuid.UUID, status entities.MeetingStatus, endedAt time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"actual_end_time": endedAt,
			"updated_at":      endedAt,
		}).Error; err != nil {
		return fmt.Errorf("failed to set meeting status %s: %w", status, err)
	}
	return nil
}

// CancelProcessing atomically transitions a PROCESSING meeting to FAILED
func (r *MeetingRepository) CancelProcessing(ctx context.Context, id uuid.UUID, endedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND status = ?", id, entities.MeetingStatusProcessing).
		Updates(map[string]interface{}{
			"status":          entities.MeetingStatusFailed,
			"actual_end_time": endedAt,
			"updated_at":      endedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to cancel processing: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetStatus returns the current status of a meeting
func (r *MeetingRepository) GetStatus(ctx context.Context, id uuid.UUID) (entities.MeetingStatus, error) {
	var status entities.MeetingStatus
	if err := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Pluck("status", &status).Error; err != nil {
		return "", fmt.Errorf("failed to get meeting status: %w", err)
	}
	if status == "" {
		return "", entities.ErrMeetingNotFound
	}
	return status, nil
}

// ClearAudioPath removes the stored audio path after cleanup
func (r *MeetingRepository) ClearAudioPath(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Update("audio_file_path", nil).Error; err != nil {
		return fmt.Errorf("failed to clear audio path: %w", err)
	}
	return nil
}

// FindProcessedInSeries returns the most recent PROCESSED siblings in a
// series, newest first, and the total sibling count before the limit.
func (r *MeetingRepository) FindProcessedInSeries(ctx context.Context, seriesID, excludeID uuid.UUID, limit int) ([]*entities.Meeting, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("series_id = ? AND id <> ? AND status = ?", seriesID, excludeID, entities.MeetingStatusProcessed)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count series siblings: %w", err)
	}

	var meetings []*entities.Meeting
	if err := query.
		Order("scheduled_at DESC NULLS LAST, created_at DESC").
		Limit(limit).
		Find(&meetings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list series siblings: %w", err)
	}
	return meetings, total, nil
}

// FindStaleProcessing returns meetings stuck in PROCESSING whose last
// update is older than the cutoff.
func (r *MeetingRepository) FindStaleProcessing(ctx context.Context, cutoff time.Time) ([]*entities.Meeting, error) {
	var meetings []*entities.Meeting
	if err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", entities.MeetingStatusProcessing, cutoff).
		Find(&meetings).Error; err != nil {
		return nil, fmt.Errorf("failed to list stale processing meetings: %w", err)
	}
	return meetings, nil
}

// MeetingSeriesRepository implements series data access using GORM
type MeetingSeriesRepository struct {
	db *gorm.DB
}

// NewMeetingSeriesRepository creates a new series repository
func NewMeetingSeriesRepository(db *gorm.DB) *MeetingSeriesRepository {
	return &MeetingSeriesRepository{db: db}
}

// Create creates a new meeting series
func (r *MeetingSeriesRepository) Create(ctx context.Context, series *entities.MeetingSeries) error {
	if err := r.db.WithContext(ctx).Create(series).Error; err != nil {
		return fmt.Errorf("failed to create meeting series: %w", err)
	}
	return nil
}

// FindByID finds a series by ID
func (r *MeetingSeriesRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.MeetingSeries, error) {
	var series entities.MeetingSeries
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&series).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find meeting series: %w", err)
	}
	return &series, nil
}
