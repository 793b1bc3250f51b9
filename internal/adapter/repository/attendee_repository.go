package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meetingminutes/backend/internal/domain/entities"
)

// AttendeeRepository handles attendee data operations
type AttendeeRepository struct {
	db *gorm.DB
}

// NewAttendeeRepository creates a new attendee repository
func NewAttendeeRepository(db *gorm.DB) *AttendeeRepository {
	return &AttendeeRepository{db: db}
}

// CreateBatch inserts attendees for a meeting
func (r *AttendeeRepository) CreateBatch(ctx context.Context, attendees []*entities.Attendee) error {
	if len(attendees) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(attendees).Error; err != nil {
		return fmt.Errorf("failed to create attendees: %w", err)
	}
	return nil
}

// ListByMeetingID returns attendees with their linked users preloaded
func (r *AttendeeRepository) ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.Attendee, error) {
	var attendees []*entities.Attendee
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("meeting_id = ?", meetingID).
		Find(&attendees).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendees: %w", err)
	}
	return attendees, nil
}

// IsAttendee reports whether the user is linked to the meeting
func (r *AttendeeRepository) IsAttendee(ctx context.Context, meetingID, userID uuid.UUID) (bool, error) {
	var attendee entities.Attendee
	err := r.db.WithContext(ctx).
		Select("id").
		Where("meeting_id = ? AND user_id = ?", meetingID, userID).
		First(&attendee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check attendee: %w", err)
	}
	return true, nil
}
