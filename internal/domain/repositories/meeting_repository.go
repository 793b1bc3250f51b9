package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meetingminutes/backend/internal/domain/entities"
)

// MeetingRepository defines the interface for meeting data access
type MeetingRepository interface {
	// Create creates a new meeting
	Create(ctx context.Context, meeting *entities.Meeting) error

	// FindByID finds a meeting by ID, with attendees and their users preloaded
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// Update updates a meeting
	Update(ctx context.Context, meeting *entities.Meeting) error

	// ClaimForProcessing atomically transitions a DRAFT or FAILED
	// meeting to PROCESSING and stamps actualStartTime. Returns false
	// when the meeting was not in an eligible status, so exactly one
	// of two concurrent callers wins.
	ClaimForProcessing(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error)

	// MarkProcessed transitions a meeting to PROCESSED and stamps actualEndTime
	MarkProcessed(ctx context.Context, id uuid.UUID, endedAt time.Time) error

	// MarkFailed transitions a meeting to FAILED and stamps actualEndTime
	MarkFailed(ctx context.Context, id uuid.UUID, endedAt time.Time) error

	// CancelProcessing atomically transitions a PROCESSING meeting to
	// FAILED. Returns false when the meeting was not processing.
	CancelProcessing(ctx context.Context, id uuid.UUID, endedAt time.Time) (bool, error)

	// GetStatus returns just the current status of a meeting
	GetStatus(ctx context.Context, id uuid.UUID) (entities.MeetingStatus, error)

	// ClearAudioPath removes the audio path after pipeline cleanup
	ClearAudioPath(ctx context.Context, id uuid.UUID) error

	// FindProcessedInSeries returns the most recent PROCESSED meetings
	// in a series, excluding one meeting, newest first, up to limit.
	// The total count of matching siblings (pre-limit) is also returned.
	FindProcessedInSeries(ctx context.Context, seriesID, excludeID uuid.UUID, limit int) ([]*entities.Meeting, int64, error)

	// FindStaleProcessing returns meetings stuck in PROCESSING whose
	// updated_at is older than the cutoff.
	FindStaleProcessing(ctx context.Context, cutoff time.Time) ([]*entities.Meeting, error)
}

// MeetingSeriesRepository defines the interface for series data access
type MeetingSeriesRepository interface {
	Create(ctx context.Context, series *entities.MeetingSeries) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.MeetingSeries, error)
}
