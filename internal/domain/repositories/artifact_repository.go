package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/meetingminutes/backend/internal/domain/entities"
)

// TranscriptRepository defines persistence operations for transcripts
type TranscriptRepository interface {
	// Upsert writes the transcript for its meeting, overwriting any
	// existing row. Re-running the pipeline yields one row, not two.
	Upsert(ctx context.Context, transcript *entities.Transcript) error

	// FindByMeetingID returns the transcript for a meeting, or nil
	// when none exists
	FindByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Transcript, error)
}

// ExtractionRepository defines persistence operations for extractions
type ExtractionRepository interface {
	// Upsert writes the extraction for its meeting, overwriting any
	// existing row
	Upsert(ctx context.Context, extraction *entities.Extraction) error

	// FindByMeetingID returns the extraction for a meeting, or nil
	// when none exists
	FindByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Extraction, error)
}

// ActionItemRepository defines persistence operations for action items
type ActionItemRepository interface {
	// CreateBatch inserts all items in a single transaction;
	// any failure rolls back the whole batch
	CreateBatch(ctx context.Context, items []*entities.ActionItem) error

	// ListByMeetingID returns all action items for a meeting
	ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.ActionItem, error)

	// CountByMeetingID returns the number of action items for a meeting
	CountByMeetingID(ctx context.Context, meetingID uuid.UUID) (int64, error)

	// ExistsForAssignee reports whether any item for the meeting is
	// assigned to the given user
	ExistsForAssignee(ctx context.Context, meetingID, userID uuid.UUID) (bool, error)
}

// DocumentRepository defines persistence operations for generated
// document metadata
type DocumentRepository interface {
	// Create saves a document metadata row
	Create(ctx context.Context, doc *entities.GeneratedDocument) error

	// NextVersion returns max(version)+1 for the (meeting, format)
	// pair, or 1 when none exist
	NextVersion(ctx context.Context, meetingID uuid.UUID, format entities.DocumentFormat) (int, error)

	// FindLatest returns the newest document of the given format for a
	// meeting, or nil when none exists
	FindLatest(ctx context.Context, meetingID uuid.UUID, format entities.DocumentFormat) (*entities.GeneratedDocument, error)

	// ListByMeetingID returns all document metadata for a meeting,
	// newest first
	ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.GeneratedDocument, error)

	// CountByMeetingID returns the number of documents for a meeting
	CountByMeetingID(ctx context.Context, meetingID uuid.UUID) (int64, error)
}
