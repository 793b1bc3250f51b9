package processing

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/meetingminutes/backend/errors"
	"github.com/meetingminutes/backend/internal/domain/entities"
	"github.com/meetingminutes/backend/internal/domain/repositories"
)

// Status is the pipeline state as derived from persisted artifacts.
// It survives process restarts because nothing in it comes from
// orchestrator memory.
type Status struct {
	MeetingID   string                 `json:"meetingId"`
	Status      entities.MeetingStatus `json:"status"`
	Progress    int                    `json:"progress"`
	CurrentStep string                 `json:"currentStep"`
	Message     string                 `json:"message"`
	StartedAt   *time.Time             `json:"startedAt,omitempty"`
	CompletedAt *time.Time             `json:"completedAt,omitempty"`
}

// StatusQuery reports pipeline state by inspecting the stores
type StatusQuery struct {
	meetingRepo    repositories.MeetingRepository
	transcriptRepo repositories.TranscriptRepository
	extractionRepo repositories.ExtractionRepository
	actionItemRepo repositories.ActionItemRepository
	documentRepo   repositories.DocumentRepository
}

// NewStatusQuery creates a status query
func NewStatusQuery(
	meetingRepo repositories.MeetingRepository,
	transcriptRepo repositories.TranscriptRepository,
	extractionRepo repositories.ExtractionRepository,
	actionItemRepo repositories.ActionItemRepository,
	documentRepo repositories.DocumentRepository,
) *StatusQuery {
	return &StatusQuery{
		meetingRepo:    meetingRepo,
		transcriptRepo: transcriptRepo,
		extractionRepo: extractionRepo,
		actionItemRepo: actionItemRepo,
		documentRepo:   documentRepo,
	}
}

// Get returns the current pipeline status for a meeting
func (q *StatusQuery) Get(ctx context.Context, meetingID uuid.UUID) (*Status, error) {
	meeting, err := q.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}
	if meeting == nil {
		return nil, apperrors.ErrMeetingNotFound(meetingID.String())
	}

	progress := 0
	if meeting.Status == entities.MeetingStatusProcessing || meeting.Status == entities.MeetingStatusProcessed {
		progress, err = q.artifactProgress(ctx, meetingID)
		if err != nil {
			return nil, apperrors.ErrInternal(err)
		}
	}

	step, message := describe(meeting.Status, progress)

	return &Status{
		MeetingID:   meetingID.String(),
		Status:      meeting.Status,
		Progress:    progress,
		CurrentStep: step,
		Message:     message,
		StartedAt:   meeting.ActualStartTime,
		CompletedAt: meeting.ActualEndTime,
	}, nil
}

// artifactProgress walks the artifact chain and returns how far the
// pipeline actually got, regardless of what any in-process state says.
func (q *StatusQuery) artifactProgress(ctx context.Context, meetingID uuid.UUID) (int, error) {
	transcript, err := q.transcriptRepo.FindByMeetingID(ctx, meetingID)
	if err != nil {
		return 0, err
	}
	if transcript == nil {
		return 25, nil
	}

	extraction, err := q.extractionRepo.FindByMeetingID(ctx, meetingID)
	if err != nil {
		return 0, err
	}
	if extraction == nil {
		return 50, nil
	}

	actionItems, err := q.actionItemRepo.CountByMeetingID(ctx, meetingID)
	if err != nil {
		return 0, err
	}
	if actionItems == 0 {
		return 75, nil
	}

	documents, err := q.documentRepo.CountByMeetingID(ctx, meetingID)
	if err != nil {
		return 0, err
	}
	if documents == 0 {
		return 90, nil
	}

	return 100, nil
}

func describe(status entities.MeetingStatus, progress int) (step, message string) {
	switch status {
	case entities.MeetingStatusDraft:
		return "DRAFT", "Meeting has not been processed"
	case entities.MeetingStatusFailed:
		return "FAILED", "Processing failed"
	case entities.MeetingStatusProcessed:
		return "COMPLETE", "Processing complete"
	}
	switch {
	case progress <= 25:
		return "TRANSCRIBING", "Transcribing audio"
	case progress <= 50:
		return "EXTRACTING", "Extracting decisions and action items"
	case progress <= 75:
		return "CREATING_TASKS", "Creating action items"
	default:
		return "GENERATING_DOCUMENTS", "Generating meeting minutes"
	}
}
