package processing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/meetingminutes/backend/internal/domain/entities"
)

// EventType identifies a progress event
type EventType string

const (
	EventUpdate   EventType = "PROCESSING_UPDATE"
	EventComplete EventType = "PROCESSING_COMPLETE"
	EventError    EventType = "PROCESSING_ERROR"
)

// Event is a full-snapshot progress message. Duplicates are harmless;
// subscribers can apply any event without history.
type Event struct {
	Type                EventType              `json:"type"`
	MeetingID           string                 `json:"meeting_id"`
	Status              entities.MeetingStatus `json:"status"`
	Progress            int                    `json:"progress"`
	CurrentStep         string                 `json:"current_step,omitempty"`
	Message             string                 `json:"message,omitempty"`
	DocumentURL         string                 `json:"document_url,omitempty"`
	ActionItemsCreated  int64                  `json:"action_items_created,omitempty"`
	Timestamp           time.Time              `json:"timestamp"`
	EstimatedCompletion *time.Time             `json:"estimated_completion,omitempty"`
}

// Publisher delivers progress events to subscribers of a meeting's
// topic. Delivery is at-least-once and best-effort from the pipeline's
// point of view.
type Publisher interface {
	Publish(ctx context.Context, meetingID uuid.UUID, event Event) error
}

// estimateCompletion projects the finish time assuming a 30 second
// full pipeline run. Partial seconds round up.
func estimateCompletion(now time.Time, progress int) *time.Time {
	remaining := time.Duration(((100-progress)*30+99)/100) * time.Second
	eta := now.Add(remaining)
	return &eta
}

// updateEvent builds a PROCESSING_UPDATE snapshot
func updateEvent(meetingID uuid.UUID, progress int, step, message string) Event {
	now := time.Now()
	return Event{
		Type:                EventUpdate,
		MeetingID:           meetingID.String(),
		Status:              entities.MeetingStatusProcessing,
		Progress:            progress,
		CurrentStep:         step,
		Message:             message,
		Timestamp:           now,
		EstimatedCompletion: estimateCompletion(now, progress),
	}
}

// completeEvent builds a PROCESSING_COMPLETE snapshot
func completeEvent(meetingID uuid.UUID, documentURL string, actionItems int64) Event {
	return Event{
		Type:               EventComplete,
		MeetingID:          meetingID.String(),
		Status:             entities.MeetingStatusProcessed,
		Progress:           100,
		DocumentURL:        documentURL,
		ActionItemsCreated: actionItems,
		Timestamp:          time.Now(),
	}
}

// errorEvent builds a PROCESSING_ERROR snapshot
func errorEvent(meetingID uuid.UUID, message string) Event {
	return Event{
		Type:      EventError,
		MeetingID: meetingID.String(),
		Status:    entities.MeetingStatusFailed,
		Progress:  0,
		Message:   message,
		Timestamp: time.Now(),
	}
}
