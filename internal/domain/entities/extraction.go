package entities

import (
	"time"

	"github.com/google/uuid"
)

// ExtractedDecision is a decision identified by the extraction model
type ExtractedDecision struct {
	Topic      string   `json:"topic"`
	Decision   string   `json:"decision"`
	Context    string   `json:"context,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// ExtractedActionItem is a task identified by the extraction model,
// before assignee and deadline resolution.
type ExtractedActionItem struct {
	Description string   `json:"description"`
	AssignedTo  string   `json:"assigned_to,omitempty"`
	Deadline    string   `json:"deadline,omitempty"` // free text, resolved later
	Confidence  *float64 `json:"confidence,omitempty"`
}

// ExtractedTopic summarizes one discussed topic, tied back to the
// agenda item it covered.
type ExtractedTopic struct {
	AgendaItem string   `json:"agenda_item"`
	Summary    string   `json:"summary,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// ExtractedAttendee is a participant the model heard in the recording.
type ExtractedAttendee struct {
	Name       string   `json:"name"`
	Email      string   `json:"email,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// ExtractedData is the structured payload returned by the AI
// extraction endpoint, stored verbatim as JSONB.
type ExtractedData struct {
	Decisions       []ExtractedDecision   `json:"decisions"`
	ActionItems     []ExtractedActionItem `json:"action_items"`
	TopicsDiscussed []ExtractedTopic      `json:"topics_discussed,omitempty"`
	Attendees       []ExtractedAttendee   `json:"attendees,omitempty"`
}

// Extraction holds the structured analysis of a meeting transcript.
// Like Transcript, it is unique per meeting and upserted by the
// pipeline.
type Extraction struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;uniqueIndex"`

	Data ExtractedData `json:"data" gorm:"type:jsonb;serializer:json"`

	ModelVersion     string  `json:"model_version" gorm:"type:varchar(100)"`
	ConfidenceScore  float64 `json:"confidence_score" gorm:"type:double precision"`
	ProcessingTimeMs int64   `json:"processing_time_ms" gorm:"type:bigint"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewExtraction creates an extraction for a meeting
func NewExtraction(meetingID uuid.UUID, data ExtractedData) *Extraction {
	now := time.Now()
	return &Extraction{
		ID:        uuid.New(),
		MeetingID: meetingID,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TableName specifies the table name for GORM
func (Extraction) TableName() string {
	return "extractions"
}
