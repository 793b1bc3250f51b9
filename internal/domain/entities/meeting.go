package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MeetingStatus represents the lifecycle state of a meeting
type MeetingStatus string

const (
	MeetingStatusDraft      MeetingStatus = "DRAFT"      // Created, possibly with audio, not yet processed
	MeetingStatusProcessing MeetingStatus = "PROCESSING" // Pipeline is running
	MeetingStatusProcessed  MeetingStatus = "PROCESSED"  // Pipeline finished successfully
	MeetingStatusFailed     MeetingStatus = "FAILED"     // Pipeline failed or was cancelled
)

// IsValid checks if the meeting status is valid
func (s MeetingStatus) IsValid() bool {
	switch s {
	case MeetingStatusDraft, MeetingStatusProcessing, MeetingStatusProcessed, MeetingStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the pipeline has reached a terminal state.
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusProcessed || s == MeetingStatusFailed
}

// AgendaItem is a single ordered agenda entry, stored as JSONB
type AgendaItem struct {
	Title             string `json:"title"`
	Description       string `json:"description,omitempty"`
	EstimatedDuration int    `json:"estimatedDuration,omitempty"` // minutes
}

// Meeting represents a meeting and its processing state
type Meeting struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title       string     `json:"title" gorm:"type:varchar(255);not null"`
	Description string     `json:"description" gorm:"type:text"`
	OrganizerID uuid.UUID  `json:"organizer_id" gorm:"type:uuid;not null;index"`
	SeriesID    *uuid.UUID `json:"series_id,omitempty" gorm:"type:uuid;index"`

	Status MeetingStatus `json:"status" gorm:"type:varchar(50);not null;index;default:'DRAFT'"`

	// Audio awaiting processing; nil until an upload completes
	AudioFilePath *string `json:"audio_file_path,omitempty" gorm:"type:varchar(500)"`

	ScheduledAt     *time.Time `json:"scheduled_at,omitempty" gorm:"type:timestamp"`
	ActualStartTime *time.Time `json:"actual_start_time,omitempty" gorm:"type:timestamp"`
	ActualEndTime   *time.Time `json:"actual_end_time,omitempty" gorm:"type:timestamp"`

	Agenda             string       `json:"agenda" gorm:"type:text"`
	AgendaItems        datatypes.JSONSlice[AgendaItem] `json:"agenda_items" gorm:"type:jsonb"`
	UsePreviousContext bool                            `json:"use_previous_context" gorm:"default:false;not null"`

	Attendees []Attendee `json:"attendees,omitempty" gorm:"foreignKey:MeetingID"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewMeeting creates a new draft meeting
func NewMeeting(title string, organizerID uuid.UUID) *Meeting {
	now := time.Now()
	return &Meeting{
		ID:          uuid.New(),
		Title:       title,
		OrganizerID: organizerID,
		Status:      MeetingStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasAudio reports whether an audio file has been attached.
func (m *Meeting) HasAudio() bool {
	return m.AudioFilePath != nil && *m.AudioFilePath != ""
}

// CanStartProcessing checks whether the pipeline may be started.
// Only DRAFT (first run) and FAILED (retry) meetings are eligible.
func (m *Meeting) CanStartProcessing() bool {
	return m.Status == MeetingStatusDraft || m.Status == MeetingStatusFailed
}

// IsOwnedBy checks if the given user organizes this meeting
func (m *Meeting) IsOwnedBy(userID uuid.UUID) bool {
	return m.OrganizerID == userID
}

// TableName specifies the table name for GORM
func (Meeting) TableName() string {
	return "meetings"
}
