package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WordTimestamp is a single word with its position in the audio
type WordTimestamp struct {
	Word       string  `json:"word"`
	StartTime  float64 `json:"startTime"`
	EndTime    float64 `json:"endTime"`
	Confidence float64 `json:"confidence"`
}

// Transcript holds the transcription result for a meeting. The unique
// index on MeetingID makes pipeline upserts idempotent: a retry
// overwrites the existing row instead of inserting a duplicate.
type Transcript struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;uniqueIndex"`

	RawText        string          `json:"raw_text" gorm:"type:text;not null"`
	WordTimestamps datatypes.JSONSlice[WordTimestamp] `json:"word_timestamps" gorm:"type:jsonb"`

	Language         string  `json:"language" gorm:"type:varchar(10);default:'en'"`
	ConfidenceScore  float64 `json:"confidence_score" gorm:"type:double precision"`
	AudioDurationSec float64 `json:"audio_duration_sec" gorm:"type:double precision"`
	ProcessingTimeMs int64   `json:"processing_time_ms" gorm:"type:bigint"`
	DeviceUsed       string  `json:"device_used" gorm:"type:varchar(50)"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewTranscript creates a transcript for a meeting
func NewTranscript(meetingID uuid.UUID, rawText string) *Transcript {
	now := time.Now()
	return &Transcript{
		ID:        uuid.New(),
		MeetingID: meetingID,
		RawText:   rawText,
		Language:  "en",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TableName specifies the table name for GORM
func (Transcript) TableName() string {
	return "transcripts"
}
