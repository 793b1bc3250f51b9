package entities

import (
	"time"

	"github.com/google/uuid"
)

// MeetingSeries groups recurring meetings so the pipeline can carry
// decisions and action items forward between occurrences.
type MeetingSeries struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	OrganizerID uuid.UUID `json:"organizer_id" gorm:"type:uuid;not null;index"`

	Meetings []Meeting `json:"meetings,omitempty" gorm:"foreignKey:SeriesID"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (MeetingSeries) TableName() string {
	return "meeting_series"
}
