package entities

import (
	"time"

	"github.com/google/uuid"
)

// AttendeeStatus represents an attendee's RSVP/participation state
type AttendeeStatus string

const (
	AttendeeStatusInvited   AttendeeStatus = "INVITED"
	AttendeeStatusConfirmed AttendeeStatus = "CONFIRMED"
	AttendeeStatusDeclined  AttendeeStatus = "DECLINED"
	AttendeeStatusAttended  AttendeeStatus = "ATTENDED"
)

// Attendee links a meeting to either a registered user or a bare invite
// email. Exactly one of UserID and InviteEmail is set at link time; an
// invite-email-only row becomes user-linked on first login with a
// matching email.
type Attendee struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;index"`

	UserID      *uuid.UUID `json:"user_id,omitempty" gorm:"type:uuid;index"`
	User        *User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	InviteEmail *string    `json:"invite_email,omitempty" gorm:"type:varchar(255)"`

	Status      AttendeeStatus `json:"status" gorm:"type:varchar(50);not null;default:'INVITED'"`
	IsOrganizer bool           `json:"is_organizer" gorm:"default:false;not null"`
	InviteToken *string        `json:"-" gorm:"type:varchar(255);uniqueIndex"` // one-shot, never exposed

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Email returns the best known address for this attendee.
func (a *Attendee) Email() string {
	if a.User != nil {
		return a.User.Email
	}
	if a.InviteEmail != nil {
		return *a.InviteEmail
	}
	return ""
}

// TableName specifies the table name for GORM
func (Attendee) TableName() string {
	return "attendees"
}
