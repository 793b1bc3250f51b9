package entities

import (
	"time"

	"github.com/google/uuid"
)

// ActionItemStatus represents the workflow state of an action item
type ActionItemStatus string

const (
	ActionItemStatusPending    ActionItemStatus = "PENDING"
	ActionItemStatusInProgress ActionItemStatus = "IN_PROGRESS"
	ActionItemStatusCompleted  ActionItemStatus = "COMPLETED"
	ActionItemStatusCancelled  ActionItemStatus = "CANCELLED"
)

// Priority levels derived from extraction confidence.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// ActionItem is a task extracted from a meeting. The assignee is either
// a resolved registered user or an external email; at most one is set.
type ActionItem struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID   uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Description string    `json:"description" gorm:"type:text;not null"`

	AssignedToUserID *uuid.UUID `json:"assigned_to_user_id,omitempty" gorm:"type:uuid;index"`
	AssignedToUser   *User      `json:"assigned_to_user,omitempty" gorm:"foreignKey:AssignedToUserID"`
	AssignedToEmail  *string    `json:"assigned_to_email,omitempty" gorm:"type:varchar(255)"`

	Deadline *time.Time       `json:"deadline,omitempty" gorm:"type:timestamp"`
	Status   ActionItemStatus `json:"status" gorm:"type:varchar(50);not null;index;default:'PENDING'"`
	Priority int              `json:"priority" gorm:"type:integer;not null;default:2"`

	Acknowledged   bool       `json:"acknowledged" gorm:"default:false;not null"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty" gorm:"type:timestamp"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" gorm:"type:timestamp"`
	CompletionNote string     `json:"completion_note" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// PriorityFromConfidence maps an extraction confidence score to a
// priority level. A missing score falls back to medium.
func PriorityFromConfidence(confidence *float64) int {
	if confidence == nil {
		return PriorityMedium
	}
	switch {
	case *confidence > 0.8:
		return PriorityHigh
	case *confidence > 0.5:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Acknowledge marks the item as seen by its assignee
func (a *ActionItem) Acknowledge() {
	now := time.Now()
	a.Acknowledged = true
	a.AcknowledgedAt = &now
	a.UpdatedAt = now
}

// Complete marks the item done with an optional note
func (a *ActionItem) Complete(note string) {
	now := time.Now()
	a.Status = ActionItemStatusCompleted
	a.CompletedAt = &now
	a.CompletionNote = note
	a.UpdatedAt = now
}

// TableName specifies the table name for GORM
func (ActionItem) TableName() string {
	return "action_items"
}
