package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/meetingminutes/backend/internal/domain/entities"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *entities.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)

	// FindByEmail finds a user by email, case-insensitively
	FindByEmail(ctx context.Context, email string) (*entities.User, error)

	// UpdateLastLogin updates the last login timestamp
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}

// AttendeeRepository defines the interface for attendee data access
type AttendeeRepository interface {
	// CreateBatch inserts attendees for a meeting
	CreateBatch(ctx context.Context, attendees []*entities.Attendee) error

	// ListByMeetingID returns attendees with their linked users preloaded
	ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.Attendee, error)

	// IsAttendee reports whether the user is linked to the meeting
	IsAttendee(ctx context.Context, meetingID, userID uuid.UUID) (bool, error)
}
