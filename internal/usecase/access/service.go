package access

import (
	"context"

	"github.com/google/uuid"

	"github.com/meetingminutes/backend/internal/domain/entities"
	"github.com/meetingminutes/backend/internal/domain/repositories"
)

// Service is the guard consulted before any meeting-scoped operation.
// A user may access a meeting when they organize it, attend it, or are
// assigned one of its action items.
type Service struct {
	attendeeRepo   repositories.AttendeeRepository
	actionItemRepo repositories.ActionItemRepository
}

// NewService creates an access service
func NewService(attendeeRepo repositories.AttendeeRepository, actionItemRepo repositories.ActionItemRepository) *Service {
	return &Service{
		attendeeRepo:   attendeeRepo,
		actionItemRepo: actionItemRepo,
	}
}

// HasAccess reports whether the user may read or act on the meeting
func (s *Service) HasAccess(ctx context.Context, userID uuid.UUID, meeting *entities.Meeting) (bool, error) {
	if meeting.IsOwnedBy(userID) {
		return true, nil
	}

	isAttendee, err := s.attendeeRepo.IsAttendee(ctx, meeting.ID, userID)
	if err != nil {
		return false, err
	}
	if isAttendee {
		return true, nil
	}

	return s.actionItemRepo.ExistsForAssignee(ctx, meeting.ID, userID)
}
