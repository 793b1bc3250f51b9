package processing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetingminutes/backend/internal/domain/entities"
	"github.com/meetingminutes/backend/internal/domain/repositories"
)

// Materializer turns extracted action items into persisted rows with
// resolved assignees, deadlines and priorities. The batch is
// all-or-nothing: one bad item fails the whole stage.
type Materializer struct {
	actionItemRepo repositories.ActionItemRepository
	resolver       *AssigneeResolver
	logger         *zap.Logger
}

// NewMaterializer creates a materializer
func NewMaterializer(actionItemRepo repositories.ActionItemRepository, resolver *AssigneeResolver, logger *zap.Logger) *Materializer {
	return &Materializer{
		actionItemRepo: actionItemRepo,
		resolver:       resolver,
		logger:         logger,
	}
}

// Materialize persists the extracted action items for a meeting and
// returns how many were created.
func (m *Materializer) Materialize(ctx context.Context, meeting *entities.Meeting, extracted []entities.ExtractedActionItem) (int64, error) {
	if len(extracted) == 0 {
		return 0, nil
	}

	now := time.Now()
	items := make([]*entities.ActionItem, 0, len(extracted))
	for _, e := range extracted {
		userID, email, err := m.resolver.Resolve(ctx, e.AssignedTo, meeting)
		if err != nil {
			return 0, err
		}

		items = append(items, &entities.ActionItem{
			ID:               uuid.New(),
			MeetingID:        meeting.ID,
			Description:      e.Description,
			AssignedToUserID: userID,
			AssignedToEmail:  email,
			Deadline:         ResolveDeadline(e.Deadline, now, m.logger),
			Status:           entities.ActionItemStatusPending,
			Priority:         entities.PriorityFromConfidence(e.Confidence),
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}

	if err := m.actionItemRepo.CreateBatch(ctx, items); err != nil {
		return 0, err
	}

	m.logger.Info("action items materialized",
		zap.String("meeting_id", meeting.ID.String()),
		zap.Int("count", len(items)))

	return int64(len(items)), nil
}
