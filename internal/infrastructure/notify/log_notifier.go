package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/meetingminutes/backend/internal/domain/entities"
)

// LogNotifier records completion notifications in the structured log.
// It stands in for a mail or push integration; the pipeline treats
// notification as fire-and-forget either way.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyProcessingComplete logs that minutes are ready for the organizer
func (n *LogNotifier) NotifyProcessingComplete(ctx context.Context, user *entities.User, meeting *entities.Meeting) {
	n.logger.Info("meeting minutes ready",
		zap.String("meeting_id", meeting.ID.String()),
		zap.String("meeting_title", meeting.Title),
		zap.String("recipient", user.Email))
}
