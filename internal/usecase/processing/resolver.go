package processing

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetingminutes/backend/internal/domain/entities"
	"github.com/meetingminutes/backend/internal/domain/repositories"
)

var (
	isoDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashDatePattern = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
	dashDatePattern  = regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`)
	inDaysPattern    = regexp.MustCompile(`in (\d+) days?`)
)

// ResolveDeadline turns a free-text deadline into an end-of-day
// timestamp. Patterns are checked in order; the first match wins.
// Unrecognized non-empty input defaults to one week out with a warning.
func ResolveDeadline(raw string, now time.Time, logger *zap.Logger) *time.Time {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	lower := strings.ToLower(trimmed)

	if isoDatePattern.MatchString(trimmed) {
		if t, err := time.ParseInLocation("2006-01-02", trimmed, now.Location()); err == nil {
			return endOfDay(t)
		}
	}
	if slashDatePattern.MatchString(trimmed) {
		if t, err := time.ParseInLocation("1/2/2006", trimmed, now.Location()); err == nil {
			return endOfDay(t)
		}
	}
	if dashDatePattern.MatchString(trimmed) {
		if t, err := time.ParseInLocation("1-2-2006", trimmed, now.Location()); err == nil {
			return endOfDay(t)
		}
	}
	if strings.Contains(lower, "tomorrow") {
		return endOfDay(now.AddDate(0, 0, 1))
	}
	if strings.Contains(lower, "next week") {
		return endOfDay(now.AddDate(0, 0, 7))
	}
	if m := inDaysPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return endOfDay(now.AddDate(0, 0, n))
		}
	}
	if strings.Contains(lower, "end of month") {
		firstOfNext := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
		return endOfDay(firstOfNext.AddDate(0, 0, -1))
	}
	if strings.Contains(lower, "end of week") {
		// upcoming Sunday; today when already Sunday
		days := (7 - int(now.Weekday())) % 7
		return endOfDay(now.AddDate(0, 0, days))
	}

	logger.Warn("unrecognized deadline text, defaulting to one week",
		zap.String("deadline", trimmed))
	return endOfDay(now.AddDate(0, 0, 7))
}

func endOfDay(t time.Time) *time.Time {
	eod := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
	return &eod
}

// AssigneeResolver maps free-text assignee mentions onto registered
// users or external emails.
type AssigneeResolver struct {
	userRepo repositories.UserRepository
}

// NewAssigneeResolver creates an assignee resolver
func NewAssigneeResolver(userRepo repositories.UserRepository) *AssigneeResolver {
	return &AssigneeResolver{userRepo: userRepo}
}

// Resolve returns a registered user ID, or an external email, or
// neither. At most one of the two results is non-nil.
func (r *AssigneeResolver) Resolve(ctx context.Context, raw string, meeting *entities.Meeting) (*uuid.UUID, *string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil, nil
	}

	// Exact email match against registered users
	user, err := r.userRepo.FindByEmail(ctx, trimmed)
	if err != nil {
		return nil, nil, err
	}
	if user != nil {
		return &user.ID, nil, nil
	}

	// Name or email match against this meeting's linked attendees
	for _, attendee := range meeting.Attendees {
		if attendee.User == nil {
			continue
		}
		if strings.EqualFold(attendee.User.Name, trimmed) || strings.EqualFold(attendee.User.Email, trimmed) {
			id := attendee.User.ID
			return &id, nil, nil
		}
	}

	// Unknown but email-shaped: keep as external email. Anything else
	// is stored verbatim as a placeholder so the mention isn't lost.
	return nil, &trimmed, nil
}
