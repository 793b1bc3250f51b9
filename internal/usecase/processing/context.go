package processing

import (
	"context"

	"github.com/meetingminutes/backend/internal/domain/entities"
	"github.com/meetingminutes/backend/internal/domain/repositories"
	"github.com/meetingminutes/backend/pkg/ai"
)

// ContextAssembler gathers decisions and action items from earlier
// processed meetings in the same series.
type ContextAssembler struct {
	meetingRepo    repositories.MeetingRepository
	seriesRepo     repositories.MeetingSeriesRepository
	extractionRepo repositories.ExtractionRepository
	siblingsLimit  int
}

// NewContextAssembler creates a context assembler
func NewContextAssembler(
	meetingRepo repositories.MeetingRepository,
	seriesRepo repositories.MeetingSeriesRepository,
	extractionRepo repositories.ExtractionRepository,
	siblingsLimit int,
) *ContextAssembler {
	return &ContextAssembler{
		meetingRepo:    meetingRepo,
		seriesRepo:     seriesRepo,
		extractionRepo: extractionRepo,
		siblingsLimit:  siblingsLimit,
	}
}

// Assemble returns the previous-context payload for a meeting, or nil
// when the meeting opted out or has no series. Siblings without an
// extraction are skipped silently.
func (a *ContextAssembler) Assemble(ctx context.Context, meeting *entities.Meeting) (*ai.PreviousContext, error) {
	if !meeting.UsePreviousContext || meeting.SeriesID == nil {
		return nil, nil
	}

	siblings, total, err := a.meetingRepo.FindProcessedInSeries(ctx, *meeting.SeriesID, meeting.ID, a.siblingsLimit)
	if err != nil {
		return nil, err
	}

	seriesTitle := ""
	if series, err := a.seriesRepo.FindByID(ctx, *meeting.SeriesID); err == nil && series != nil {
		seriesTitle = series.Title
	}

	result := &ai.PreviousContext{
		PreviousMeetings:      make([]ai.PreviousMeeting, 0, len(siblings)),
		TotalPreviousMeetings: total,
		SeriesTitle:           seriesTitle,
	}

	for _, sibling := range siblings {
		extraction, err := a.extractionRepo.FindByMeetingID(ctx, sibling.ID)
		if err != nil {
			return nil, err
		}
		if extraction == nil {
			continue
		}

		prev := ai.PreviousMeeting{
			MeetingID: sibling.ID.String(),
			Title:     sibling.Title,
		}
		if sibling.ScheduledAt != nil {
			prev.Date = sibling.ScheduledAt.Format("2006-01-02")
		} else {
			prev.Date = sibling.CreatedAt.Format("2006-01-02")
		}
		for _, d := range extraction.Data.Decisions {
			prev.Decisions = append(prev.Decisions, ai.PreviousDecision{
				Topic:    d.Topic,
				Decision: d.Decision,
			})
		}
		for _, item := range extraction.Data.ActionItems {
			prev.ActionItems = append(prev.ActionItems, ai.PreviousActionItem{
				Description: item.Description,
				AssignedTo:  item.AssignedTo,
				Status:      "previous",
			})
		}
		result.PreviousMeetings = append(result.PreviousMeetings, prev)
	}

	return result, nil
}
