package processing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetingminutes/backend/internal/domain/entities"
	"github.com/meetingminutes/backend/pkg/config"
)

func TestReaperFailsStaleMeetings(t *testing.T) {
	meetingRepo := newFakeMeetingRepo()
	publisher := &capturePublisher{}

	stale := entities.NewMeeting("Crashed mid-run", uuid.New())
	stale.Status = entities.MeetingStatusProcessing
	stale.UpdatedAt = time.Now().Add(-2 * time.Hour)
	meetingRepo.put(stale)

	fresh := entities.NewMeeting("Still running", uuid.New())
	fresh.Status = entities.MeetingStatusProcessing
	fresh.UpdatedAt = time.Now()
	meetingRepo.put(fresh)

	reaper := NewReaper(meetingRepo, publisher, config.PipelineConfig{
		StaleAfterMin:     30,
		ReaperIntervalMin: 5,
	}, zap.NewNop())

	reaper.sweep(context.Background())

	staleStatus, _ := meetingRepo.GetStatus(context.Background(), stale.ID)
	if staleStatus != entities.MeetingStatusFailed {
		t.Fatalf("expected stale meeting FAILED, got %s", staleStatus)
	}
	freshStatus, _ := meetingRepo.GetStatus(context.Background(), fresh.ID)
	if freshStatus != entities.MeetingStatusProcessing {
		t.Fatalf("expected fresh meeting untouched, got %s", freshStatus)
	}

	events := publisher.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 error event, got %d", len(events))
	}
	if events[0].Type != EventError || events[0].MeetingID != stale.ID.String() {
		t.Fatalf("unexpected event %+v", events[0])
	}
}

func TestReaperSkipsMeetingThatFinished(t *testing.T) {
	meetingRepo := newFakeMeetingRepo()
	publisher := &capturePublisher{}

	// Listed as stale but already PROCESSED by the time the reaper
	// gets to it; the CAS must leave it alone.
	finished := entities.NewMeeting("Finished late", uuid.New())
	finished.Status = entities.MeetingStatusProcessed
	finished.UpdatedAt = time.Now().Add(-2 * time.Hour)
	meetingRepo.put(finished)

	reaper := NewReaper(meetingRepo, publisher, config.PipelineConfig{
		StaleAfterMin:     30,
		ReaperIntervalMin: 5,
	}, zap.NewNop())
	reaper.sweep(context.Background())

	status, _ := meetingRepo.GetStatus(context.Background(), finished.ID)
	if status != entities.MeetingStatusProcessed {
		t.Fatalf("expected PROCESSED preserved, got %s", status)
	}
	if len(publisher.all()) != 0 {
		t.Fatal("expected no events for a finished meeting")
	}
}
