package processing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/meetingminutes/backend/errors"
	"github.com/meetingminutes/backend/internal/domain/entities"
	"github.com/meetingminutes/backend/pkg/ai"
	"github.com/meetingminutes/backend/pkg/config"
)

type pipelineFixture struct {
	svc            *Service
	meetingRepo    *fakeMeetingRepo
	transcriptRepo *fakeTranscriptRepo
	extractionRepo *fakeExtractionRepo
	actionItemRepo *fakeActionItemRepo
	documentRepo   *fakeDocumentRepo
	userRepo       *fakeUserRepo
	seriesRepo     *fakeSeriesRepo
	aiClient       *fakeAI
	docs           *fakeDocs
	publisher      *capturePublisher
	notifier       *nopNotifier
}

func newPipelineFixture(t *testing.T, users ...*entities.User) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		meetingRepo:    newFakeMeetingRepo(),
		transcriptRepo: newFakeTranscriptRepo(),
		extractionRepo: newFakeExtractionRepo(),
		actionItemRepo: newFakeActionItemRepo(),
		documentRepo:   newFakeDocumentRepo(),
		userRepo:       newFakeUserRepo(users...),
		seriesRepo:     newFakeSeriesRepo(),
		aiClient:       newFakeAI(),
		docs:           &fakeDocs{url: "https://storage.local/minutes.pdf"},
		publisher:      &capturePublisher{},
		notifier:       &nopNotifier{},
	}

	logger := zap.NewNop()
	resolver := NewAssigneeResolver(f.userRepo)
	assembler := NewContextAssembler(f.meetingRepo, f.seriesRepo, f.extractionRepo, 3)
	material := NewMaterializer(f.actionItemRepo, resolver, logger)

	f.svc = NewService(
		f.meetingRepo,
		f.transcriptRepo,
		f.extractionRepo,
		f.userRepo,
		f.aiClient,
		assembler,
		material,
		f.docs,
		f.publisher,
		f.notifier,
		config.PipelineConfig{WorkerPoolSize: 2},
		logger,
	)
	return f
}

func (f *pipelineFixture) newMeetingWithAudio(t *testing.T, owner uuid.UUID) *entities.Meeting {
	t.Helper()
	audioPath := filepath.Join(t.TempDir(), "recording.wav")
	if err := os.WriteFile(audioPath, []byte("fake audio"), 0o600); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	meeting := entities.NewMeeting("Weekly sync", owner)
	meeting.AudioFilePath = &audioPath
	f.meetingRepo.put(meeting)
	return meeting
}

func appCode(t *testing.T, err error) apperrors.ErrorCode {
	t.Helper()
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	return appErr.Code
}

func TestStartRunsPipelineToCompletion(t *testing.T) {
	owner := entities.NewUser("owner@example.com", "Owner")
	f := newPipelineFixture(t, owner)
	meeting := f.newMeetingWithAudio(t, owner.ID)
	audioPath := *meeting.AudioFilePath

	result, err := f.svc.Start(context.Background(), meeting.ID, owner.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !result.ProcessingStarted || result.EstimatedTimeMinutes != 5 {
		t.Fatalf("unexpected start result: %+v", result)
	}

	f.svc.Stop()

	got, _ := f.meetingRepo.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusProcessed {
		t.Fatalf("expected PROCESSED, got %s", got.Status)
	}
	if got.ActualEndTime == nil {
		t.Fatal("expected actual end time to be stamped")
	}
	if got.AudioFilePath != nil {
		t.Fatal("expected audio path cleared after completion")
	}
	if _, err := os.Stat(audioPath); !os.IsNotExist(err) {
		t.Fatalf("expected temp audio removed, stat err: %v", err)
	}

	transcript, _ := f.transcriptRepo.FindByMeetingID(context.Background(), meeting.ID)
	if transcript == nil || transcript.RawText == "" {
		t.Fatal("expected transcript persisted")
	}
	extraction, _ := f.extractionRepo.FindByMeetingID(context.Background(), meeting.ID)
	if extraction == nil || len(extraction.Data.Decisions) != 1 {
		t.Fatal("expected extraction persisted")
	}
	items, _ := f.actionItemRepo.ListByMeetingID(context.Background(), meeting.ID)
	if len(items) != 1 {
		t.Fatalf("expected 1 action item, got %d", len(items))
	}

	events := f.publisher.all()
	wantProgress := []int{10, 25, 50, 75, 90, 100}
	if len(events) != len(wantProgress) {
		t.Fatalf("expected %d events, got %d", len(wantProgress), len(events))
	}
	for i, p := range wantProgress {
		if events[i].Progress != p {
			t.Fatalf("event %d: expected progress %d, got %d", i, p, events[i].Progress)
		}
	}
	last := events[len(events)-1]
	if last.Type != EventComplete {
		t.Fatalf("expected final %s, got %s", EventComplete, last.Type)
	}
	if last.DocumentURL != "https://storage.local/minutes.pdf" {
		t.Fatalf("unexpected document url %q", last.DocumentURL)
	}
	if last.ActionItemsCreated != 1 {
		t.Fatalf("expected 1 action item in completion event, got %d", last.ActionItemsCreated)
	}

	if f.notifier.calls != 1 {
		t.Fatalf("expected 1 notification, got %d", f.notifier.calls)
	}
}

func TestStartRejectsWhenAlreadyProcessing(t *testing.T) {
	owner := entities.NewUser("owner@example.com", "Owner")
	f := newPipelineFixture(t, owner)
	meeting := f.newMeetingWithAudio(t, owner.ID)
	meeting.Status = entities.MeetingStatusProcessing
	f.meetingRepo.put(meeting)

	_, err := f.svc.Start(context.Background(), meeting.ID, owner.ID)
	if code := appCode(t, err); code != apperrors.ErrorCode_ALREADY_RUNNING {
		t.Fatalf("expected ALREADY_RUNNING, got %s", code)
	}
}

func TestStartRequiresAudio(t *testing.T) {
	owner := entities.NewUser("owner@example.com", "Owner")
	f := newPipelineFixture(t, owner)
	meeting := entities.NewMeeting("No audio yet", owner.ID)
	f.meetingRepo.put(meeting)

	_, err := f.svc.Start(context.Background(), meeting.ID, owner.ID)
	if code := appCode(t, err); code != apperrors.ErrorCode_VALIDATION {
		t.Fatalf("expected VALIDATION for missing audio, got %s", code)
	}
}

func TestStartDeniedForNonOwner(t *testing.T) {
	owner := entities.NewUser("owner@example.com", "Owner")
	f := newPipelineFixture(t, owner)
	meeting := f.newMeetingWithAudio(t, owner.ID)

	_, err := f.svc.Start(context.Background(), meeting.ID, uuid.New())
	if code := appCode(t, err); code != apperrors.ErrorCode_ACCESS_DENIED {
		t.Fatalf("expected ACCESS_DENIED, got %s", code)
	}
}

func TestCancelStopsPipelineWithoutErrorEvent(t *testing.T) {
	owner := entities.NewUser("owner@example.com", "Owner")
	f := newPipelineFixture(t, owner)
	meeting := f.newMeetingWithAudio(t, owner.ID)
	audioPath := *meeting.AudioFilePath

	// Cancel while transcription is in flight; the pipeline notices at
	// the next stage boundary.
	cancelled := make(chan struct{})
	f.aiClient.onTranscribe = func() {
		if err := f.svc.Cancel(context.Background(), meeting.ID, owner.ID); err != nil {
			t.Errorf("cancel: %v", err)
		}
		close(cancelled)
	}

	if _, err := f.svc.Start(context.Background(), meeting.ID, owner.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-cancelled
	f.svc.Stop()

	got, _ := f.meetingRepo.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusFailed {
		t.Fatalf("expected FAILED after cancel, got %s", got.Status)
	}
	if got.ActualEndTime == nil {
		t.Fatal("expected actual end time stamped on cancel")
	}
	if _, err := os.Stat(audioPath); !os.IsNotExist(err) {
		t.Fatalf("expected temp audio removed after cancel, stat err: %v", err)
	}

	for _, event := range f.publisher.all() {
		if event.Type == EventError {
			t.Fatal("explicit cancel must not publish an error event")
		}
	}
}

func TestCancelWhenNotProcessing(t *testing.T) {
	owner := entities.NewUser("owner@example.com", "Owner")
	f := newPipelineFixture(t, owner)
	meeting := entities.NewMeeting("Draft", owner.ID)
	f.meetingRepo.put(meeting)

	err := f.svc.Cancel(context.Background(), meeting.ID, owner.ID)
	if code := appCode(t, err); code != apperrors.ErrorCode_NOT_READY {
		t.Fatalf("expected NOT_READY conflict, got %s", code)
	}
}

func TestExtractionFailureMarksFailedAndKeepsTranscript(t *testing.T) {
	owner := entities.NewUser("owner@example.com", "Owner")
	f := newPipelineFixture(t, owner)
	meeting := f.newMeetingWithAudio(t, owner.ID)
	audioPath := *meeting.AudioFilePath
	f.aiClient.extractErr = errors.New("service unavailable after retries")

	if _, err := f.svc.Start(context.Background(), meeting.ID, owner.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.svc.Stop()

	got, _ := f.meetingRepo.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusFailed {
		t.Fatalf("expected FAILED, got %s", got.Status)
	}

	// Partial artifacts survive for the retry to upsert over
	transcript, _ := f.transcriptRepo.FindByMeetingID(context.Background(), meeting.ID)
	if transcript == nil {
		t.Fatal("expected transcript retained after failure")
	}
	if _, err := os.Stat(audioPath); !os.IsNotExist(err) {
		t.Fatalf("expected temp audio removed after failure, stat err: %v", err)
	}

	events := f.publisher.all()
	last := events[len(events)-1]
	if last.Type != EventError {
		t.Fatalf("expected error event, got %s", last.Type)
	}
	if last.CurrentStep != "EXTRACTING" {
		t.Fatalf("expected failure attributed to EXTRACTING, got %q", last.CurrentStep)
	}
}

func TestEmptyTranscriptFailsPipeline(t *testing.T) {
	owner := entities.NewUser("owner@example.com", "Owner")
	f := newPipelineFixture(t, owner)
	meeting := f.newMeetingWithAudio(t, owner.ID)
	f.aiClient.transcription = &ai.TranscriptionResult{
		Success:  true,
		RawText:  "   ",
		Language: "en",
	}

	if _, err := f.svc.Start(context.Background(), meeting.ID, owner.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.svc.Stop()

	got, _ := f.meetingRepo.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusFailed {
		t.Fatalf("expected FAILED on empty transcript, got %s", got.Status)
	}
	if transcript, _ := f.transcriptRepo.FindByMeetingID(context.Background(), meeting.ID); transcript != nil {
		t.Fatal("expected no transcript persisted for empty transcription")
	}

	events := f.publisher.all()
	last := events[len(events)-1]
	if last.Type != EventError {
		t.Fatalf("expected error event, got %s", last.Type)
	}
	if last.CurrentStep != "TRANSCRIBING" {
		t.Fatalf("expected failure attributed to TRANSCRIBING, got %q", last.CurrentStep)
	}
}

func TestShortTranscriptStillProcesses(t *testing.T) {
	owner := entities.NewUser("owner@example.com", "Owner")
	f := newPipelineFixture(t, owner)
	meeting := f.newMeetingWithAudio(t, owner.ID)
	f.aiClient.transcription = &ai.TranscriptionResult{
		Success:  true,
		RawText:  "Ship it.",
		Language: "en",
	}

	if _, err := f.svc.Start(context.Background(), meeting.ID, owner.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.svc.Stop()

	got, _ := f.meetingRepo.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusProcessed {
		t.Fatalf("expected short transcript to process, got %s", got.Status)
	}
	transcript, _ := f.transcriptRepo.FindByMeetingID(context.Background(), meeting.ID)
	if transcript == nil || transcript.RawText != "Ship it." {
		t.Fatalf("expected short transcript persisted, got %+v", transcript)
	}
}

func TestRetryRequiresFailedStatus(t *testing.T) {
	owner := entities.NewUser("owner@example.com", "Owner")
	f := newPipelineFixture(t, owner)
	meeting := f.newMeetingWithAudio(t, owner.ID)

	_, err := f.svc.Retry(context.Background(), meeting.ID, owner.ID)
	if code := appCode(t, err); code != apperrors.ErrorCode_NOT_READY {
		t.Fatalf("expected NOT_READY for DRAFT retry, got %s", code)
	}
}

func TestRetryAfterFailureSucceeds(t *testing.T) {
	owner := entities.NewUser("owner@example.com", "Owner")
	f := newPipelineFixture(t, owner)
	meeting := f.newMeetingWithAudio(t, owner.ID)
	f.aiClient.extractErr = errors.New("transient outage")

	if _, err := f.svc.Start(context.Background(), meeting.ID, owner.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.svc.Stop()

	got, _ := f.meetingRepo.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusFailed {
		t.Fatalf("expected FAILED before retry, got %s", got.Status)
	}

	// Audio was cleaned up with the failure, so re-upload before retry
	audioPath := filepath.Join(t.TempDir(), "recording-2.wav")
	if err := os.WriteFile(audioPath, []byte("fake audio"), 0o600); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	got.AudioFilePath = &audioPath
	f.meetingRepo.put(got)

	f.aiClient.mu.Lock()
	f.aiClient.extractErr = nil
	f.aiClient.mu.Unlock()

	// The service was stopped above, so retry on a fresh instance
	// sharing the same stores, the way a restarted process would.
	retrySvc := NewService(
		f.meetingRepo, f.transcriptRepo, f.extractionRepo, f.userRepo,
		f.aiClient,
		NewContextAssembler(f.meetingRepo, f.seriesRepo, f.extractionRepo, 3),
		NewMaterializer(f.actionItemRepo, NewAssigneeResolver(f.userRepo), zap.NewNop()),
		f.docs, f.publisher, f.notifier,
		config.PipelineConfig{WorkerPoolSize: 2}, zap.NewNop(),
	)

	if _, err := retrySvc.Retry(context.Background(), meeting.ID, owner.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	retrySvc.Stop()

	final, _ := f.meetingRepo.FindByID(context.Background(), meeting.ID)
	if final.Status != entities.MeetingStatusProcessed {
		t.Fatalf("expected PROCESSED after retry, got %s", final.Status)
	}

	// Upserts keep single rows per meeting
	transcript, _ := f.transcriptRepo.FindByMeetingID(context.Background(), meeting.ID)
	if transcript == nil {
		t.Fatal("expected transcript after retry")
	}
	if f.aiClient.transcribeCalls != 2 {
		t.Fatalf("expected 2 transcribe calls across runs, got %d", f.aiClient.transcribeCalls)
	}
}

func TestStopWaitsForRunningPipelines(t *testing.T) {
	owner := entities.NewUser("owner@example.com", "Owner")
	f := newPipelineFixture(t, owner)
	meeting := f.newMeetingWithAudio(t, owner.ID)

	release := make(chan struct{})
	f.aiClient.onTranscribe = func() { <-release }

	if _, err := f.svc.Start(context.Background(), meeting.ID, owner.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		f.svc.Stop()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("stop returned while a pipeline was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return after pipeline finished")
	}

	got, _ := f.meetingRepo.FindByID(context.Background(), meeting.ID)
	if got.Status != entities.MeetingStatusProcessed {
		t.Fatalf("expected PROCESSED, got %s", got.Status)
	}
}
