package processing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	apperrors "github.com/meetingminutes/backend/errors"
	"github.com/meetingminutes/backend/internal/domain/entities"
	"github.com/meetingminutes/backend/internal/domain/repositories"
	"github.com/meetingminutes/backend/pkg/ai"
	"github.com/meetingminutes/backend/pkg/config"
)

// AIClient is the slice of the external AI service the pipeline uses
type AIClient interface {
	Transcribe(ctx context.Context, audioPath string, meetingID string) (*ai.TranscriptionResult, error)
	Extract(ctx context.Context, request *ai.ExtractionRequest) (*ai.ExtractionResult, error)
}

// DocumentGenerator renders and stores minutes documents
type DocumentGenerator interface {
	Generate(ctx context.Context, meeting *entities.Meeting, extraction *entities.Extraction, organizer *entities.User) ([]*entities.GeneratedDocument, error)
	URLForLatest(ctx context.Context, meetingID uuid.UUID) (string, error)
}

// Notifier tells the organizer their minutes are ready. Calls are
// fire-and-forget; failures never fail the pipeline.
type Notifier interface {
	NotifyProcessingComplete(ctx context.Context, user *entities.User, meeting *entities.Meeting)
}

// StartResult is returned to the caller that kicked off processing
type StartResult struct {
	Success              bool   `json:"success"`
	MeetingID            string `json:"meetingId"`
	ProcessingStarted    bool   `json:"processingStarted"`
	EstimatedTimeMinutes int    `json:"estimatedTimeMinutes"`
}

// minTranscriptChars is the length below which a transcript is logged
// as suspicious. Shorter transcripts still proceed; only an empty one
// fails the stage.
const minTranscriptChars = 10

// errCancelledByStatus signals that a stage-entry check found the
// meeting no longer in PROCESSING. The cancel path already moved the
// meeting to FAILED, so the pipeline just stops quietly.
var errCancelledByStatus = errors.New("processing cancelled by status change")

// Service drives meetings through the processing pipeline: transcribe,
// extract, materialize action items, render minutes, finalize.
// Pipelines run parallel across meetings and sequential within one.
type Service struct {
	meetingRepo    repositories.MeetingRepository
	transcriptRepo repositories.TranscriptRepository
	extractionRepo repositories.ExtractionRepository
	userRepo       repositories.UserRepository

	aiClient  AIClient
	assembler *ContextAssembler
	material  *Materializer
	documents DocumentGenerator
	publisher Publisher
	notifier  Notifier

	logger *zap.Logger

	workers  chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewService creates the pipeline orchestrator
func NewService(
	meetingRepo repositories.MeetingRepository,
	transcriptRepo repositories.TranscriptRepository,
	extractionRepo repositories.ExtractionRepository,
	userRepo repositories.UserRepository,
	aiClient AIClient,
	assembler *ContextAssembler,
	material *Materializer,
	documents DocumentGenerator,
	publisher Publisher,
	notifier Notifier,
	cfg config.PipelineConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		meetingRepo:    meetingRepo,
		transcriptRepo: transcriptRepo,
		extractionRepo: extractionRepo,
		userRepo:       userRepo,
		aiClient:       aiClient,
		assembler:      assembler,
		material:       material,
		documents:      documents,
		publisher:      publisher,
		notifier:       notifier,
		logger:         logger,
		workers:        make(chan struct{}, cfg.WorkerPoolSize),
		stopChan:       make(chan struct{}),
	}
}

// Start validates preconditions, claims the meeting and schedules the
// pipeline on the worker pool. Validation failures surface here;
// pipeline failures surface through the progress topic and status query.
func (s *Service) Start(ctx context.Context, meetingID, userID uuid.UUID) (*StartResult, error) {
	meeting, err := s.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}
	if meeting == nil {
		return nil, apperrors.ErrMeetingNotFound(meetingID.String())
	}
	if !meeting.IsOwnedBy(userID) {
		return nil, apperrors.ErrMeetingAccessDenied(meetingID.String())
	}
	if !meeting.HasAudio() {
		return nil, apperrors.ErrNoAudio(meetingID.String())
	}

	claimed, err := s.meetingRepo.ClaimForProcessing(ctx, meetingID, time.Now())
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}
	if !claimed {
		// Lost the race or wrong state; the current status decides which
		status, err := s.meetingRepo.GetStatus(ctx, meetingID)
		if err != nil {
			return nil, apperrors.ErrInternal(err)
		}
		if status == entities.MeetingStatusProcessing {
			return nil, apperrors.ErrAlreadyRunning(meetingID.String())
		}
		return nil, apperrors.ErrNotReady(meetingID.String(), string(status))
	}

	s.schedule(meetingID)

	return &StartResult{
		Success:              true,
		MeetingID:            meetingID.String(),
		ProcessingStarted:    true,
		EstimatedTimeMinutes: 5,
	}, nil
}

// Retry re-runs the pipeline for a FAILED meeting. Artifact upserts
// make the re-run idempotent.
func (s *Service) Retry(ctx context.Context, meetingID, userID uuid.UUID) (*StartResult, error) {
	meeting, err := s.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}
	if meeting == nil {
		return nil, apperrors.ErrMeetingNotFound(meetingID.String())
	}
	if meeting.Status != entities.MeetingStatusFailed {
		return nil, apperrors.ErrNotReady(meetingID.String(), string(meeting.Status))
	}
	return s.Start(ctx, meetingID, userID)
}

// Cancel flips a PROCESSING meeting to FAILED. In-flight AI calls are
// not interrupted; the pipeline notices at its next stage-entry check.
func (s *Service) Cancel(ctx context.Context, meetingID, userID uuid.UUID) error {
	meeting, err := s.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		return apperrors.ErrInternal(err)
	}
	if meeting == nil {
		return apperrors.ErrMeetingNotFound(meetingID.String())
	}
	if !meeting.IsOwnedBy(userID) {
		return apperrors.ErrMeetingAccessDenied(meetingID.String())
	}

	cancelled, err := s.meetingRepo.CancelProcessing(ctx, meetingID, time.Now())
	if err != nil {
		return apperrors.ErrInternal(err)
	}
	if !cancelled {
		return apperrors.ErrNotProcessing(meetingID.String())
	}

	s.logger.Info("processing cancelled", zap.String("meeting_id", meetingID.String()))
	return nil
}

// Stop waits for running pipelines to finish
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Service) schedule(meetingID uuid.UUID) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case s.workers <- struct{}{}:
			defer func() { <-s.workers }()
		case <-s.stopChan:
			return
		}

		// Cancellation is cooperative via the persisted status, so the
		// pipeline runs on a fresh context rather than the request's
		s.runPipeline(context.Background(), meetingID)
	}()
}

func (s *Service) runPipeline(ctx context.Context, meetingID uuid.UUID) {
	logger := s.logger.With(zap.String("meeting_id", meetingID.String()))
	logger.Info("pipeline started")

	meeting, err := s.meetingRepo.FindByID(ctx, meetingID)
	if err != nil || meeting == nil {
		logger.Error("pipeline could not load meeting", zap.Error(err))
		return
	}

	if err := s.runStages(ctx, meeting, logger); err != nil {
		if errors.Is(err, errCancelledByStatus) {
			logger.Info("pipeline stopped after cancellation")
			s.cleanupAudio(ctx, meeting, logger)
			return
		}
		s.fail(ctx, meeting, err, logger)
		return
	}
}

func (s *Service) runStages(ctx context.Context, meeting *entities.Meeting, logger *zap.Logger) error {
	// Prepare
	s.publish(ctx, meeting.ID, updateEvent(meeting.ID, 10, "PREPARING", "Preparing audio for processing"))
	if _, err := os.Stat(*meeting.AudioFilePath); err != nil {
		return stageError("PREPARING", fmt.Errorf("audio file not readable: %w", err))
	}

	// Transcribe
	if err := s.checkActive(ctx, meeting.ID); err != nil {
		return err
	}
	s.publish(ctx, meeting.ID, updateEvent(meeting.ID, 25, "TRANSCRIBING", "Transcribing audio"))
	transcription, err := s.aiClient.Transcribe(ctx, *meeting.AudioFilePath, meeting.ID.String())
	if err != nil {
		return stageError("TRANSCRIBING", err)
	}
	if strings.TrimSpace(transcription.RawText) == "" {
		return stageError("TRANSCRIBING", fmt.Errorf("transcription produced no text"))
	}
	if len(transcription.RawText) < minTranscriptChars {
		logger.Warn("transcript is suspiciously short",
			zap.Int("length", len(transcription.RawText)))
	}
	transcript := entities.NewTranscript(meeting.ID, transcription.RawText)
	transcript.WordTimestamps = datatypes.NewJSONSlice(transcription.WordTimestamps)
	transcript.Language = transcription.Language
	transcript.ConfidenceScore = transcription.ConfidenceScore
	transcript.AudioDurationSec = transcription.AudioDuration
	transcript.ProcessingTimeMs = int64(transcription.ProcessingTime * 1000)
	transcript.DeviceUsed = transcription.DeviceUsed
	if err := s.transcriptRepo.Upsert(ctx, transcript); err != nil {
		return stageError("TRANSCRIBING", err)
	}

	// Extract
	if err := s.checkActive(ctx, meeting.ID); err != nil {
		return err
	}
	s.publish(ctx, meeting.ID, updateEvent(meeting.ID, 50, "EXTRACTING", "Extracting decisions and action items"))
	previousContext, err := s.assembler.Assemble(ctx, meeting)
	if err != nil {
		return stageError("EXTRACTING", err)
	}
	extractionResult, err := s.aiClient.Extract(ctx, &ai.ExtractionRequest{
		TranscriptText:  transcription.RawText,
		MeetingID:       meeting.ID.String(),
		AgendaItems:     []entities.AgendaItem(meeting.AgendaItems),
		PreviousContext: previousContext,
	})
	if err != nil {
		return stageError("EXTRACTING", err)
	}
	extraction := entities.NewExtraction(meeting.ID, extractionResult.ExtractedData)
	extraction.ModelVersion = extractionResult.ModelVersion
	extraction.ConfidenceScore = extractionResult.ConfidenceScore
	extraction.ProcessingTimeMs = int64(extractionResult.ProcessingTime * 1000)
	if err := s.extractionRepo.Upsert(ctx, extraction); err != nil {
		return stageError("EXTRACTING", err)
	}

	// Materialize action items
	if err := s.checkActive(ctx, meeting.ID); err != nil {
		return err
	}
	s.publish(ctx, meeting.ID, updateEvent(meeting.ID, 75, "CREATING_TASKS", "Creating action items"))
	actionItemCount, err := s.material.Materialize(ctx, meeting, extraction.Data.ActionItems)
	if err != nil {
		return stageError("CREATING_TASKS", err)
	}

	// Render minutes
	if err := s.checkActive(ctx, meeting.ID); err != nil {
		return err
	}
	s.publish(ctx, meeting.ID, updateEvent(meeting.ID, 90, "GENERATING_DOCUMENTS", "Generating meeting minutes"))
	organizer, err := s.userRepo.FindByID(ctx, meeting.OrganizerID)
	if err != nil {
		return stageError("GENERATING_DOCUMENTS", err)
	}
	if _, err := s.documents.Generate(ctx, meeting, extraction, organizer); err != nil {
		return stageError("GENERATING_DOCUMENTS", err)
	}

	// Finalize
	if err := s.checkActive(ctx, meeting.ID); err != nil {
		return err
	}
	if err := s.meetingRepo.MarkProcessed(ctx, meeting.ID, time.Now()); err != nil {
		return stageError("FINALIZING", err)
	}

	documentURL, err := s.documents.URLForLatest(ctx, meeting.ID)
	if err != nil {
		logger.Warn("could not resolve document URL for completion event", zap.Error(err))
	}
	s.publish(ctx, meeting.ID, completeEvent(meeting.ID, documentURL, actionItemCount))

	if organizer != nil {
		s.notifier.NotifyProcessingComplete(ctx, organizer, meeting)
	}

	s.cleanupAudio(ctx, meeting, logger)
	logger.Info("pipeline completed", zap.Int64("action_items", actionItemCount))
	return nil
}

// checkActive enforces cooperative cancellation at stage boundaries
func (s *Service) checkActive(ctx context.Context, meetingID uuid.UUID) error {
	status, err := s.meetingRepo.GetStatus(ctx, meetingID)
	if err != nil {
		return err
	}
	if status != entities.MeetingStatusProcessing {
		return errCancelledByStatus
	}
	return nil
}

func (s *Service) fail(ctx context.Context, meeting *entities.Meeting, err error, logger *zap.Logger) {
	stage, message := "PIPELINE", err.Error()
	var se *stageErr
	if errors.As(err, &se) {
		stage, message = se.stage, se.err.Error()
	}

	logger.Error("pipeline failed",
		zap.String("stage", stage),
		zap.Error(err))

	if markErr := s.meetingRepo.MarkFailed(ctx, meeting.ID, time.Now()); markErr != nil {
		logger.Error("could not mark meeting failed", zap.Error(markErr))
	}

	event := errorEvent(meeting.ID, message)
	event.CurrentStep = stage
	s.publish(ctx, meeting.ID, event)

	// Partial artifacts stay put; a retry upserts over them
	s.cleanupAudio(ctx, meeting, logger)
}

// cleanupAudio removes the temp audio file on both success and failure
func (s *Service) cleanupAudio(ctx context.Context, meeting *entities.Meeting, logger *zap.Logger) {
	if !meeting.HasAudio() {
		return
	}
	if err := os.Remove(*meeting.AudioFilePath); err != nil && !os.IsNotExist(err) {
		logger.Warn("could not remove temp audio", zap.Error(err))
		return
	}
	if err := s.meetingRepo.ClearAudioPath(ctx, meeting.ID); err != nil {
		logger.Warn("could not clear audio path", zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, meetingID uuid.UUID, event Event) {
	if err := s.publisher.Publish(ctx, meetingID, event); err != nil {
		s.logger.Warn("progress publish failed",
			zap.String("meeting_id", meetingID.String()),
			zap.String("event", string(event.Type)),
			zap.Error(err))
	}
}

// stageErr carries the stage name a pipeline error happened in
type stageErr struct {
	stage string
	err   error
}

func stageError(stage string, err error) error {
	return &stageErr{stage: stage, err: err}
}

func (e *stageErr) Error() string {
	return fmt.Sprintf("stage %s: %v", e.stage, e.err)
}

func (e *stageErr) Unwrap() error {
	return e.err
}
