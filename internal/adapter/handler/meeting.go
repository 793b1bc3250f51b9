package handler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/meetingminutes/backend/errors"
	meetingdto "github.com/meetingminutes/backend/internal/adapter/dto/meeting"
	"github.com/meetingminutes/backend/internal/adapter/presenter"
	"github.com/meetingminutes/backend/internal/domain/entities"
	"github.com/meetingminutes/backend/internal/domain/repositories"
	"github.com/meetingminutes/backend/internal/infrastructure/http/middleware"
	"github.com/meetingminutes/backend/internal/usecase/access"
	"github.com/meetingminutes/backend/internal/usecase/documents"
	"github.com/meetingminutes/backend/pkg/config"
)

// Meeting handles meeting CRUD, audio upload and document downloads
type Meeting struct {
	meetingRepo  repositories.MeetingRepository
	attendeeRepo repositories.AttendeeRepository
	documents    *documents.Service
	accessSvc    *access.Service
	pipeCfg      config.PipelineConfig
	logger       *zap.Logger
}

// NewMeeting creates a meeting handler
func NewMeeting(
	meetingRepo repositories.MeetingRepository,
	attendeeRepo repositories.AttendeeRepository,
	docs *documents.Service,
	accessSvc *access.Service,
	pipeCfg config.PipelineConfig,
	logger *zap.Logger,
) *Meeting {
	return &Meeting{
		meetingRepo:  meetingRepo,
		attendeeRepo: attendeeRepo,
		documents:    docs,
		accessSvc:    accessSvc,
		pipeCfg:      pipeCfg,
		logger:       logger,
	}
}

// Create creates a draft meeting with attendees and agenda
// POST /v1/meetings
func (h *Meeting) Create(c echo.Context) error {
	userID, ok := c.Get(middleware.UserIDContextKey).(uuid.UUID)
	if !ok {
		return HandleError(h.logger, c, apperrors.ErrUnauthenticated())
	}

	var req meetingdto.CreateMeetingRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidation("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	meeting := entities.NewMeeting(req.Title, userID)
	meeting.Description = req.Description
	meeting.Agenda = req.Agenda
	meeting.UsePreviousContext = req.UsePreviousContext
	for _, item := range req.AgendaItems {
		meeting.AgendaItems = append(meeting.AgendaItems, entities.AgendaItem{
			Title:             item.Title,
			Description:       item.Description,
			EstimatedDuration: item.EstimatedDuration,
		})
	}
	if req.SeriesID != nil {
		seriesID, err := uuid.Parse(*req.SeriesID)
		if err != nil {
			return HandleError(h.logger, c, apperrors.ErrValidation("invalid series id"))
		}
		meeting.SeriesID = &seriesID
	}
	if req.ScheduledAt != nil {
		scheduled, err := time.Parse(time.RFC3339, *req.ScheduledAt)
		if err != nil {
			return HandleError(h.logger, c, apperrors.ErrValidation("scheduled_at must be RFC3339"))
		}
		meeting.ScheduledAt = &scheduled
	}

	ctx := c.Request().Context()
	if err := h.meetingRepo.Create(ctx, meeting); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInternal(err))
	}

	attendees := make([]*entities.Attendee, 0, len(req.Attendees)+1)
	organizerToken := uuid.NewString()
	attendees = append(attendees, &entities.Attendee{
		ID:          uuid.New(),
		MeetingID:   meeting.ID,
		UserID:      &userID,
		Status:      entities.AttendeeStatusConfirmed,
		IsOrganizer: true,
		InviteToken: &organizerToken,
	})
	for _, a := range req.Attendees {
		attendee := &entities.Attendee{
			ID:        uuid.New(),
			MeetingID: meeting.ID,
			Status:    entities.AttendeeStatusInvited,
		}
		token := uuid.NewString()
		attendee.InviteToken = &token
		switch {
		case a.UserID != nil:
			id, err := uuid.Parse(*a.UserID)
			if err != nil {
				return HandleError(h.logger, c, apperrors.ErrValidation("invalid attendee user id"))
			}
			attendee.UserID = &id
		case a.Email != nil:
			attendee.InviteEmail = a.Email
		default:
			return HandleError(h.logger, c, apperrors.ErrValidation("attendee needs user_id or email"))
		}
		attendees = append(attendees, attendee)
	}
	if err := h.attendeeRepo.CreateBatch(ctx, attendees); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInternal(err))
	}

	return HandleSuccess(h.logger, c, meeting)
}

// Get returns a meeting the caller may access
// GET /v1/meetings/:id
func (h *Meeting) Get(c echo.Context) error {
	meeting, _, err := h.load(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, meeting)
}

// UploadAudio attaches an audio file to a draft meeting
// POST /v1/meetings/:id/audio
func (h *Meeting) UploadAudio(c echo.Context) error {
	meeting, userID, err := h.load(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if !meeting.IsOwnedBy(userID) {
		return HandleError(h.logger, c, apperrors.ErrMeetingAccessDenied(meeting.ID.String()))
	}
	if !meeting.CanStartProcessing() {
		return HandleError(h.logger, c, apperrors.ErrNotReady(meeting.ID.String(), string(meeting.Status)))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidation("missing file"))
	}
	if fileHeader.Size > h.pipeCfg.MaxAudioBytes {
		return HandleError(h.logger, c, apperrors.ErrValidation(
			fmt.Sprintf("audio exceeds limit of %d bytes", h.pipeCfg.MaxAudioBytes)))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInternal(err))
	}
	defer src.Close()

	if err := os.MkdirAll(h.pipeCfg.TempUploadDir, 0o755); err != nil {
		return HandleError(h.logger, c, apperrors.ErrStorageFailed("create upload dir", err))
	}
	ext := filepath.Ext(fileHeader.Filename)
	audioPath := filepath.Join(h.pipeCfg.TempUploadDir, meeting.ID.String()+ext)

	dst, err := os.Create(audioPath)
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrStorageFailed("create audio file", err))
	}
	defer dst.Close()
	written, err := io.Copy(dst, src)
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrStorageFailed("write audio file", err))
	}

	meeting.AudioFilePath = &audioPath
	if err := h.meetingRepo.Update(c.Request().Context(), meeting); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInternal(err))
	}

	return HandleSuccess(h.logger, c, meetingdto.UploadAudioResponse{
		MeetingID: meeting.ID.String(),
		FileName:  fileHeader.Filename,
		SizeBytes: written,
	})
}

// Documents lists generated minutes metadata for a meeting
// GET /v1/meetings/:id/documents
func (h *Meeting) Documents(c echo.Context) error {
	meeting, _, err := h.load(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	docs, err := h.documents.List(c.Request().Context(), meeting.ID)
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInternal(err))
	}

	return HandleSuccess(h.logger, c, presenter.ToDocumentResponses(docs))
}

// LatestDocument returns a download URL for the newest minutes
// GET /v1/meetings/:id/documents/latest
func (h *Meeting) LatestDocument(c echo.Context) error {
	meeting, _, err := h.load(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	url, err := h.documents.URLForLatest(c.Request().Context(), meeting.ID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if url == "" {
		return HandleError(h.logger, c, apperrors.ErrNotFound("Generated document"))
	}
	return HandleSuccess(h.logger, c, map[string]string{"url": url})
}

// load resolves the meeting and enforces the access gate
func (h *Meeting) load(c echo.Context) (*entities.Meeting, uuid.UUID, error) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, uuid.Nil, apperrors.ErrValidation("invalid meeting id")
	}
	userID, ok := c.Get(middleware.UserIDContextKey).(uuid.UUID)
	if !ok {
		return nil, uuid.Nil, apperrors.ErrUnauthenticated()
	}

	ctx := c.Request().Context()
	meeting, err := h.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		return nil, uuid.Nil, apperrors.ErrInternal(err)
	}
	if meeting == nil {
		return nil, uuid.Nil, apperrors.ErrMeetingNotFound(meetingID.String())
	}

	allowed, err := h.accessSvc.HasAccess(ctx, userID, meeting)
	if err != nil {
		return nil, uuid.Nil, apperrors.ErrInternal(err)
	}
	if !allowed {
		return nil, uuid.Nil, apperrors.ErrMeetingAccessDenied(meetingID.String())
	}
	return meeting, userID, nil
}
