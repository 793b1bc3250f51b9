package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/meetingminutes/backend/errors"
	"github.com/meetingminutes/backend/internal/domain/repositories"
	"github.com/meetingminutes/backend/internal/infrastructure/http/middleware"
	"github.com/meetingminutes/backend/internal/usecase/access"
	"github.com/meetingminutes/backend/internal/usecase/processing"
)

// Processing exposes the meeting processing pipeline over HTTP
type Processing struct {
	service     *processing.Service
	statusQuery *processing.StatusQuery
	accessSvc   *access.Service
	meetingRepo repositories.MeetingRepository
	logger      *zap.Logger
}

// NewProcessing creates a processing handler
func NewProcessing(
	service *processing.Service,
	statusQuery *processing.StatusQuery,
	accessSvc *access.Service,
	meetingRepo repositories.MeetingRepository,
	logger *zap.Logger,
) *Processing {
	return &Processing{
		service:     service,
		statusQuery: statusQuery,
		accessSvc:   accessSvc,
		meetingRepo: meetingRepo,
		logger:      logger,
	}
}

// Start kicks off the pipeline for a meeting
// POST /v1/meetings/:id/process
func (h *Processing) Start(c echo.Context) error {
	meetingID, userID, err := h.ids(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.service.Start(c.Request().Context(), meetingID, userID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, result)
}

// Cancel stops a running pipeline
// POST /v1/meetings/:id/process/cancel
func (h *Processing) Cancel(c echo.Context) error {
	meetingID, userID, err := h.ids(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.service.Cancel(c.Request().Context(), meetingID, userID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]interface{}{
		"meetingId": meetingID.String(),
		"cancelled": true,
	})
}

// Retry re-runs the pipeline for a failed meeting
// POST /v1/meetings/:id/process/retry
func (h *Processing) Retry(c echo.Context) error {
	meetingID, userID, err := h.ids(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.service.Retry(c.Request().Context(), meetingID, userID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, result)
}

// Status reports pipeline state derived from persisted artifacts
// GET /v1/meetings/:id/processing-status
func (h *Processing) Status(c echo.Context) error {
	meetingID, userID, err := h.ids(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.guard(c, meetingID, userID); err != nil {
		return HandleError(h.logger, c, err)
	}

	status, err := h.statusQuery.Get(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, status)
}

// guard enforces the access gate for meeting-scoped reads
func (h *Processing) guard(c echo.Context, meetingID, userID uuid.UUID) error {
	ctx := c.Request().Context()
	meeting, err := h.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		return apperrors.ErrInternal(err)
	}
	if meeting == nil {
		return apperrors.ErrMeetingNotFound(meetingID.String())
	}
	allowed, err := h.accessSvc.HasAccess(ctx, userID, meeting)
	if err != nil {
		return apperrors.ErrInternal(err)
	}
	if !allowed {
		return apperrors.ErrMeetingAccessDenied(meetingID.String())
	}
	return nil
}

func (h *Processing) ids(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, apperrors.ErrValidation("invalid meeting id")
	}
	userID, ok := c.Get(middleware.UserIDContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, uuid.Nil, apperrors.ErrUnauthenticated()
	}
	return meetingID, userID, nil
}
