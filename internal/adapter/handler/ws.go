package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/meetingminutes/backend/errors"
	"github.com/meetingminutes/backend/internal/domain/repositories"
	"github.com/meetingminutes/backend/internal/infrastructure/http/middleware"
	"github.com/meetingminutes/backend/internal/infrastructure/pubsub"
	"github.com/meetingminutes/backend/internal/usecase/access"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

// ProgressWS streams pipeline progress events to WebSocket clients.
// Events arrive over the Redis topic, so clients may connect to any
// API instance.
type ProgressWS struct {
	bus         *pubsub.RedisBus
	accessSvc   *access.Service
	meetingRepo repositories.MeetingRepository
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// NewProgressWS creates the progress WebSocket handler
func NewProgressWS(bus *pubsub.RedisBus, accessSvc *access.Service, meetingRepo repositories.MeetingRepository, logger *zap.Logger) *ProgressWS {
	return &ProgressWS{
		bus:         bus,
		accessSvc:   accessSvc,
		meetingRepo: meetingRepo,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Subscribe upgrades the connection and relays progress events
// GET /v1/meetings/:id/processing/ws
func (h *ProgressWS) Subscribe(c echo.Context) error {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidation("invalid meeting id"))
	}
	userID, ok := c.Get(middleware.UserIDContextKey).(uuid.UUID)
	if !ok {
		return HandleError(h.logger, c, apperrors.ErrUnauthenticated())
	}

	ctx := c.Request().Context()
	meeting, err := h.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInternal(err))
	}
	if meeting == nil {
		return HandleError(h.logger, c, apperrors.ErrMeetingNotFound(meetingID.String()))
	}
	allowed, err := h.accessSvc.HasAccess(ctx, userID, meeting)
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInternal(err))
	}
	if !allowed {
		return HandleError(h.logger, c, apperrors.ErrMeetingAccessDenied(meetingID.String()))
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	events, cancel := h.bus.Subscribe(ctx, meetingID)
	defer cancel()

	// Reader goroutine just waits for the client to go away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("ws write failed, closing",
					zap.String("meeting_id", meetingID.String()),
					zap.Error(err))
				return nil
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-closed:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
