package documents

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/google/uuid"
	apperrors "github.com/meetingminutes/backend/errors"
	"github.com/meetingminutes/backend/internal/domain/entities"
	"github.com/meetingminutes/backend/internal/domain/repositories"
)

// BlobStore is the binary storage used for rendered minutes
type BlobStore interface {
	StoreBlob(ctx context.Context, objectName string, data []byte, contentType string) error
	PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// Renderer produces minutes documents from meeting artifacts
type Renderer interface {
	RenderPDF(meeting *entities.Meeting, extraction *entities.Extraction, organizer *entities.User) ([]byte, error)
	RenderDOCX(meeting *entities.Meeting, extraction *entities.Extraction, organizer *entities.User) ([]byte, error)
}

// Service generates versioned minutes documents. Blobs are written
// first; the metadata sidecar follows. A blob whose sidecar save fails
// is left orphaned for a later sweep rather than deleted inline.
type Service struct {
	documentRepo repositories.DocumentRepository
	blobStore    BlobStore
	renderer     Renderer
	logger       *zap.Logger
}

// NewService creates a document service
func NewService(documentRepo repositories.DocumentRepository, blobStore BlobStore, renderer Renderer, logger *zap.Logger) *Service {
	return &Service{
		documentRepo: documentRepo,
		blobStore:    blobStore,
		renderer:     renderer,
		logger:       logger,
	}
}

// Generate renders and stores PDF and DOCX minutes for a meeting,
// returning the new metadata rows.
func (s *Service) Generate(ctx context.Context, meeting *entities.Meeting, extraction *entities.Extraction, organizer *entities.User) ([]*entities.GeneratedDocument, error) {
	formats := []entities.DocumentFormat{entities.DocumentFormatPDF, entities.DocumentFormatDOCX}
	docs := make([]*entities.GeneratedDocument, 0, len(formats))

	for _, format := range formats {
		doc, err := s.generateOne(ctx, meeting, extraction, organizer, format)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Service) generateOne(ctx context.Context, meeting *entities.Meeting, extraction *entities.Extraction, organizer *entities.User, format entities.DocumentFormat) (*entities.GeneratedDocument, error) {
	var (
		content []byte
		err     error
	)
	switch format {
	case entities.DocumentFormatPDF:
		content, err = s.renderer.RenderPDF(meeting, extraction, organizer)
	case entities.DocumentFormatDOCX:
		content, err = s.renderer.RenderDOCX(meeting, extraction, organizer)
	default:
		return nil, apperrors.ErrDocumentGenerationFailed(string(format), fmt.Errorf("unsupported format"))
	}
	if err != nil {
		return nil, apperrors.ErrDocumentGenerationFailed(string(format), err)
	}

	version, err := s.documentRepo.NextVersion(ctx, meeting.ID, format)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}

	fileName := buildFileName(meeting.Title, version, format)
	blobID := fmt.Sprintf("%s/%s", meeting.ID, fileName)

	if err := s.blobStore.StoreBlob(ctx, blobID, content, format.ContentType()); err != nil {
		return nil, apperrors.ErrStorageFailed("store minutes blob", err)
	}

	doc := &entities.GeneratedDocument{
		ID:          uuid.New(),
		MeetingID:   meeting.ID,
		Format:      format,
		Version:     version,
		FileName:    fileName,
		BlobID:      blobID,
		ContentType: format.ContentType(),
		SizeBytes:   int64(len(content)),
		CreatedAt:   time.Now(),
	}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		// The blob stays behind as an orphan; a GC sweep reclaims it
		s.logger.Error("document metadata save failed, blob orphaned",
			zap.String("blob_id", blobID),
			zap.Error(err))
		return nil, apperrors.ErrInternal(err)
	}

	s.logger.Info("minutes document generated",
		zap.String("meeting_id", meeting.ID.String()),
		zap.String("format", string(format)),
		zap.Int("version", version))

	return doc, nil
}

// URLForLatest returns a download URL for the newest minutes document,
// preferring PDF, or empty when none exist.
func (s *Service) URLForLatest(ctx context.Context, meetingID uuid.UUID) (string, error) {
	for _, format := range []entities.DocumentFormat{entities.DocumentFormatPDF, entities.DocumentFormatDOCX} {
		doc, err := s.documentRepo.FindLatest(ctx, meetingID, format)
		if err != nil {
			return "", apperrors.ErrInternal(err)
		}
		if doc == nil {
			continue
		}
		url, err := s.blobStore.PresignedURL(ctx, doc.BlobID, 24*time.Hour)
		if err != nil {
			return "", apperrors.ErrStorageFailed("presign minutes blob", err)
		}
		return url, nil
	}
	return "", nil
}

// List returns all document metadata for a meeting
func (s *Service) List(ctx context.Context, meetingID uuid.UUID) ([]*entities.GeneratedDocument, error) {
	return s.documentRepo.ListByMeetingID(ctx, meetingID)
}

var fileNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func buildFileName(title string, version int, format entities.DocumentFormat) string {
	safe := fileNameSanitizer.ReplaceAllString(strings.TrimSpace(title), "_")
	if safe == "" {
		safe = "meeting"
	}
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("minutes_%s_%s_v%d.%s", safe, date, version, format)
}
