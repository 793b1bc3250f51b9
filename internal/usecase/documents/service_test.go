package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetingminutes/backend/internal/domain/entities"
)

type memDocumentRepo struct {
	mu        sync.Mutex
	docs      []*entities.GeneratedDocument
	createErr error
}

func (r *memDocumentRepo) Create(ctx context.Context, doc *entities.GeneratedDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.docs = append(r.docs, doc)
	return nil
}

func (r *memDocumentRepo) NextVersion(ctx context.Context, meetingID uuid.UUID, format entities.DocumentFormat) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, d := range r.docs {
		if d.MeetingID == meetingID && d.Format == format && d.Version > max {
			max = d.Version
		}
	}
	return max + 1, nil
}

func (r *memDocumentRepo) FindLatest(ctx context.Context, meetingID uuid.UUID, format entities.DocumentFormat) (*entities.GeneratedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *entities.GeneratedDocument
	for _, d := range r.docs {
		if d.MeetingID != meetingID || d.Format != format {
			continue
		}
		if latest == nil || d.Version > latest.Version {
			latest = d
		}
	}
	return latest, nil
}

func (r *memDocumentRepo) ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.GeneratedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.GeneratedDocument
	for _, d := range r.docs {
		if d.MeetingID == meetingID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDocumentRepo) CountByMeetingID(ctx context.Context, meetingID uuid.UUID) (int64, error) {
	docs, _ := r.ListByMeetingID(ctx, meetingID)
	return int64(len(docs)), nil
}

type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (s *memBlobStore) StoreBlob(ctx context.Context, objectName string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[objectName] = data
	return nil
}

func (s *memBlobStore) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[objectName]; !ok {
		return "", errors.New("no such blob")
	}
	return "https://storage.local/" + objectName, nil
}

func newTestService(repo *memDocumentRepo, store *memBlobStore) *Service {
	return NewService(repo, store, NewTextRenderer(), zap.NewNop())
}

func testMeeting() *entities.Meeting {
	return entities.NewMeeting("Q3 Planning: Budget & Roadmap!", uuid.New())
}

func testExtraction(meetingID uuid.UUID) *entities.Extraction {
	return entities.NewExtraction(meetingID, entities.ExtractedData{
		TopicsDiscussed: []entities.ExtractedTopic{
			{AgendaItem: "Budget", Summary: "Reviewed Q3 spend"},
		},
		Decisions: []entities.ExtractedDecision{
			{Topic: "Budget", Decision: "Approve Q3 numbers"},
		},
	})
}

func TestGenerateProducesBothFormats(t *testing.T) {
	repo := &memDocumentRepo{}
	store := newMemBlobStore()
	svc := newTestService(repo, store)
	meeting := testMeeting()

	docs, err := svc.Generate(context.Background(), meeting, testExtraction(meeting.ID), nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected PDF and DOCX, got %d documents", len(docs))
	}
	if docs[0].Format != entities.DocumentFormatPDF || docs[1].Format != entities.DocumentFormatDOCX {
		t.Fatalf("unexpected formats %s, %s", docs[0].Format, docs[1].Format)
	}
	for _, doc := range docs {
		if doc.Version != 1 {
			t.Fatalf("expected version 1, got %d", doc.Version)
		}
		if doc.SizeBytes == 0 {
			t.Fatal("expected non-empty rendered content")
		}
		if _, ok := store.blobs[doc.BlobID]; !ok {
			t.Fatalf("blob %s not stored", doc.BlobID)
		}
	}
}

func TestGenerateIncrementsVersionPerFormat(t *testing.T) {
	repo := &memDocumentRepo{}
	store := newMemBlobStore()
	svc := newTestService(repo, store)
	meeting := testMeeting()
	extraction := testExtraction(meeting.ID)

	if _, err := svc.Generate(context.Background(), meeting, extraction, nil); err != nil {
		t.Fatalf("first generate: %v", err)
	}
	docs, err := svc.Generate(context.Background(), meeting, extraction, nil)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	for _, doc := range docs {
		if doc.Version != 2 {
			t.Fatalf("expected version 2 on regeneration, got %d", doc.Version)
		}
	}
	count, _ := repo.CountByMeetingID(context.Background(), meeting.ID)
	if count != 4 {
		t.Fatalf("expected 4 metadata rows, got %d", count)
	}
}

func TestGenerateFileNameSanitized(t *testing.T) {
	repo := &memDocumentRepo{}
	store := newMemBlobStore()
	svc := newTestService(repo, store)
	meeting := entities.NewMeeting("Q3 Planning: Budget & Roadmap", uuid.New())

	docs, err := svc.Generate(context.Background(), meeting, testExtraction(meeting.ID), nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	date := time.Now().Format("2006-01-02")
	want := fmt.Sprintf("minutes_Q3_Planning_Budget_Roadmap_%s_v1.pdf", date)
	if docs[0].FileName != want {
		t.Fatalf("got %q, want %q", docs[0].FileName, want)
	}
	if strings.ContainsAny(docs[0].FileName, ":&! ") {
		t.Fatalf("file name not sanitized: %q", docs[0].FileName)
	}
}

func TestGenerateMetadataFailureLeavesOrphanBlob(t *testing.T) {
	repo := &memDocumentRepo{createErr: errors.New("db down")}
	store := newMemBlobStore()
	svc := newTestService(repo, store)
	meeting := testMeeting()

	if _, err := svc.Generate(context.Background(), meeting, testExtraction(meeting.ID), nil); err == nil {
		t.Fatal("expected error when metadata save fails")
	}

	// Blob was written before the sidecar failed and is left behind
	if len(store.blobs) != 1 {
		t.Fatalf("expected 1 orphaned blob, got %d", len(store.blobs))
	}
	count, _ := repo.CountByMeetingID(context.Background(), meeting.ID)
	if count != 0 {
		t.Fatalf("expected no metadata rows, got %d", count)
	}
}

func TestURLForLatestPrefersPDF(t *testing.T) {
	repo := &memDocumentRepo{}
	store := newMemBlobStore()
	svc := newTestService(repo, store)
	meeting := testMeeting()

	if _, err := svc.Generate(context.Background(), meeting, testExtraction(meeting.ID), nil); err != nil {
		t.Fatalf("generate: %v", err)
	}

	url, err := svc.URLForLatest(context.Background(), meeting.ID)
	if err != nil {
		t.Fatalf("url for latest: %v", err)
	}
	if !strings.HasSuffix(url, ".pdf") {
		t.Fatalf("expected PDF url, got %q", url)
	}
}

func TestURLForLatestEmptyWhenNoDocuments(t *testing.T) {
	svc := newTestService(&memDocumentRepo{}, newMemBlobStore())

	url, err := svc.URLForLatest(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("url for latest: %v", err)
	}
	if url != "" {
		t.Fatalf("expected empty url, got %q", url)
	}
}
