package processing

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meetingminutes/backend/internal/domain/entities"
	"github.com/meetingminutes/backend/pkg/ai"
)

type fakeMeetingRepo struct {
	mu       sync.Mutex
	meetings map[uuid.UUID]*entities.Meeting
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{meetings: make(map[uuid.UUID]*entities.Meeting)}
}

func (r *fakeMeetingRepo) put(m *entities.Meeting) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meetings[m.ID] = m
}

func (r *fakeMeetingRepo) Create(ctx context.Context, m *entities.Meeting) error {
	r.put(m)
	return nil
}

func (r *fakeMeetingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMeetingRepo) Update(ctx context.Context, m *entities.Meeting) error {
	r.put(m)
	return nil
}

func (r *fakeMeetingRepo) ClaimForProcessing(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok {
		return false, nil
	}
	if m.Status != entities.MeetingStatusDraft && m.Status != entities.MeetingStatusFailed {
		return false, nil
	}
	m.Status = entities.MeetingStatusProcessing
	m.ActualStartTime = &startedAt
	m.UpdatedAt = startedAt
	return true, nil
}

func (r *fakeMeetingRepo) MarkProcessed(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.meetings[id]; ok {
		m.Status = entities.MeetingStatusProcessed
		m.ActualEndTime = &endedAt
	}
	return nil
}

func (r *fakeMeetingRepo) MarkFailed(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.meetings[id]; ok {
		m.Status = entities.MeetingStatusFailed
		m.ActualEndTime = &endedAt
	}
	return nil
}

func (r *fakeMeetingRepo) CancelProcessing(ctx context.Context, id uuid.UUID, endedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok || m.Status != entities.MeetingStatusProcessing {
		return false, nil
	}
	m.Status = entities.MeetingStatusFailed
	m.ActualEndTime = &endedAt
	return true, nil
}

func (r *fakeMeetingRepo) GetStatus(ctx context.Context, id uuid.UUID) (entities.MeetingStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok {
		return "", entities.ErrMeetingNotFound
	}
	return m.Status, nil
}

func (r *fakeMeetingRepo) ClearAudioPath(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.meetings[id]; ok {
		m.AudioFilePath = nil
	}
	return nil
}

func (r *fakeMeetingRepo) FindProcessedInSeries(ctx context.Context, seriesID, excludeID uuid.UUID, limit int) ([]*entities.Meeting, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*entities.Meeting
	for _, m := range r.meetings {
		if m.SeriesID == nil || *m.SeriesID != seriesID {
			continue
		}
		if m.ID == excludeID || m.Status != entities.MeetingStatusProcessed {
			continue
		}
		copied := *m
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		return sortKey(matched[i]).After(sortKey(matched[j]))
	})
	total := int64(len(matched))
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func sortKey(m *entities.Meeting) time.Time {
	if m.ScheduledAt != nil {
		return *m.ScheduledAt
	}
	return m.CreatedAt
}

func (r *fakeMeetingRepo) FindStaleProcessing(ctx context.Context, cutoff time.Time) ([]*entities.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stale []*entities.Meeting
	for _, m := range r.meetings {
		if m.Status == entities.MeetingStatusProcessing && m.UpdatedAt.Before(cutoff) {
			copied := *m
			stale = append(stale, &copied)
		}
	}
	return stale, nil
}

type fakeSeriesRepo struct {
	mu     sync.Mutex
	series map[uuid.UUID]*entities.MeetingSeries
}

func newFakeSeriesRepo() *fakeSeriesRepo {
	return &fakeSeriesRepo{series: make(map[uuid.UUID]*entities.MeetingSeries)}
}

func (r *fakeSeriesRepo) Create(ctx context.Context, s *entities.MeetingSeries) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series[s.ID] = s
	return nil
}

func (r *fakeSeriesRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.MeetingSeries, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.series[id]
	if !ok {
		return nil, nil
	}
	return s, nil
}

type fakeTranscriptRepo struct {
	mu          sync.Mutex
	transcripts map[uuid.UUID]*entities.Transcript
}

func newFakeTranscriptRepo() *fakeTranscriptRepo {
	return &fakeTranscriptRepo{transcripts: make(map[uuid.UUID]*entities.Transcript)}
}

func (r *fakeTranscriptRepo) Upsert(ctx context.Context, t *entities.Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcripts[t.MeetingID] = t
	return nil
}

func (r *fakeTranscriptRepo) FindByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transcripts[meetingID]
	if !ok {
		return nil, nil
	}
	return t, nil
}

type fakeExtractionRepo struct {
	mu          sync.Mutex
	extractions map[uuid.UUID]*entities.Extraction
}

func newFakeExtractionRepo() *fakeExtractionRepo {
	return &fakeExtractionRepo{extractions: make(map[uuid.UUID]*entities.Extraction)}
}

func (r *fakeExtractionRepo) Upsert(ctx context.Context, e *entities.Extraction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractions[e.MeetingID] = e
	return nil
}

func (r *fakeExtractionRepo) FindByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Extraction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.extractions[meetingID]
	if !ok {
		return nil, nil
	}
	return e, nil
}

type fakeActionItemRepo struct {
	mu    sync.Mutex
	items []*entities.ActionItem
}

func newFakeActionItemRepo() *fakeActionItemRepo {
	return &fakeActionItemRepo{}
}

func (r *fakeActionItemRepo) CreateBatch(ctx context.Context, items []*entities.ActionItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, items...)
	return nil
}

func (r *fakeActionItemRepo) ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.ActionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.ActionItem
	for _, item := range r.items {
		if item.MeetingID == meetingID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeActionItemRepo) CountByMeetingID(ctx context.Context, meetingID uuid.UUID) (int64, error) {
	items, _ := r.ListByMeetingID(ctx, meetingID)
	return int64(len(items)), nil
}

func (r *fakeActionItemRepo) ExistsForAssignee(ctx context.Context, meetingID, userID uuid.UUID) (bool, error) {
	items, _ := r.ListByMeetingID(ctx, meetingID)
	for _, item := range items {
		if item.AssignedToUserID != nil && *item.AssignedToUserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeDocumentRepo struct {
	mu   sync.Mutex
	docs []*entities.GeneratedDocument
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{}
}

func (r *fakeDocumentRepo) Create(ctx context.Context, doc *entities.GeneratedDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, doc)
	return nil
}

func (r *fakeDocumentRepo) NextVersion(ctx context.Context, meetingID uuid.UUID, format entities.DocumentFormat) (int, error) {
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

func (r *fakeDocumentRepo) FindLatest(ctx context.Context, meetingID uuid.UUID, format entities.DocumentFormat) (*entities.GeneratedDocument, error) {
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

func (r *fakeDocumentRepo) ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.GeneratedDocument, error) {
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

func (r *fakeDocumentRepo) CountByMeetingID(ctx context.Context, meetingID uuid.UUID) (int64, error) {
	docs, _ := r.ListByMeetingID(ctx, meetingID)
	return int64(len(docs)), nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entities.User
}

func newFakeUserRepo(users ...*entities.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*entities.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, u *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	return nil
}

// fakeAI returns canned results and can block or fail per call
type fakeAI struct {
	mu               sync.Mutex
	transcription    *ai.TranscriptionResult
	extraction       *ai.ExtractionResult
	transcribeErr    error
	extractErr       error
	onTranscribe     func()
	transcribeCalls  int
	extractCalls     int
	lastExtractInput *ai.ExtractionRequest
}

func newFakeAI() *fakeAI {
	return &fakeAI{
		transcription: &ai.TranscriptionResult{
			Success:         true,
			RawText:         "We agreed to ship the beta on Friday.",
			ConfidenceScore: 0.93,
			Language:        "en",
			AudioDuration:   62.5,
			DeviceUsed:      "cpu",
		},
		extraction: &ai.ExtractionResult{
			Success: true,
			ExtractedData: entities.ExtractedData{
				Decisions: []entities.ExtractedDecision{
					{Topic: "Release", Decision: "Ship the beta on Friday"},
				},
				ActionItems: []entities.ExtractedActionItem{
					{Description: "Prepare release notes", AssignedTo: "", Deadline: "tomorrow"},
				},
			},
			ModelVersion: "test-model-1",
		},
	}
}

func (f *fakeAI) Transcribe(ctx context.Context, audioPath, meetingID string) (*ai.TranscriptionResult, error) {
	f.mu.Lock()
	f.transcribeCalls++
	hook := f.onTranscribe
	err := f.transcribeErr
	result := f.transcription
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (f *fakeAI) Extract(ctx context.Context, request *ai.ExtractionRequest) (*ai.ExtractionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extractCalls++
	f.lastExtractInput = request
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	return f.extraction, nil
}

// fakeDocs stands in for document generation
type fakeDocs struct {
	mu          sync.Mutex
	generated   int
	generateErr error
	url         string
}

func (f *fakeDocs) Generate(ctx context.Context, meeting *entities.Meeting, extraction *entities.Extraction, organizer *entities.User) ([]*entities.GeneratedDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	f.generated++
	return []*entities.GeneratedDocument{
		{ID: uuid.New(), MeetingID: meeting.ID, Format: entities.DocumentFormatPDF, Version: f.generated},
		{ID: uuid.New(), MeetingID: meeting.ID, Format: entities.DocumentFormatDOCX, Version: f.generated},
	}, nil
}

func (f *fakeDocs) URLForLatest(ctx context.Context, meetingID uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, nil
}

// capturePublisher records every event in order
type capturePublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *capturePublisher) Publish(ctx context.Context, meetingID uuid.UUID, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) all() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

type nopNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *nopNotifier) NotifyProcessingComplete(ctx context.Context, user *entities.User, meeting *entities.Meeting) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
}
