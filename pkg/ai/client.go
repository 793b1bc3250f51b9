package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/meetingminutes/backend/internal/domain/entities"
	"github.com/meetingminutes/backend/pkg/config"
)

// ErrorKind classifies AI service failures for retry decisions
type ErrorKind string

const (
	KindServiceUnavailable ErrorKind = "SERVICE_UNAVAILABLE" // retriable
	KindBadRequest         ErrorKind = "BAD_REQUEST"         // not retriable
	KindCancelled          ErrorKind = "CANCELLED"
)

// Error is a classified AI service failure
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ai %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the error kind, defaulting to SERVICE_UNAVAILABLE
func KindOf(err error) ErrorKind {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	return KindServiceUnavailable
}

// TranscriptionResult is the transcription endpoint response
type TranscriptionResult struct {
	Success         bool                     `json:"success"`
	RawText         string                   `json:"raw_text"`
	WordTimestamps  []entities.WordTimestamp `json:"word_timestamps"`
	ProcessingTime  float64                  `json:"processing_time"`
	AudioDuration   float64                  `json:"audio_duration"`
	ConfidenceScore float64                  `json:"confidence_score"`
	Language        string                   `json:"language"`
	DeviceUsed      string                   `json:"device_used"`
	MeetingID       string                   `json:"meeting_id"`
	ErrorMessage    string                   `json:"error,omitempty"`
}

// PreviousDecision is a decision carried from an earlier meeting
type PreviousDecision struct {
	Topic    string `json:"topic"`
	Decision string `json:"decision"`
}

// PreviousActionItem is an action item carried from an earlier meeting
type PreviousActionItem struct {
	Description string `json:"description"`
	AssignedTo  string `json:"assigned_to"`
	Status      string `json:"status"`
}

// PreviousMeeting is one processed sibling in the series context
type PreviousMeeting struct {
	MeetingID   string               `json:"meeting_id"`
	Title       string               `json:"title"`
	Date        string               `json:"date"`
	Decisions   []PreviousDecision   `json:"decisions"`
	ActionItems []PreviousActionItem `json:"action_items"`
}

// PreviousContext is the cross-meeting context payload sent to the
// extraction endpoint for meetings in a series
type PreviousContext struct {
	PreviousMeetings      []PreviousMeeting `json:"previous_meetings"`
	TotalPreviousMeetings int64             `json:"total_previous_meetings"`
	SeriesTitle           string            `json:"series_title"`
}

// ExtractionRequest is the extraction endpoint request body
type ExtractionRequest struct {
	TranscriptText  string                `json:"transcript_text"`
	MeetingID       string                `json:"meeting_id"`
	AgendaItems     []entities.AgendaItem `json:"agenda_items"`
	PreviousContext *PreviousContext      `json:"previous_context,omitempty"`
}

// ExtractionResult is the extraction endpoint response
type ExtractionResult struct {
	Success         bool                   `json:"success"`
	ExtractedData   entities.ExtractedData `json:"extracted_data"`
	ProcessingTime  float64                `json:"processing_time"`
	ModelVersion    string                 `json:"model_version"`
	ConfidenceScore float64                `json:"confidence_score"`
	ErrorMessage    string                 `json:"error,omitempty"`
}

// Client calls the external AI service with retries
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxAttempts    int
	initialBackoff time.Duration
	logger         *zap.Logger
}

// NewClient creates an AI service client
func NewClient(aiCfg config.AIConfig, pipeCfg config.PipelineConfig, logger *zap.Logger) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: aiCfg.ConnectTimeout(),
		}).DialContext,
	}
	return &Client{
		baseURL: aiCfg.BaseURL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   aiCfg.ReadTimeout(),
		},
		maxAttempts:    pipeCfg.MaxRetryAttempts,
		initialBackoff: pipeCfg.InitialBackoff(),
		logger:         logger,
	}
}

// Transcribe uploads an audio file for transcription. The request is
// rebuilt on every attempt because the multipart body is consumed.
func (c *Client) Transcribe(ctx context.Context, audioPath string, meetingID string) (*TranscriptionResult, error) {
	var result *TranscriptionResult
	op := func() error {
		res, err := c.transcribeOnce(ctx, audioPath, meetingID)
		if err != nil {
			return err
		}
		result = res
		return nil
	}
	if err := c.retry(ctx, "transcribe", op); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) transcribeOnce(ctx context.Context, audioPath string, meetingID string) (*TranscriptionResult, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, backoff.Permanent(&Error{Kind: KindBadRequest, Op: "transcribe", Err: err})
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, backoff.Permanent(&Error{Kind: KindBadRequest, Op: "transcribe", Err: err})
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, &Error{Kind: KindServiceUnavailable, Op: "transcribe", Err: err}
	}
	_ = writer.WriteField("meeting_id", meetingID)
	_ = writer.WriteField("language", "en")
	if err := writer.Close(); err != nil {
		return nil, &Error{Kind: KindServiceUnavailable, Op: "transcribe", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ai/transcribe", &body)
	if err != nil {
		return nil, backoff.Permanent(&Error{Kind: KindBadRequest, Op: "transcribe", Err: err})
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result TranscriptionResult
	if err := c.do(req, "transcribe", &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &Error{Kind: KindServiceUnavailable, Op: "transcribe",
			Err: fmt.Errorf("service reported failure: %s", result.ErrorMessage)}
	}
	return &result, nil
}

// Extract sends a transcript for structured analysis
func (c *Client) Extract(ctx context.Context, request *ExtractionRequest) (*ExtractionResult, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, &Error{Kind: KindBadRequest, Op: "extract", Err: err}
	}

	var result *ExtractionResult
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ai/extract", bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(&Error{Kind: KindBadRequest, Op: "extract", Err: err})
		}
		req.Header.Set("Content-Type", "application/json")

		var res ExtractionResult
		if err := c.do(req, "extract", &res); err != nil {
			return err
		}
		if !res.Success {
			return &Error{Kind: KindServiceUnavailable, Op: "extract",
				Err: fmt.Errorf("service reported failure: %s", res.ErrorMessage)}
		}
		result = &res
		return nil
	}
	if err := c.retry(ctx, "extract", op); err != nil {
		return nil, err
	}
	return result, nil
}

// Health checks the AI service health endpoint
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ai/health", nil)
	if err != nil {
		return &Error{Kind: KindBadRequest, Op: "health", Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindServiceUnavailable, Op: "health", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Kind: KindServiceUnavailable, Op: "health",
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return nil
}

// do executes a request and decodes the JSON response. Transport
// failures and 5xx responses are retriable; 4xx responses are not.
func (c *Client) do(req *http.Request, op string, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return backoff.Permanent(&Error{Kind: KindCancelled, Op: op, Err: req.Context().Err()})
		}
		return &Error{Kind: KindServiceUnavailable, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindServiceUnavailable, Op: op, Err: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.Unmarshal(body, out); err != nil {
			return &Error{Kind: KindServiceUnavailable, Op: op,
				Err: fmt.Errorf("invalid response body: %w", err)}
		}
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return backoff.Permanent(&Error{Kind: KindBadRequest, Op: op,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))})
	default:
		return &Error{Kind: KindServiceUnavailable, Op: op,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}
}

// retry runs op with exponential backoff (1s, 2s, 4s by default)
func (c *Client) retry(ctx context.Context, opName string, op backoff.Operation) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = 30 * time.Second

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op()
		if err != nil && attempt < c.maxAttempts {
			c.logger.Warn("AI call failed, will retry",
				zap.String("operation", opName),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return err
	}

	err := backoff.Retry(wrapped,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxAttempts-1)), ctx))
	if err != nil {
		if ctx.Err() != nil {
			return &Error{Kind: KindCancelled, Op: opName, Err: ctx.Err()}
		}
		return err
	}
	return nil
}
