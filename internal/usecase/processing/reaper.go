package processing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meetingminutes/backend/internal/domain/repositories"
	"github.com/meetingminutes/backend/pkg/config"
)

// Reaper finds meetings abandoned in PROCESSING after a crash and
// moves them to FAILED so clients see the truth and retry becomes
// possible. The status query already reports real progress from
// artifacts; the reaper just fixes the stuck status flag.
type Reaper struct {
	meetingRepo repositories.MeetingRepository
	publisher   Publisher
	staleAfter  time.Duration
	interval    time.Duration
	logger      *zap.Logger

	stopChan chan struct{}
	done     chan struct{}
}

// NewReaper creates a stale-processing reaper
func NewReaper(meetingRepo repositories.MeetingRepository, publisher Publisher, cfg config.PipelineConfig, logger *zap.Logger) *Reaper {
	return &Reaper{
		meetingRepo: meetingRepo,
		publisher:   publisher,
		staleAfter:  cfg.StaleAfter(),
		interval:    cfg.ReaperInterval(),
		logger:      logger,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start runs the reaper loop until Stop is called
func (r *Reaper) Start() {
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.sweep(context.Background())
			case <-r.stopChan:
				return
			}
		}
	}()
}

// Stop terminates the reaper loop
func (r *Reaper) Stop() {
	close(r.stopChan)
	<-r.done
}

func (r *Reaper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.staleAfter)
	stale, err := r.meetingRepo.FindStaleProcessing(ctx, cutoff)
	if err != nil {
		r.logger.Error("reaper sweep failed", zap.Error(err))
		return
	}

	for _, meeting := range stale {
		// CAS against PROCESSING so a pipeline that woke up and
		// finished in the meantime is left alone
		cancelled, err := r.meetingRepo.CancelProcessing(ctx, meeting.ID, time.Now())
		if err != nil {
			r.logger.Error("reaper could not fail stale meeting",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(err))
			continue
		}
		if !cancelled {
			continue
		}

		r.logger.Warn("reaped stale processing meeting",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Time("last_update", meeting.UpdatedAt))

		event := errorEvent(meeting.ID, "Processing abandoned after restart")
		if err := r.publisher.Publish(ctx, meeting.ID, event); err != nil {
			r.logger.Warn("reaper publish failed", zap.Error(err))
		}
	}
}
