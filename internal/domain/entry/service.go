package entry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hepacheck/hepacheck/internal/domain/scoring"
	"github.com/hepacheck/hepacheck/internal/platform/auth"
	"github.com/hepacheck/hepacheck/internal/platform/events"
	"github.com/hepacheck/hepacheck/internal/platform/telemetry"
)

// DefaultPublishTimeout bounds how long a write request waits on the event
// broker after the entry is stored.
const DefaultPublishTimeout = 2 * time.Second

type Service struct {
	repo           Repository
	events         events.Publisher
	metrics        *telemetry.Metrics
	logger         zerolog.Logger
	publishTimeout time.Duration
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:           repo,
		events:         events.NoopPublisher{},
		logger:         zerolog.Nop(),
		publishTimeout: DefaultPublishTimeout,
	}
}

func (s *Service) SetPublisher(p events.Publisher)   { s.events = p }
func (s *Service) SetMetrics(m *telemetry.Metrics)   { s.metrics = m }
func (s *Service) SetLogger(l zerolog.Logger)        { s.logger = l }
func (s *Service) SetPublishTimeout(d time.Duration) { s.publishTimeout = d }

// Compute evaluates the panel without storing anything.
func (s *Service) Compute(_ context.Context, p scoring.LabPanel) scoring.ScoreResult {
	r := scoring.Compute(p)
	s.metrics.ObserveResult(r)
	return r
}

// Save computes the panel and persists inputs and unrounded scores.
func (s *Service) Save(ctx context.Context, p scoring.LabPanel) (*Entry, error) {
	r := s.Compute(ctx, p)
	e := NewEntry(p, r)
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}
	s.metrics.EntrySaved()

	evt := events.New(events.TypeEntrySaved)
	evt.EntryID = e.ID
	evt.FIB4Risk = e.FIB4Risk
	s.publish(ctx, evt)
	return e, nil
}

func (s *Service) History(ctx context.Context, limit, offset int) ([]*Entry, int, error) {
	if limit <= 0 {
		return nil, 0, fmt.Errorf("limit must be positive")
	}
	if offset < 0 {
		return nil, 0, fmt.Errorf("offset must not be negative")
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Get(ctx context.Context, id int64) (*Entry, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) (*Entry, error) {
	e, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.EntriesDeleted(1)

	evt := events.New(events.TypeEntryDeleted)
	evt.EntryID = e.ID
	s.publish(ctx, evt)
	return e, nil
}

// Clear removes every stored entry and reports how many were deleted.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	n, err := s.repo.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear entries: %w", err)
	}
	s.metrics.EntriesDeleted(n)

	evt := events.New(events.TypeHistoryCleared)
	evt.Count = n
	s.publish(ctx, evt)
	return n, nil
}

// publish never fails the caller; the entry is already stored. The event
// outlives a cancelled request but not the publish timeout.
func (s *Service) publish(ctx context.Context, evt events.Event) {
	evt.Subject = auth.SubjectFromContext(ctx)
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.events.Publish(pubCtx, evt); err != nil {
		s.logger.Warn().Err(err).
			Str("event_type", evt.Type).
			Int64("entry_id", evt.EntryID).
			Msg("failed to publish entry event")
	}
}
