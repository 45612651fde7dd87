package proctor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/greenroom-live/greenroom/internal/domain"
	"github.com/greenroom-live/greenroom/internal/metrics"
	"github.com/greenroom-live/greenroom/internal/store"
)

var (
	ErrMissingType       = errors.New("missing event type")
	ErrInterviewNotFound = errors.New("interview not found")
)

const (
	maxListedEvents     = 500
	maxListedInterviews = 200
)

// Service is the ingestion and reporting surface over the document
// store.
type Service struct {
	db store.Store
}

func NewService(db store.Store) *Service {
	return &Service{db: db}
}

// EventInput is one submitted event. Severity is deliberately untyped:
// clients send either a number or a level name, and the resolution
// chain in severity.go sorts it out.
type EventInput struct {
	SessionID   string         `json:"sessionId"`
	InterviewID string         `json:"interviewId"`
	Type        string         `json:"type"`
	Details     map[string]any `json:"details"`
	Severity    any            `json:"severity"`
	Timestamp   *time.Time     `json:"timestamp"`
}

// resolveInterview maps an input to a stored interview id. Explicit
// interviewId wins over sessionId lookup. Empty string means
// unresolved, not an error.
func (s *Service) resolveInterview(ctx context.Context, in EventInput) string {
	if in.InterviewID != "" {
		if iv, err := s.db.InterviewByID(ctx, in.InterviewID); err == nil {
			return iv.ID
		}
		return ""
	}
	if in.SessionID != "" {
		if iv, err := s.db.InterviewBySessionID(ctx, in.SessionID); err == nil {
			return iv.ID
		}
	}
	return ""
}

func (s *Service) buildEvent(in EventInput, interviewID, userID string) *domain.ProctorEvent {
	ts := time.Now()
	if in.Timestamp != nil {
		ts = *in.Timestamp
	}
	return &domain.ProctorEvent{
		ID:          uuid.NewString(),
		InterviewID: interviewID,
		UserID:      userID,
		Type:        in.Type,
		Details:     in.Details,
		Severity:    ResolveSeverity(in.Severity, in.Type),
		Timestamp:   ts,
	}
}

// Ingest persists a single event. An unresolved interview reference
// still persists the event with an empty interview id (best-effort
// logging). Note the deliberate asymmetry with IngestBatch.
func (s *Service) Ingest(ctx context.Context, in EventInput, userID string) (*domain.ProctorEvent, error) {
	if in.Type == "" {
		return nil, ErrMissingType
	}
	interviewID := s.resolveInterview(ctx, in)
	if interviewID == "" {
		log.Warn().Str("module", "proctor").Str("type", in.Type).Str("session", in.SessionID).
			Msg("event persisted without interview reference")
	}
	ev := s.buildEvent(in, interviewID, userID)
	if err := s.db.CreateEvent(ctx, ev); err != nil {
		return nil, err
	}
	metrics.EventsIngested.Inc()
	return ev, nil
}

// IngestBatch persists the resolvable events of a batch and silently
// drops the rest: no retry, no error back to the caller. Existing
// callers depend on the drop semantics, so this path intentionally
// does not fall back to a null interview reference the way Ingest
// does.
func (s *Service) IngestBatch(ctx context.Context, ins []EventInput, userID string) ([]*domain.ProctorEvent, error) {
	created := make([]*domain.ProctorEvent, 0, len(ins))
	for _, in := range ins {
		if in.Type == "" {
			continue
		}
		interviewID := s.resolveInterview(ctx, in)
		if interviewID == "" {
			log.Debug().Str("module", "proctor").Str("type", in.Type).Msg("dropping unresolvable batch event")
			continue
		}
		ev := s.buildEvent(in, interviewID, userID)
		if err := s.db.CreateEvent(ctx, ev); err != nil {
			return nil, err
		}
		metrics.EventsIngested.Inc()
		created = append(created, ev)
	}
	return created, nil
}

// EventQuery filters the event list endpoint.
type EventQuery struct {
	InterviewID string
	SessionID   string
	From, To    time.Time
	Type        string
	MinSeverity int
}

// ListEvents returns matching events most-recent-first, capped. A
// sessionId that resolves to no interview yields an empty list rather
// than an unscoped query.
func (s *Service) ListEvents(ctx context.Context, q EventQuery) ([]*domain.ProctorEvent, error) {
	interviewID := q.InterviewID
	if interviewID == "" && q.SessionID != "" {
		iv, err := s.db.InterviewBySessionID(ctx, q.SessionID)
		if err != nil {
			return []*domain.ProctorEvent{}, nil
		}
		interviewID = iv.ID
	}
	events, err := s.db.FindEvents(ctx, store.EventFilter{
		InterviewID: interviewID,
		From:        q.From,
		To:          q.To,
		Type:        q.Type,
		MinSeverity: q.MinSeverity,
		Limit:       maxListedEvents,
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
