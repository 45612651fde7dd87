package proctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/greenroom-live/greenroom/internal/domain"
	"github.com/greenroom-live/greenroom/internal/store"
)

// Per-type score deductions, applied per occurrence from a baseline of
// 100, floor 0. Part of the observable scoring contract.
var deductions = map[string]int{
	domain.EventNoFace:           5,
	domain.EventMultipleFaces:    10,
	domain.EventSuspiciousObject: 3,
	domain.EventLookingAway:      2,
}

// Lifecycle markers count toward totals but never show in report
// timelines.
var timelineExcluded = map[string]bool{
	domain.EventModelsLoaded:     true,
	domain.EventDetectionStarted: true,
	domain.EventDetectionStopped: true,
}

const defaultMinScore = 75

const listDefaultWindow = 7 * 24 * time.Hour

type ScoreResult struct {
	Score       int            `json:"score"`
	EventCounts map[string]int `json:"eventCounts"`
	TotalEvents int            `json:"totalEvents"`
}

// scoreEvents computes the integrity score and per-type counts for one
// interview's events.
func scoreEvents(events []*domain.ProctorEvent) (int, map[string]int) {
	counts := make(map[string]int)
	for _, ev := range events {
		counts[ev.Type]++
	}
	score := 100
	for typ, per := range deductions {
		score -= counts[typ] * per
	}
	if score < 0 {
		score = 0
	}
	return score, counts
}

// Score derives the integrity score for an interview. An interview
// with no stored events scores exactly 100.
func (s *Service) Score(ctx context.Context, interviewID string) (*ScoreResult, error) {
	events, err := s.db.FindEvents(ctx, store.EventFilter{InterviewID: interviewID})
	if err != nil {
		return nil, err
	}
	score, counts := scoreEvents(events)
	return &ScoreResult{Score: score, EventCounts: counts, TotalEvents: len(events)}, nil
}

type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ReportInterview struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId"`
	Title     string     `json:"title,omitempty"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Duration  string     `json:"duration"`
}

type EventSummary struct {
	Total             int `json:"total"`
	NoFaceDetected    int `json:"noFaceDetected"`
	LookingAway       int `json:"lookingAway"`
	MultipleFaces     int `json:"multipleFaces"`
	SuspiciousObjects int `json:"suspiciousObjects"`
}

type TimelineEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"`
	Details   map[string]any `json:"details,omitempty"`
	Severity  int            `json:"severity"`
}

type Report struct {
	Interview      ReportInterview `json:"interview"`
	Candidate      *Participant    `json:"candidate"`
	Interviewer    *Participant    `json:"interviewer"`
	IntegrityScore int             `json:"integrityScore"`
	EventSummary   EventSummary    `json:"eventSummary"`
	EventTimeline  []TimelineEntry `json:"eventTimeline"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

func (s *Service) participant(ctx context.Context, userID string) *Participant {
	if userID == "" {
		return nil
	}
	u, err := s.db.UserByID(ctx, userID)
	if err != nil {
		return nil
	}
	return &Participant{Name: u.Name, Email: u.Email}
}

// Report builds the full timeline report for one interview.
func (s *Service) Report(ctx context.Context, interviewID string) (*Report, error) {
	iv, err := s.db.InterviewByID(ctx, interviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInterviewNotFound
		}
		return nil, err
	}

	events, err := s.db.FindEvents(ctx, store.EventFilter{InterviewID: interviewID, Ascending: true})
	if err != nil {
		return nil, err
	}

	score, counts := scoreEvents(events)

	timeline := make([]TimelineEntry, 0, len(events))
	for _, ev := range events {
		if timelineExcluded[ev.Type] {
			continue
		}
		timeline = append(timeline, TimelineEntry{
			Timestamp: ev.Timestamp,
			Type:      ev.Type,
			Details:   ev.Details,
			Severity:  ev.Severity,
		})
	}

	start := iv.StartTime
	if start.IsZero() {
		start = iv.CreatedAt
	}
	end := time.Now()
	if iv.EndTime != nil {
		end = *iv.EndTime
	}
	minutes := int(end.Sub(start).Minutes())

	return &Report{
		Interview: ReportInterview{
			ID:        iv.ID,
			SessionID: iv.SessionID,
			Title:     iv.Title,
			StartTime: start,
			EndTime:   iv.EndTime,
			Duration:  fmt.Sprintf("%d minutes", minutes),
		},
		Candidate:      s.participant(ctx, iv.CandidateID),
		Interviewer:    s.participant(ctx, iv.InterviewerID),
		IntegrityScore: score,
		EventSummary: EventSummary{
			Total:             len(events),
			NoFaceDetected:    counts[domain.EventNoFace],
			LookingAway:       counts[domain.EventLookingAway],
			MultipleFaces:     counts[domain.EventMultipleFaces],
			SuspiciousObjects: counts[domain.EventSuspiciousObject],
		},
		EventTimeline: timeline,
		GeneratedAt:   time.Now(),
	}, nil
}

// InterviewQuery filters the interview listing. MinScore nil means the
// default threshold.
type InterviewQuery struct {
	Query            string
	From, To         time.Time
	CandidateEmail   string
	InterviewerEmail string
	MinScore         *int
}

type InterviewSummary struct {
	domain.Interview
	Interviewer       *Participant `json:"interviewer,omitempty"`
	Candidate         *Participant `json:"candidate,omitempty"`
	IntegrityScore    int          `json:"integrityScore"`
	ProctorEventCount int          `json:"proctorEventCount"`
}

func (s *Service) userIDs(ctx context.Context, email string, roles []domain.Role) ([]string, error) {
	users, err := s.db.FindUsers(ctx, store.UserFilter{EmailContains: email, Roles: roles})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// ListInterviews lists interview summaries with computed scores. With
// no explicit range it looks at the trailing seven days; the minimum
// score post-filter is evaluated after per-interview scoring.
func (s *Service) ListInterviews(ctx context.Context, q InterviewQuery) ([]InterviewSummary, error) {
	f := store.InterviewFilter{
		Query: q.Query,
		From:  q.From,
		To:    q.To,
		Limit: maxListedInterviews,
	}
	if f.From.IsZero() && f.To.IsZero() {
		f.From = time.Now().Add(-listDefaultWindow)
	}

	if q.CandidateEmail != "" {
		ids, err := s.userIDs(ctx, q.CandidateEmail, []domain.Role{domain.RoleCandidate})
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []InterviewSummary{}, nil
		}
		f.CandidateIDs = ids
	}
	if q.InterviewerEmail != "" {
		ids, err := s.userIDs(ctx, q.InterviewerEmail, []domain.Role{domain.RoleInterviewer, domain.RoleAdmin})
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []InterviewSummary{}, nil
		}
		f.InterviewerIDs = ids
	}

	interviews, err := s.db.FindInterviews(ctx, f)
	if err != nil {
		return nil, err
	}

	minScore := defaultMinScore
	if q.MinScore != nil {
		minScore = *q.MinScore
	}

	out := make([]InterviewSummary, 0, len(interviews))
	for _, iv := range interviews {
		events, err := s.db.FindEvents(ctx, store.EventFilter{InterviewID: iv.ID})
		if err != nil {
			return nil, err
		}
		score, _ := scoreEvents(events)
		if score < minScore {
			continue
		}
		out = append(out, InterviewSummary{
			Interview:         *iv,
			Interviewer:       s.participant(ctx, iv.InterviewerID),
			Candidate:         s.participant(ctx, iv.CandidateID),
			IntegrityScore:    score,
			ProctorEventCount: len(events),
		})
	}
	return out, nil
}
