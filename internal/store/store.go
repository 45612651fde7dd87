// Package store is the boundary to the document store holding users,
// interviews and proctor events. The live signaling core never depends
// on a concrete engine; it talks to these interfaces only.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/greenroom-live/greenroom/internal/domain"
)

var ErrNotFound = errors.New("store: not found")

// UserFilter matches users by case-insensitive email substring and an
// optional role set.
type UserFilter struct {
	EmailContains string
	Roles         []domain.Role
}

// InterviewFilter narrows interview lookups. Query is a
// case-insensitive substring match against title and sessionId. From
// and To bound StartTime. Results are most-recent-first, capped at
// Limit when Limit > 0.
type InterviewFilter struct {
	Query          string
	From, To       time.Time
	InterviewerIDs []string
	CandidateIDs   []string
	Limit          int
}

// EventFilter narrows proctor event lookups for one interview.
// Ascending order is used for report timelines, descending for the
// list endpoint.
type EventFilter struct {
	InterviewID string
	From, To    time.Time
	Type        string
	MinSeverity int
	Ascending   bool
	Limit       int
}

type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	UserByID(ctx context.Context, id string) (*domain.User, error)
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUsers(ctx context.Context, f UserFilter) ([]*domain.User, error)
}

type InterviewStore interface {
	CreateInterview(ctx context.Context, iv *domain.Interview) error
	InterviewByID(ctx context.Context, id string) (*domain.Interview, error)
	InterviewBySessionID(ctx context.Context, sessionID string) (*domain.Interview, error)
	// UpdateInterview applies fn to the stored record and writes it
	// back. The record passed to fn is a private copy.
	UpdateInterview(ctx context.Context, id string, fn func(*domain.Interview) error) (*domain.Interview, error)
	FindInterviews(ctx context.Context, f InterviewFilter) ([]*domain.Interview, error)
}

type EventStore interface {
	CreateEvent(ctx context.Context, ev *domain.ProctorEvent) error
	FindEvents(ctx context.Context, f EventFilter) ([]*domain.ProctorEvent, error)
}

// Store is the full document-store surface plus lifecycle.
type Store interface {
	UserStore
	InterviewStore
	EventStore
	Close() error
}
