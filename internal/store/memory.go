package store

import (
	"context"
	"strings"
	"sync"

	"github.com/greenroom-live/greenroom/internal/domain"
)

// Memory is an in-process Store used by tests and by deployments that
// accept losing history on restart.
type Memory struct {
	mu         sync.RWMutex
	users      map[string]*domain.User
	interviews map[string]*domain.Interview
	events     []*domain.ProctorEvent
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[string]*domain.User),
		interviews: make(map[string]*domain.Interview),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) UserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindUsers(_ context.Context, f UserFilter) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.User
	for _, u := range m.users {
		if matchUser(u, f) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Memory) CreateInterview(_ context.Context, iv *domain.Interview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *iv
	m.interviews[iv.ID] = &cp
	return nil
}

func (m *Memory) InterviewByID(_ context.Context, id string) (*domain.Interview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	iv, ok := m.interviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *iv
	return &cp, nil
}

func (m *Memory) InterviewBySessionID(_ context.Context, sessionID string) (*domain.Interview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, iv := range m.interviews {
		if iv.SessionID == sessionID {
			cp := *iv
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateInterview(_ context.Context, id string, fn func(*domain.Interview) error) (*domain.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	iv, ok := m.interviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *iv
	if err := fn(&cp); err != nil {
		return nil, err
	}
	m.interviews[id] = &cp
	out := cp
	return &out, nil
}

func (m *Memory) FindInterviews(_ context.Context, f InterviewFilter) ([]*domain.Interview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Interview
	for _, iv := range m.interviews {
		if matchInterview(iv, f) {
			cp := *iv
			out = append(out, &cp)
		}
	}
	sortInterviews(out)
	return capInterviews(out, f.Limit), nil
}

func (m *Memory) CreateEvent(_ context.Context, ev *domain.ProctorEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ev
	m.events = append(m.events, &cp)
	return nil
}

func (m *Memory) FindEvents(_ context.Context, f EventFilter) ([]*domain.ProctorEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ProctorEvent
	for _, ev := range m.events {
		if matchEvent(ev, f) {
			cp := *ev
			out = append(out, &cp)
		}
	}
	sortEvents(out, f.Ascending)
	return capEvents(out, f.Limit), nil
}
