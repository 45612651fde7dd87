package app

import (
	"crypto/rand"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/greenroom-live/greenroom/internal/domain"
	"github.com/greenroom-live/greenroom/internal/metrics"
)

// sessionIDLen and sessionIDAlphabet are part of the wire contract:
// ids are fixed-length, case-sensitive alphanumerics.
const (
	sessionIDLen      = 12
	sessionIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Registry owns the in-memory session map and the room membership of
// live connections. State is not persisted; losing it on restart is an
// explicit scope boundary. The registry is injected into the lifecycle
// controller and relay, never reached as a package singleton.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*domain.Session
	rooms    map[domain.SessionID]map[domain.ConnID]struct{}
	conns    map[domain.ConnID]domain.SessionID
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.SessionID]*domain.Session),
		rooms:    make(map[domain.SessionID]map[domain.ConnID]struct{}),
		conns:    make(map[domain.ConnID]domain.SessionID),
	}
}

func newSessionID() domain.SessionID {
	b := make([]byte, sessionIDLen)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is in no state to
		// serve anything.
		panic(err)
	}
	for i := range b {
		b[i] = sessionIDAlphabet[int(b[i])%len(sessionIDAlphabet)]
	}
	return domain.SessionID(b)
}

// Create registers a new session with a collision-free id and the
// interviewer name pre-filled on a disconnected interviewer slot.
func (r *Registry) Create(interviewerName string) *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := newSessionID()
	for {
		if _, taken := r.sessions[id]; !taken {
			break
		}
		id = newSessionID()
	}

	s := &domain.Session{
		ID:          id,
		Interviewer: &domain.Slot{Name: interviewerName},
	}
	r.sessions[id] = s
	metrics.LiveSessions.Set(float64(len(r.sessions)))
	log.Info().Str("module", "app.registry").Str("session", string(id)).Msg("created session")
	return s
}

func (r *Registry) Get(id domain.SessionID) (*domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Remove(id domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	for conn := range r.rooms[id] {
		delete(r.conns, conn)
	}
	delete(r.rooms, id)
	metrics.LiveSessions.Set(float64(len(r.sessions)))
	log.Info().Str("module", "app.registry").Str("session", string(id)).Msg("removed session")
}

// All returns the current session set; used by the disconnect scan.
func (r *Registry) All() []*domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// JoinRoom adds conn to the broadcast scope of the session. A
// connection belongs to at most one room; rejoining moves it.
func (r *Registry) JoinRoom(conn domain.ConnID, id domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.conns[conn]; ok && prev != id {
		delete(r.rooms[prev], conn)
	}
	if r.rooms[id] == nil {
		r.rooms[id] = make(map[domain.ConnID]struct{})
	}
	r.rooms[id][conn] = struct{}{}
	r.conns[conn] = id
}

func (r *Registry) LeaveRoom(conn domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.conns[conn]; ok {
		delete(r.rooms[id], conn)
		delete(r.conns, conn)
	}
}

// RoomMembers returns every connection currently joined to the
// session; this is the broadcast scope.
func (r *Registry) RoomMembers(id domain.SessionID) []domain.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ConnID, 0, len(r.rooms[id]))
	for conn := range r.rooms[id] {
		out = append(out, conn)
	}
	return out
}

func (r *Registry) RoomOf(conn domain.ConnID) (domain.SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.conns[conn]
	return id, ok
}
