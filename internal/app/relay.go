package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/greenroom-live/greenroom/internal/domain"
)

// Relay governs who may send what to whom. Payloads stay opaque; the
// only state it touches are the candidate media flags. Messages from
// connections that do not occupy a known slot in the target session
// are dropped silently so stale sockets learn nothing about the room.
type Relay struct {
	ctl *Controller
}

func NewRelay(ctl *Controller) *Relay {
	return &Relay{ctl: ctl}
}

// candidateLocked returns the session and candidate slot when conn is
// the recorded candidate connection.
func (r *Relay) candidateLocked(id domain.SessionID, conn domain.ConnID) (*domain.Session, *domain.Slot, bool) {
	s, ok := r.ctl.reg.Get(id)
	if !ok || s.Candidate == nil || s.Candidate.Conn != conn {
		return nil, nil, false
	}
	return s, s.Candidate, true
}

// SetStreaming flips the candidate streaming flag and re-broadcasts.
// Stale or duplicate senders are ignored without a broadcast.
func (r *Relay) SetStreaming(id domain.SessionID, conn domain.ConnID, on bool) {
	r.ctl.mu.Lock()
	defer r.ctl.mu.Unlock()
	s, cand, ok := r.candidateLocked(id, conn)
	if !ok {
		return
	}
	cand.Streaming = on
	s.LastUpdate = time.Now()
	log.Info().Str("module", "app.relay").Str("session", string(id)).Bool("streaming", on).Msg("candidate stream state")
	r.ctl.broadcastLocked(s)
}

// SetScreenSharing flips the candidate screen-share flag, same
// authorization rule as SetStreaming.
func (r *Relay) SetScreenSharing(id domain.SessionID, conn domain.ConnID, on bool) {
	r.ctl.mu.Lock()
	defer r.ctl.mu.Unlock()
	s, cand, ok := r.candidateLocked(id, conn)
	if !ok {
		return
	}
	cand.ScreenSharing = on
	s.LastUpdate = time.Now()
	log.Info().Str("module", "app.relay").Str("session", string(id)).Bool("screen", on).Msg("candidate screen state")
	r.ctl.broadcastLocked(s)
}

// Health mirrors the candidate's reported media health onto the
// streaming flag and stores the report timestamp. The re-broadcast is
// best-effort liveness display, not correctness-critical.
func (r *Relay) Health(id domain.SessionID, conn domain.ConnID, healthy bool) {
	r.ctl.mu.Lock()
	defer r.ctl.mu.Unlock()
	s, cand, ok := r.candidateLocked(id, conn)
	if !ok {
		return
	}
	now := time.Now()
	cand.Streaming = healthy
	cand.LastHealth = &domain.Health{Healthy: healthy, TS: now}
	s.LastUpdate = now
	r.ctl.broadcastLocked(s)
}

// MicStatus relays the interviewer's mute state directly to the
// candidate connection; not a session broadcast.
func (r *Relay) MicStatus(id domain.SessionID, conn domain.ConnID, enabled bool) {
	r.ctl.mu.Lock()
	defer r.ctl.mu.Unlock()
	s, ok := r.ctl.reg.Get(id)
	if !ok || s.Interviewer == nil || s.Interviewer.Conn != conn {
		return
	}
	if s.Candidate == nil || !s.Candidate.Connected {
		return
	}
	r.ctl.notify.AudioStatus(s.Candidate.Conn, enabled)
}

// Peers returns the forwarding targets for a point-to-point signaling
// message: every room member except the sender. The empty slice (and
// false) means the sender holds no slot in the session and the message
// must be dropped.
func (r *Relay) Peers(id domain.SessionID, sender domain.ConnID) ([]domain.ConnID, bool) {
	r.ctl.mu.Lock()
	defer r.ctl.mu.Unlock()
	s, ok := r.ctl.reg.Get(id)
	if !ok {
		return nil, false
	}
	member := (s.Interviewer != nil && s.Interviewer.Conn == sender) ||
		(s.Candidate != nil && s.Candidate.Conn == sender)
	if !member {
		return nil, false
	}
	var out []domain.ConnID
	for _, conn := range r.ctl.reg.RoomMembers(id) {
		if conn != sender {
			out = append(out, conn)
		}
	}
	return out, true
}
