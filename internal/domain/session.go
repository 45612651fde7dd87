package domain

import "time"

type (
	// SessionID is the opaque room key: fixed-length alphanumeric,
	// case-sensitive.
	SessionID string
	// ConnID identifies one live signaling connection.
	ConnID string
)

// Health is the last candidate health report.
type Health struct {
	Healthy bool      `json:"healthy"`
	TS      time.Time `json:"ts"`
}

// Slot is the interviewer or candidate half of a session. Conn is
// non-empty iff Connected is true. Streaming, ScreenSharing and
// LastHealth are only meaningful on the candidate slot.
type Slot struct {
	Name          string
	Conn          ConnID
	Connected     bool
	UserID        string
	Streaming     bool
	ScreenSharing bool
	LastHealth    *Health
}

// Session is the live pairing of one interviewer and one candidate.
// Tracked only in memory; lost on restart.
type Session struct {
	ID          SessionID
	Interviewer *Slot
	Candidate   *Slot
	// InterviewID links the persisted interview record. Populated
	// asynchronously after creation; callers tolerate it being empty
	// for a short window.
	InterviewID string
	LastUpdate  time.Time
}

// SlotView is the broadcast projection of the interviewer slot. It
// never exposes connection references.
type SlotView struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	UserID    string `json:"userId,omitempty"`
}

// CandidateView extends SlotView with the candidate media flags.
type CandidateView struct {
	Name          string `json:"name"`
	Connected     bool   `json:"connected"`
	UserID        string `json:"userId,omitempty"`
	Streaming     bool   `json:"streaming"`
	ScreenSharing bool   `json:"screenSharing"`
}

// SessionView is the sanitized snapshot sent to every room member on
// any state change and returned by the session GET endpoint.
type SessionView struct {
	SessionID   string         `json:"sessionId"`
	InterviewID string         `json:"interviewId,omitempty"`
	Interviewer *SlotView      `json:"interviewer"`
	Candidate   *CandidateView `json:"candidate"`
	LastUpdate  time.Time      `json:"lastUpdate"`
}

// View builds the sanitized snapshot of the session.
func (s *Session) View() SessionView {
	v := SessionView{
		SessionID:   string(s.ID),
		InterviewID: s.InterviewID,
		LastUpdate:  s.LastUpdate,
	}
	if s.Interviewer != nil {
		v.Interviewer = &SlotView{
			Name:      s.Interviewer.Name,
			Connected: s.Interviewer.Connected,
			UserID:    s.Interviewer.UserID,
		}
	}
	if s.Candidate != nil {
		v.Candidate = &CandidateView{
			Name:          s.Candidate.Name,
			Connected:     s.Candidate.Connected,
			UserID:        s.Candidate.UserID,
			Streaming:     s.Candidate.Streaming,
			ScreenSharing: s.Candidate.ScreenSharing,
		}
	}
	return v
}
