package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/greenroom-live/greenroom/internal/domain"
	"github.com/greenroom-live/greenroom/internal/metrics"
	"github.com/greenroom-live/greenroom/internal/store"
)

// Notifier is the outbound half of the signaling channel. The
// controller fans state changes out through it without knowing the
// wire format.
type Notifier interface {
	SessionUpdate(conn domain.ConnID, view domain.SessionView)
	RequestOffer(conn domain.ConnID)
	AudioStatus(conn domain.ConnID, enabled bool)
}

// Controller is the session lifecycle state machine. One mutex
// serializes every slot transition together with its broadcast
// fan-out, so transitions are atomic with respect to other signaling
// events. Persistence happens outside the lock as detached tasks and
// gives no ordering guarantee relative to later signaling.
type Controller struct {
	mu         sync.Mutex
	reg        *Registry
	interviews store.InterviewStore
	tasks      *Tasks
	notify     Notifier
}

func NewController(reg *Registry, interviews store.InterviewStore, tasks *Tasks) *Controller {
	return &Controller{reg: reg, interviews: interviews, tasks: tasks}
}

// Bind attaches the notifier. Called once from the composition root;
// the signal hub needs the controller first, so this breaks the cycle.
func (c *Controller) Bind(n Notifier) { c.notify = n }

// CreateSession registers a live session and links a persisted
// interview record to it in the background. The caller gets the id
// before the link lands; a join or close racing the link sees an empty
// interviewId and must tolerate it.
func (c *Controller) CreateSession(interviewerName string, creator *domain.User) domain.SessionID {
	s := c.reg.Create(interviewerName)
	id := s.ID

	iv := &domain.Interview{
		ID:        uuid.NewString(),
		SessionID: string(id),
		StartTime: time.Now(),
		CreatedAt: time.Now(),
	}
	if creator != nil {
		iv.InterviewerID = creator.ID
	}
	c.tasks.Submit("link-interview", func() error {
		if err := c.interviews.CreateInterview(context.Background(), iv); err != nil {
			return err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if s, ok := c.reg.Get(id); ok {
			s.InterviewID = iv.ID
		}
		return nil
	})
	return id
}

// Snapshot returns the sanitized view of a session.
func (c *Controller) Snapshot(id domain.SessionID) (domain.SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.reg.Get(id)
	if !ok {
		return domain.SessionView{}, ErrSessionNotFound
	}
	return s.View(), nil
}

// Join connects conn into the session's role slot. A slot held by a
// different live connection rejects with ErrRoleConflict; the same
// connection rejoining its own slot succeeds and refreshes the
// connection reference and display name (page refresh support).
func (c *Controller) Join(id domain.SessionID, role domain.Role, name string, conn domain.ConnID, user *domain.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.reg.Get(id)
	if !ok {
		return ErrSessionNotFound
	}

	var slot *domain.Slot
	switch role {
	case domain.RoleInterviewer:
		if s.Interviewer == nil {
			s.Interviewer = &domain.Slot{Name: "Interviewer"}
		}
		slot = s.Interviewer
	case domain.RoleCandidate:
		if s.Candidate == nil {
			s.Candidate = &domain.Slot{Name: "Candidate"}
		}
		slot = s.Candidate
	default:
		return ErrInvalidRole
	}

	if slot.Connected && slot.Conn != conn {
		return ErrRoleConflict
	}

	if name != "" {
		slot.Name = name
	}
	slot.Conn = conn
	slot.Connected = true
	if user != nil {
		slot.UserID = user.ID
	}
	s.LastUpdate = time.Now()
	c.reg.JoinRoom(conn, id)

	log.Info().Str("module", "app.lifecycle").
		Str("session", string(id)).Str("role", string(role)).Str("conn", string(conn)).
		Msg("joined session")

	if role == domain.RoleCandidate && user != nil && s.InterviewID != "" {
		c.stampCandidate(s.InterviewID, user.ID)
	}

	c.broadcastLocked(s)
	return nil
}

// stampCandidate records the candidate's user id on the linked
// interview so reports can resolve participants.
func (c *Controller) stampCandidate(interviewID, userID string) {
	c.tasks.Submit("stamp-candidate", func() error {
		_, err := c.interviews.UpdateInterview(context.Background(), interviewID, func(iv *domain.Interview) error {
			if iv.CandidateID == "" {
				iv.CandidateID = userID
			}
			return nil
		})
		return err
	})
}

// Disconnect handles transport teardown: every session whose slot
// references conn marks that slot disconnected, clears transient media
// flags and broadcasts. When both slots end up disconnected on a
// session with a linked interview, the interview end time is stamped
// best-effort in the background.
func (c *Controller) Disconnect(conn domain.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.reg.All() {
		changed := false
		if s.Interviewer != nil && s.Interviewer.Conn == conn {
			s.Interviewer.Connected = false
			s.Interviewer.Conn = ""
			changed = true
			log.Info().Str("module", "app.lifecycle").Str("session", string(s.ID)).Msg("interviewer disconnected")
		}
		if s.Candidate != nil && s.Candidate.Conn == conn {
			s.Candidate.Connected = false
			s.Candidate.Conn = ""
			s.Candidate.Streaming = false
			s.Candidate.ScreenSharing = false
			changed = true
			log.Info().Str("module", "app.lifecycle").Str("session", string(s.ID)).Msg("candidate disconnected")
		}
		if !changed {
			continue
		}
		s.LastUpdate = time.Now()
		c.broadcastLocked(s)

		interviewerGone := s.Interviewer == nil || !s.Interviewer.Connected
		candidateGone := s.Candidate == nil || !s.Candidate.Connected
		if interviewerGone && candidateGone && s.InterviewID != "" {
			c.stampEndTime(s.InterviewID)
		}
	}
	c.reg.LeaveRoom(conn)
}

func (c *Controller) stampEndTime(interviewID string) {
	c.tasks.Submit("stamp-end-time", func() error {
		_, err := c.interviews.UpdateInterview(context.Background(), interviewID, func(iv *domain.Interview) error {
			if iv.EndTime == nil {
				now := time.Now()
				iv.EndTime = &now
			}
			return nil
		})
		return err
	})
}

// Close removes the session. Only an admin or the interviewer of
// record may close; the linked interview end time is stamped in the
// background. Closing an absent session is ErrSessionNotFound.
func (c *Controller) Close(id domain.SessionID, by *domain.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.reg.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	if by == nil {
		return ErrForbidden
	}
	owner := s.Interviewer != nil && s.Interviewer.UserID != "" && s.Interviewer.UserID == by.ID
	if by.Role != domain.RoleAdmin && !owner {
		return ErrForbidden
	}

	if s.InterviewID != "" {
		c.stampEndTime(s.InterviewID)
	}
	c.reg.Remove(id)
	log.Info().Str("module", "app.lifecycle").Str("session", string(id)).Str("by", by.ID).Msg("closed session")
	return nil
}

// RequestOffer asks the candidate connection to (re)send a media
// offer; used after interviewer refresh or when the candidate is
// connected but not yet streaming.
func (c *Controller) RequestOffer(id domain.SessionID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.reg.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	if s.Candidate == nil || !s.Candidate.Connected {
		return ErrCandidateNotConnected
	}
	c.notify.RequestOffer(s.Candidate.Conn)
	return nil
}

// RenameTitle updates the linked interview's title.
func (c *Controller) RenameTitle(ctx context.Context, id domain.SessionID, title string) error {
	iv, err := c.interviews.InterviewBySessionID(ctx, string(id))
	if err != nil {
		// Either the session never existed or the link has not landed.
		if _, ok := c.reg.Get(id); ok {
			return ErrInterviewNotLinked
		}
		return ErrSessionNotFound
	}
	_, err = c.interviews.UpdateInterview(ctx, iv.ID, func(iv *domain.Interview) error {
		iv.Title = title
		return nil
	})
	return err
}

// broadcastLocked fans the session snapshot out to every room member.
// Caller holds c.mu, which is what makes transition+broadcast atomic
// against other signaling events.
func (c *Controller) broadcastLocked(s *domain.Session) {
	view := s.View()
	for _, conn := range c.reg.RoomMembers(s.ID) {
		c.notify.SessionUpdate(conn, view)
	}
	metrics.BroadcastsTotal.Inc()
}
