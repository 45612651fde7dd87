package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/greenroom-live/greenroom/internal/app"
	"github.com/greenroom-live/greenroom/internal/domain"
)

func (h *Hub) handleJoin(c *wsConn, data []byte) {
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		h.sendError(c, "bad_payload")
		return
	}

	role := domain.Role(p.Role)
	err := h.ctl.Join(domain.SessionID(p.SessionID), role, p.Name, c.id, c.user)
	switch {
	case errors.Is(err, app.ErrSessionNotFound):
		h.sendError(c, "Invalid session ID")
	case errors.Is(err, app.ErrRoleConflict):
		if role == domain.RoleInterviewer {
			h.sendError(c, "An interviewer is already in this session")
		} else {
			h.sendError(c, "A candidate is already in this session")
		}
	case errors.Is(err, app.ErrInvalidRole):
		h.sendError(c, "Invalid role")
	case err != nil:
		h.sendError(c, "join failed")
	}
}

func (h *Hub) handleRequestOffer(c *wsConn, data []byte) {
	var p sessionRef
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad request-offer payload")
		h.sendError(c, "bad_payload")
		return
	}

	err := h.ctl.RequestOffer(domain.SessionID(p.SessionID))
	switch {
	case errors.Is(err, app.ErrSessionNotFound):
		h.sendError(c, "Invalid session ID")
	case errors.Is(err, app.ErrCandidateNotConnected):
		h.sendError(c, "Candidate not connected")
	}
}
