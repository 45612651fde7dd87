package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/greenroom-live/greenroom/internal/domain"
)

// handleSDP forwards an offer or answer verbatim to the other room
// member(s). The SDP body is an opaque blob; only the sender's slot
// membership is checked, and non-members are dropped without any
// response so stale sockets learn nothing.
func (h *Hub) handleSDP(c *wsConn, msgType string, data []byte) {
	var p sdpPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad sdp payload")
		return
	}
	peers, ok := h.relay.Peers(domain.SessionID(p.SessionID), c.id)
	if !ok {
		return
	}
	for _, peer := range peers {
		if dst, found := h.get(peer); found {
			h.sendJSON(dst, sdpForward{Type: msgType, SDP: p.SDP})
		}
	}
}

func (h *Hub) handleICECandidate(c *wsConn, data []byte) {
	var p icePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad ice payload")
		return
	}
	peers, ok := h.relay.Peers(domain.SessionID(p.SessionID), c.id)
	if !ok {
		return
	}
	for _, peer := range peers {
		if dst, found := h.get(peer); found {
			h.sendJSON(dst, iceForward{Type: msgICECandidate, Candidate: p.Candidate})
		}
	}
}

func (h *Hub) handleStreamState(c *wsConn, data []byte, on bool) {
	var p sessionRef
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad stream payload")
		return
	}
	h.relay.SetStreaming(domain.SessionID(p.SessionID), c.id, on)
}

func (h *Hub) handleScreenState(c *wsConn, data []byte, on bool) {
	var p sessionRef
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad screen payload")
		return
	}
	h.relay.SetScreenSharing(domain.SessionID(p.SessionID), c.id, on)
}

func (h *Hub) handleHealth(c *wsConn, data []byte) {
	var p healthPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad health payload")
		return
	}
	h.relay.Health(domain.SessionID(p.SessionID), c.id, p.Healthy)
}

func (h *Hub) handleAudioStatus(c *wsConn, data []byte) {
	var p audioPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad audio payload")
		return
	}
	h.relay.MicStatus(domain.SessionID(p.SessionID), c.id, p.Enabled)
}
