package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// pongWait is derived from the ping period so a missed pong closes the
// transport, which is what turns a silently dead peer into a
// disconnect for the lifecycle controller.
func (h *Hub) pongWait() time.Duration {
	return h.cfg.PingPeriod * 10 / 9
}

func (h *Hub) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(h.cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump handles each inbound frame to completion before reading the
// next; a slot transition and its broadcast are therefore never
// interleaved with another message from the same connection.
func (h *Hub) readPump(ctx context.Context, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump closing")
		h.remove(c.id)
		h.ctl.Disconnect(c.id)
		c.Close()
	}()

	c.conn.SetReadLimit(h.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("readPump read error")
				return
			}
			h.dispatch(c, data)
		}
	}
}

func (h *Hub) dispatch(c *wsConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case msgJoinSession:
		h.handleJoin(c, data)
	case msgRequestOffer:
		h.handleRequestOffer(c, data)
	case msgOffer, msgAnswer:
		h.handleSDP(c, env.Type, data)
	case msgICECandidate:
		h.handleICECandidate(c, data)
	case msgStreamStart:
		h.handleStreamState(c, data, true)
	case msgStreamStop:
		h.handleStreamState(c, data, false)
	case msgScreenStart:
		h.handleScreenState(c, data, true)
	case msgScreenStop:
		h.handleScreenState(c, data, false)
	case msgHealth:
		h.handleHealth(c, data)
	case msgAudioStatus:
		h.handleAudioStatus(c, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (h *Hub) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (h *Hub) sendError(c *wsConn, msg string) {
	h.sendJSON(c, errorMsg{Type: msgError, Msg: msg})
}
