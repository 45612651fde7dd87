package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/greenroom-live/greenroom/internal/app"
	"github.com/greenroom-live/greenroom/internal/config"
	"github.com/greenroom-live/greenroom/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn is one live signaling connection with a buffered outbound
// channel drained by the write pump. A full channel drops the frame
// instead of blocking the sender.
type wsConn struct {
	id   domain.ConnID
	conn *websocket.Conn
	user *domain.User
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- frame:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// Hub owns the live connection set and is the controller's Notifier.
type Hub struct {
	ctl   *app.Controller
	relay *app.Relay
	cfg   *config.Config

	mu    sync.RWMutex
	conns map[domain.ConnID]*wsConn
}

func NewHub(ctl *app.Controller, relay *app.Relay, cfg *config.Config) *Hub {
	return &Hub{
		ctl:   ctl,
		relay: relay,
		cfg:   cfg,
		conns: make(map[domain.ConnID]*wsConn),
	}
}

func (h *Hub) add(c *wsConn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
}

func (h *Hub) remove(id domain.ConnID) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}

func (h *Hub) get(id domain.ConnID) (*wsConn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[id]
	return c, ok
}

// SessionUpdate implements app.Notifier.
func (h *Hub) SessionUpdate(conn domain.ConnID, view domain.SessionView) {
	if c, ok := h.get(conn); ok {
		h.sendJSON(c, sessionUpdateMsg{Type: msgSessionState, SessionView: view})
	}
}

// RequestOffer implements app.Notifier.
func (h *Hub) RequestOffer(conn domain.ConnID) {
	if c, ok := h.get(conn); ok {
		h.sendJSON(c, requestOfferMsg{Type: msgRequestOffer})
	}
}

// AudioStatus implements app.Notifier.
func (h *Hub) AudioStatus(conn domain.ConnID, enabled bool) {
	if c, ok := h.get(conn); ok {
		h.sendJSON(c, audioForward{Type: msgAudioStatus, Enabled: enabled})
	}
}

// HandleSignal upgrades the request into a signaling connection. The
// resolved identity (or anonymity) of the request rides on the
// connection for its whole lifetime.
func (h *Hub) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &wsConn{
		id:   domain.ConnID(uuid.NewString()),
		conn: ws,
		send: make(chan []byte, 32),
	}
	if u, ok := c.Get("user"); ok {
		conn.user = u.(*domain.User)
	}
	h.add(conn)

	log.Info().Str("module", "signal").Str("conn", string(conn.id)).Msg("new signaling connection")

	ctx, cancel := context.WithCancel(ctx)
	go h.writePump(ctx, conn)
	go func() {
		defer cancel()
		h.readPump(ctx, conn)
	}()
}
