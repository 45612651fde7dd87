package signal

import (
	"github.com/pion/webrtc/v4"

	"github.com/greenroom-live/greenroom/internal/domain"
)

// Wire contract: every frame is a JSON object with a "type" field
// naming the event. Inbound payloads are decoded into this closed set
// of schemas at the channel boundary; unknown types are logged and
// ignored.
const (
	msgJoinSession  = "join_session"
	msgSessionState = "session_update"
	msgRequestOffer = "request-offer"
	msgOffer        = "webrtc-offer"
	msgAnswer       = "webrtc-answer"
	msgICECandidate = "webrtc-ice-candidate"
	msgStreamStart  = "stream-started"
	msgStreamStop   = "stream-stopped"
	msgScreenStart  = "candidate_screen_start"
	msgScreenStop   = "candidate_screen_stop"
	msgHealth       = "candidate-health"
	msgAudioStatus  = "interviewer-audio-status"
	msgError        = "signal_error"
)

type envelope struct {
	Type string `json:"type"`
}

type joinPayload struct {
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
	Name      string `json:"name,omitempty"`
}

// sessionRef is the payload of every event that only names its room.
type sessionRef struct {
	SessionID string `json:"sessionId"`
}

type sdpPayload struct {
	SessionID string `json:"sessionId"`
	SDP       string `json:"sdp"`
}

// icePayload carries the browser's RTCIceCandidate JSON. The struct
// shape is validated; the candidate line itself is relayed, never
// interpreted.
type icePayload struct {
	SessionID string                  `json:"sessionId"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

type healthPayload struct {
	SessionID string `json:"sessionId"`
	Healthy   bool   `json:"healthy"`
}

type audioPayload struct {
	SessionID string `json:"sessionId"`
	Enabled   bool   `json:"enabled"`
}

type errorMsg struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

type sessionUpdateMsg struct {
	Type string `json:"type"`
	domain.SessionView
}

type requestOfferMsg struct {
	Type string `json:"type"`
}

type sdpForward struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

type iceForward struct {
	Type      string                  `json:"type"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

type audioForward struct {
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}
