package domain

import "time"

// Interview is the persisted record backing a live session. Field
// names are the storage and wire contract; reports and exports depend
// on them round-tripping exactly.
type Interview struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"sessionId"`
	Title         string         `json:"title,omitempty"`
	InterviewerID string         `json:"interviewerId,omitempty"`
	CandidateID   string         `json:"candidateId,omitempty"`
	StartTime     time.Time      `json:"startTime"`
	EndTime       *time.Time     `json:"endTime,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Proctor event types reported by the client-side detector. The set is
// open on the wire; unknown types default to severity 1.
const (
	EventNoFace           = "no_face_detected"
	EventMultipleFaces    = "multiple_faces_detected"
	EventSuspiciousObject = "suspicious_object_detected"
	EventLookingAway      = "looking_away"
	EventModelsLoaded     = "models_loaded"
	EventDetectionStarted = "detection_started"
	EventDetectionStopped = "detection_stopped"
)

// ProctorEvent is an immutable client-reported integrity observation.
// Severity 0 is informational.
type ProctorEvent struct {
	ID          string         `json:"id"`
	InterviewID string         `json:"interviewId,omitempty"`
	UserID      string         `json:"userId,omitempty"`
	Type        string         `json:"type"`
	Details     map[string]any `json:"details,omitempty"`
	Severity    int            `json:"severity"`
	Timestamp   time.Time      `json:"timestamp"`
}
