package app

import "errors"

var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrRoleConflict          = errors.New("role already connected")
	ErrInvalidRole           = errors.New("invalid role")
	ErrCandidateNotConnected = errors.New("candidate not connected")
	ErrForbidden             = errors.New("forbidden")
	ErrInterviewNotLinked    = errors.New("interview not linked yet")
)
