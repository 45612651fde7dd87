package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/greenroom-live/greenroom/internal/proctor"
)

func requesterID(c *gin.Context) string {
	if u := currentUser(c); u != nil {
		return u.ID
	}
	return ""
}

// parseTime accepts RFC3339; anything else is treated as absent.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (h *handlers) createEvent(c *gin.Context) {
	var in proctor.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_type"})
		return
	}

	ev, err := h.deps.Proctor.Ingest(c.Request.Context(), in, requesterID(c))
	switch {
	case errors.Is(err, proctor.ErrMissingType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_type"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("create event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	default:
		c.JSON(http.StatusOK, gin.H{"event": ev})
	}
}

func (h *handlers) createEventsBatch(c *gin.Context) {
	var req struct {
		Events *[]proctor.EventInput `json:"events"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Events == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_events_array"})
		return
	}

	events, err := h.deps.Proctor.IngestBatch(c.Request.Context(), *req.Events, requesterID(c))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create events batch")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

func (h *handlers) listEvents(c *gin.Context) {
	q := proctor.EventQuery{
		InterviewID: c.Query("interviewId"),
		SessionID:   c.Query("sessionId"),
		From:        parseTime(c.Query("from")),
		To:          parseTime(c.Query("to")),
		Type:        c.Query("type"),
	}
	if raw := c.Query("minSeverity"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			q.MinSeverity = n
		}
	}

	events, err := h.deps.Proctor.ListEvents(c.Request.Context(), q)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *handlers) integrityScore(c *gin.Context) {
	interviewID := c.Param("interviewId")
	if interviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_interview_id"})
		return
	}

	result, err := h.deps.Proctor.Score(c.Request.Context(), interviewID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("integrity score")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) listInterviews(c *gin.Context) {
	q := proctor.InterviewQuery{
		Query:            c.Query("q"),
		From:             parseTime(c.Query("from")),
		To:               parseTime(c.Query("to")),
		CandidateEmail:   c.Query("candidateEmail"),
		InterviewerEmail: c.Query("interviewerEmail"),
	}
	if raw := c.Query("minScore"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			q.MinScore = &n
		}
	}

	interviews, err := h.deps.Proctor.ListInterviews(c.Request.Context(), q)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list interviews")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": interviews})
}

func (h *handlers) report(c *gin.Context) {
	report, err := h.deps.Proctor.Report(c.Request.Context(), c.Param("interviewId"))
	switch {
	case errors.Is(err, proctor.ErrInterviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "interview_not_found"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	default:
		c.JSON(http.StatusOK, gin.H{"report": report})
	}
}
