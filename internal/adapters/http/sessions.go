package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/greenroom-live/greenroom/internal/app"
	"github.com/greenroom-live/greenroom/internal/domain"
)

func (h *handlers) createSession(c *gin.Context) {
	var req struct {
		InterviewerName string `json:"interviewerName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.InterviewerName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interviewerName required"})
		return
	}

	id := h.deps.Ctl.CreateSession(req.InterviewerName, currentUser(c))
	c.JSON(http.StatusOK, gin.H{"sessionId": id})
}

func (h *handlers) getSession(c *gin.Context) {
	view, err := h.deps.Ctl.Snapshot(domain.SessionID(c.Param("sessionId")))
	if errors.Is(err, app.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": view})
}

func (h *handlers) closeSession(c *gin.Context) {
	err := h.deps.Ctl.Close(domain.SessionID(c.Param("sessionId")), currentUser(c))
	switch {
	case errors.Is(err, app.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found"})
	case errors.Is(err, app.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("close session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func (h *handlers) renameSession(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	err := h.deps.Ctl.RenameTitle(c.Request.Context(), domain.SessionID(c.Param("sessionId")), req.Title)
	switch {
	case errors.Is(err, app.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found"})
	case errors.Is(err, app.ErrInterviewNotLinked):
		c.JSON(http.StatusNotFound, gin.H{"error": "interview_not_linked"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("rename session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
