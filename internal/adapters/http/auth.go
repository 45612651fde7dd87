package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/greenroom-live/greenroom/internal/auth"
	"github.com/greenroom-live/greenroom/internal/domain"
)

const cookieMaxAge = 3600 * 24 * 7

func (h *handlers) setAuthCookie(c *gin.Context, token string) {
	c.SetCookie(auth.CookieName, token, cookieMaxAge, "/", "", false, true)
}

func (h *handlers) register(c *gin.Context) {
	var req struct {
		Name     string      `json:"name"`
		Email    string      `json:"email"`
		Password string      `json:"password"`
		Role     domain.Role `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	u, token, err := h.deps.Auth.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
	case errors.Is(err, domain.ErrNameEmpty), errors.Is(err, domain.ErrNameTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_name"})
	case errors.Is(err, auth.ErrEmailExists):
		c.JSON(http.StatusConflict, gin.H{"error": "email_exists"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("register")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	default:
		h.setAuthCookie(c, token)
		c.JSON(http.StatusOK, gin.H{"user": u.Public()})
	}
}

func (h *handlers) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	u, token, err := h.deps.Auth.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	default:
		h.setAuthCookie(c, token)
		c.JSON(http.StatusOK, gin.H{"user": u.Public()})
	}
}

func (h *handlers) logout(c *gin.Context) {
	c.SetCookie(auth.CookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handlers) me(c *gin.Context) {
	u := currentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u.Public()})
}
