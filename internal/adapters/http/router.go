// Package http is the REST surface: session management, the auth
// collaborator, proctor event ingestion and reporting, plus the
// websocket signaling endpoint and prometheus metrics.
package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/greenroom-live/greenroom/internal/adapters/signal"
	"github.com/greenroom-live/greenroom/internal/app"
	"github.com/greenroom-live/greenroom/internal/auth"
	"github.com/greenroom-live/greenroom/internal/config"
	"github.com/greenroom-live/greenroom/internal/domain"
	"github.com/greenroom-live/greenroom/internal/proctor"
)

type Deps struct {
	Cfg     *config.Config
	Auth    *auth.Service
	Ctl     *app.Controller
	Proctor *proctor.Service
	Hub     *signal.Hub
}

func SetupRouter(ctx context.Context, d Deps) *gin.Engine {
	if d.Cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if d.Cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{d.Cfg.FrontendOrigin},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	h := &handlers{deps: d}
	r.Use(h.identify)

	log.Info().Str("module", "adapters.http").Str("origin", d.Cfg.FrontendOrigin).Msg("router setup")

	api := r.Group("/api")

	authAPI := api.Group("/auth")
	authAPI.POST("/register", h.register)
	authAPI.POST("/login", h.login)
	authAPI.POST("/logout", h.logout)
	authAPI.GET("/me", h.me)

	sessions := api.Group("/sessions")
	sessions.POST("/create", requireRole(domain.RoleInterviewer), h.createSession)
	sessions.GET("/:sessionId", h.getSession)
	sessions.POST("/:sessionId/close", requireRole(domain.RoleInterviewer), h.closeSession)
	sessions.POST("/:sessionId/title", requireRole(domain.RoleInterviewer), h.renameSession)

	proc := api.Group("/proctor")
	proc.POST("/events", h.createEvent)
	proc.POST("/events/batch", h.createEventsBatch)
	proc.GET("/events", requireAuth, h.listEvents)
	proc.GET("/score/:interviewId", requireAuth, h.integrityScore)
	proc.GET("/interviews", requireRole(domain.RoleInterviewer), h.listInterviews)
	proc.GET("/report/:interviewId", requireRole(domain.RoleInterviewer), h.report)

	r.GET("/ws/signal", func(c *gin.Context) {
		d.Hub.HandleSignal(ctx, c)
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type handlers struct {
	deps Deps
}

// identify resolves the auth cookie into a user on the request
// context. Resolution failure leaves the request anonymous; role gates
// downstream decide whether that matters.
func (h *handlers) identify(c *gin.Context) {
	token, err := c.Cookie(auth.CookieName)
	if err == nil && token != "" {
		if u := h.deps.Auth.Resolve(c.Request.Context(), token); u != nil {
			c.Set("user", u)
		}
	}
	c.Next()
}

func currentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get("user"); ok {
		return v.(*domain.User)
	}
	return nil
}

func requireAuth(c *gin.Context) {
	if currentUser(c) == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
		return
	}
	c.Next()
}

func requireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		if u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
			return
		}
		if !u.Role.Satisfies(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
