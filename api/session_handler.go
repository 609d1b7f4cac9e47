package api

import (
	"net/http"

	"export-tracking-service/tracking/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionHandler struct {
	sessions *services.SessionService
	logger   *zap.Logger
}

func NewSessionHandler(sessions *services.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

func (h *SessionHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/session")
	g.POST("/login", h.Login)   // POST /api/v1/session/login
	g.POST("/logout", h.Logout) // POST /api/v1/session/logout
	g.GET("", h.Current)        // GET /api/v1/session
}

type loginRequest struct {
	Name string `json:"name"`
}

func (h *SessionHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_BODY", err.Error())
		return
	}
	session, err := h.sessions.Login(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(session))
}

func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(nil))
}

func (h *SessionHandler) Current(c *gin.Context) {
	session, err := h.sessions.Current(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(session))
}

type DashboardHandler struct {
	dashboard *services.DashboardService
	logger    *zap.Logger
}

func NewDashboardHandler(dashboard *services.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, logger: logger}
}

func (h *DashboardHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/dashboard", h.Stats)
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(stats))
}
