package api

import (
	"errors"
	"strings"
	"time"

	"export-tracking-service/tracking/models"
	"export-tracking-service/tracking/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	OperatorHeader  = "X-Operator"
	RequestIDHeader = "X-Request-ID"

	sessionKey = "session"
)

// requestLogger logs one line per request and tags it with a request id.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		logger.Info("HTTP request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// requireSession resolves the acting operator from the X-Operator header,
// falling back to the stored login, and rejects the request without one.
func requireSession(sessions *services.SessionService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if name := strings.TrimSpace(c.GetHeader(OperatorHeader)); name != "" {
			c.Set(sessionKey, models.NewSession(name, time.Now()))
			c.Next()
			return
		}

		session, err := sessions.Current(c.Request.Context())
		if err != nil {
			if !errors.Is(err, services.ErrUnauthenticated) {
				logger.Error("Failed to resolve session", zap.Error(err))
			}
			respondError(c, logger, services.ErrUnauthenticated)
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) models.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(models.Session); ok {
			return s
		}
	}
	return models.Session{}
}
