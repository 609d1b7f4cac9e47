package api

import (
	"net/http"

	"export-tracking-service/tracking/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProducerHandler struct {
	producers *services.ProducerService
	logger    *zap.Logger
}

func NewProducerHandler(producers *services.ProducerService, logger *zap.Logger) *ProducerHandler {
	return &ProducerHandler{producers: producers, logger: logger}
}

func (h *ProducerHandler) Register(r *gin.Engine, auth gin.HandlerFunc) {
	g := r.Group("/api/v1/producers")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", auth, h.Create)
}

func (h *ProducerHandler) Create(c *gin.Context) {
	var in services.ProducerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "INVALID_BODY", err.Error())
		return
	}
	producer, err := h.producers.Create(c.Request.Context(), sessionFrom(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, CreateSuccessResponse(producer))
}

func (h *ProducerHandler) List(c *gin.Context) {
	producers, err := h.producers.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateListResponse(producers, len(producers)))
}

func (h *ProducerHandler) Get(c *gin.Context) {
	producer, err := h.producers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(producer))
}
