package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"export-tracking-service/tracking/geo"
	"export-tracking-service/tracking/geocoding"
	"export-tracking-service/tracking/models"
	"export-tracking-service/tracking/reports"
	"export-tracking-service/tracking/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BatchHandler struct {
	batches *services.BatchService
	logger  *zap.Logger
}

func NewBatchHandler(batches *services.BatchService, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{batches: batches, logger: logger}
}

func (h *BatchHandler) Register(r *gin.Engine, auth gin.HandlerFunc) {
	g := r.Group("/api/v1/batches")
	g.GET("", h.List)                          // GET /api/v1/batches?q=&status=
	g.POST("", auth, h.Create)                 // POST /api/v1/batches
	g.POST("/totals", h.Totals)                // POST /api/v1/batches/totals
	g.GET("/:id", h.Get)                       // GET /api/v1/batches/:id
	g.POST("/:id/seal", auth, h.Seal)          // POST /api/v1/batches/:id/seal
	g.POST("/:id/checkpoints", auth, h.Record) // POST /api/v1/batches/:id/checkpoints
	g.GET("/:id/timeline", h.Timeline)         // GET /api/v1/batches/:id/timeline
	g.GET("/:id/route", h.Route)               // GET /api/v1/batches/:id/route
	g.GET("/:id/manifest", h.Manifest)         // GET /api/v1/batches/:id/manifest

	r.GET("/public/batch/:id", h.Public)
}

func (h *BatchHandler) Create(c *gin.Context) {
	var in services.CreateBatchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "INVALID_BODY", err.Error())
		return
	}
	batch, err := h.batches.Create(c.Request.Context(), sessionFrom(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, CreateSuccessResponse(gin.H{
		"batch":     batch,
		"publicUrl": h.batches.PublicURL(batch.ID),
	}))
}

func (h *BatchHandler) List(c *gin.Context) {
	filter := services.BatchFilter{
		Query:  c.Query("q"),
		Status: models.BatchStatus(strings.TrimSpace(c.Query("status"))),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		badRequest(c, "INVALID_STATUS", "unknown batch status "+string(filter.Status))
		return
	}
	batches, err := h.batches.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateListResponse(batches, len(batches)))
}

func (h *BatchHandler) Totals(c *gin.Context) {
	var req struct {
		Producers []models.ProducerSelection `json:"producers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_BODY", err.Error())
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(h.batches.SelectionTotals(req.Producers)))
}

func (h *BatchHandler) Get(c *gin.Context) {
	batch, err := h.batches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(batch))
}

func (h *BatchHandler) Seal(c *gin.Context) {
	batch, err := h.batches.Seal(c.Request.Context(), sessionFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(batch))
}

func (h *BatchHandler) Record(c *gin.Context) {
	var in services.CheckpointInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "INVALID_BODY", err.Error())
		return
	}
	batch, err := h.batches.AddCheckpoint(c.Request.Context(), sessionFrom(c), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, CreateSuccessResponse(batch))
}

func (h *BatchHandler) Timeline(c *gin.Context) {
	events, err := h.batches.Timeline(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateListResponse(events, len(events)))
}

func (h *BatchHandler) Route(c *gin.Context) {
	plan, err := h.batches.Route(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondRoute(c, h.logger, plan)
}

func (h *BatchHandler) Manifest(c *gin.Context) {
	batch, err := h.batches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	raw, err := reports.BatchManifest(*batch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+reports.ManifestFileName(*batch)+`"`)
	c.Data(http.StatusOK, reports.ContentType, raw)
}

func (h *BatchHandler) Public(c *gin.Context) {
	view, err := h.batches.PublicView(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(view))
}

// respondRoute embeds the path as a GeoJSON geometry next to the plan.
func respondRoute(c *gin.Context, logger *zap.Logger, plan *geocoding.RoutePlan) {
	raw, err := geo.RouteGeoJSON(plan.Path)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(gin.H{
		"plan":     plan,
		"geometry": json.RawMessage(raw),
	}))
}
