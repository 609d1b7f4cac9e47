package api

import (
	"net/http"
	"strconv"

	"export-tracking-service/tracking/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProductHandler struct {
	products *services.ProductService
	logger   *zap.Logger
}

func NewProductHandler(products *services.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

func (h *ProductHandler) Register(r *gin.Engine, auth gin.HandlerFunc) {
	g := r.Group("/api/v1/products")
	g.GET("", h.List)
	g.POST("", auth, h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", auth, h.Update)
	g.POST("/:id/checkpoints", auth, h.Record)
	g.PUT("/:id/checkpoints/:index", auth, h.EditCheckpoint)
	g.GET("/:id/route", h.Route)
	g.POST("/:id/delivery-check", h.DeliveryCheck)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var in services.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "INVALID_BODY", err.Error())
		return
	}
	product, err := h.products.Create(c.Request.Context(), sessionFrom(c), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, CreateSuccessResponse(product))
}

func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateListResponse(products, len(products)))
}

// Get serves the license view: the product with its derived state.
func (h *ProductHandler) Get(c *gin.Context) {
	view, err := h.products.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(view))
}

func (h *ProductHandler) Update(c *gin.Context) {
	var in services.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "INVALID_BODY", err.Error())
		return
	}
	product, err := h.products.Update(c.Request.Context(), sessionFrom(c), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(product))
}

func (h *ProductHandler) Record(c *gin.Context) {
	var in services.CheckpointInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "INVALID_BODY", err.Error())
		return
	}
	product, err := h.products.AddCheckpoint(c.Request.Context(), sessionFrom(c), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, CreateSuccessResponse(product))
}

type editCheckpointRequest struct {
	Desc string `json:"desc"`
}

func (h *ProductHandler) EditCheckpoint(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "INVALID_INDEX", "checkpoint index must be an integer")
		return
	}
	var req editCheckpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_BODY", err.Error())
		return
	}
	product, err := h.products.EditCheckpoint(c.Request.Context(), sessionFrom(c), c.Param("id"), index, req.Desc)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(product))
}

func (h *ProductHandler) Route(c *gin.Context) {
	plan, err := h.products.Route(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondRoute(c, h.logger, plan)
}

func (h *ProductHandler) DeliveryCheck(c *gin.Context) {
	result, err := h.products.CheckDelivered(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(result))
}
