package api

import (
	"errors"
	"net/http"

	"export-tracking-service/tracking/geocoding"
	"export-tracking-service/tracking/models"
	"export-tracking-service/tracking/repositories"
	"export-tracking-service/tracking/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{repositories.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{services.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{models.ErrEmptyActor, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{models.ErrAlreadySealed, http.StatusConflict, "ALREADY_SEALED"},
	{models.ErrNotSealed, http.StatusConflict, "NOT_SEALED"},
	{models.ErrAlreadyDelivered, http.StatusConflict, "ALREADY_DELIVERED"},
	{models.ErrCheckpointIndex, http.StatusNotFound, "CHECKPOINT_NOT_FOUND"},
	{repositories.ErrVersionConflict, http.StatusConflict, "VERSION_CONFLICT"},
	{repositories.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
	{geocoding.ErrNoResults, http.StatusUnprocessableEntity, "PLACE_NOT_FOUND"},
	{services.ErrRoutingUnavailable, http.StatusServiceUnavailable, "ROUTING_UNAVAILABLE"},
}

// respondError maps domain errors onto HTTP statuses. Anything unknown is
// logged and reported as a 500 without details.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		resp := CreateErrorResponse("VALIDATION_FAILED", verr.Message)
		resp.Error.Field = verr.Field
		c.AbortWithStatusJSON(http.StatusBadRequest, resp)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.AbortWithStatusJSON(m.status, CreateErrorResponse(m.code, err.Error()))
			return
		}
	}

	logger.Error("Request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		CreateErrorResponse("INTERNAL_ERROR", "internal server error"))
}

func badRequest(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, CreateErrorResponse(code, message))
}
