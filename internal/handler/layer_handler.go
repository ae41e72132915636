package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/mpawatch-backend-go/internal/spatial"
	"github.com/jengzang/mpawatch-backend-go/pkg/response"
)

// LayerHandler serves the loaded reference layers
type LayerHandler struct {
	index *spatial.GeometryIndex
}

// NewLayerHandler creates a new layer handler
func NewLayerHandler(index *spatial.GeometryIndex) *LayerHandler {
	return &LayerHandler{index: index}
}

// ListLayers handles GET /api/v1/layers
func (h *LayerHandler) ListLayers(c *gin.Context) {
	response.Success(c, h.index.Layers())
}

// GetLayer handles GET /api/v1/layers/:name and returns the layer as a
// GeoJSON FeatureCollection
func (h *LayerHandler) GetLayer(c *gin.Context) {
	layer, err := h.index.Layer(c.Param("name"))
	if errors.Is(err, spatial.ErrUnknownLayer) {
		response.NotFound(c, "Layer not found")
		return
	}
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, layer.FeatureCollection())
}
