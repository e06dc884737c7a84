package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sikap-pkl-api/internal/service"
	appErrors "github.com/noah-isme/sikap-pkl-api/pkg/errors"
	"github.com/noah-isme/sikap-pkl-api/pkg/response"
)

// CatalogHandler exposes the competency catalog endpoint.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// List godoc
// @Summary List assessable competencies for a track
// @Tags Competencies
// @Produce json
// @Param track query string true "Placement track"
// @Success 200 {object} response.Envelope
// @Router /competency-templates [get]
func (h *CatalogHandler) List(c *gin.Context) {
	track := c.Query("track")
	if track == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "track query parameter is required"))
		return
	}
	catalog, err := h.catalog.ListFor(c.Request.Context(), track)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, catalog, nil)
}
