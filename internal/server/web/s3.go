package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/categolj/entry-api-gemfire/internal/entry"
	"github.com/categolj/entry-api-gemfire/internal/server/services"
)

type presignRequest struct {
	FileName string `json:"fileName"`
}

type presignResponse struct {
	URL string `json:"url"`
}

// postPresign issues a presigned PUT URL for an image upload under the
// tenant's prefix.
func (h *Handlers) postPresign(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problem(c, http.StatusBadRequest, err.Error())
		return
	}
	tenantID := entry.NormalizeTenantID(c.Param("tenantId"))
	url, err := h.s3.PresignUpload(c.Request.Context(), tenantID, req.FileName)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFileName) {
			problem(c, http.StatusBadRequest, err.Error())
			return
		}
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, presignResponse{URL: url})
}
