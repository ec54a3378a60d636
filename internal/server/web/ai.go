package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/categolj/entry-api-gemfire/internal/server/services"
)

type summarizeRequest struct {
	Content string `json:"content"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

func (h *Handlers) postSummarize(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problem(c, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		problem(c, http.StatusBadRequest, "Content must not be empty")
		return
	}
	summary, err := h.ai.Summarize(c.Request.Context(), req.Content)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, summarizeResponse{Summary: summary})
}

type editRequest struct {
	Content string `json:"content"`
	Mode    string `json:"mode"`
}

type editResponse struct {
	Text string `json:"text"`
}

func (h *Handlers) postEdit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problem(c, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		problem(c, http.StatusBadRequest, "Content must not be empty")
		return
	}
	mode := services.EditModeProofreading
	if req.Mode != "" {
		var err error
		mode, err = services.ParseEditMode(req.Mode)
		if err != nil {
			problem(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	text, err := h.ai.Edit(c.Request.Context(), req.Content, mode)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, editResponse{Text: text})
}
