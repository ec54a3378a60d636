package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ProblemDetail is the RFC 9457 error body used for all error responses.
type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func problem(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, ProblemDetail{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
