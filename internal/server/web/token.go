package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/categolj/entry-api-gemfire/internal/server/auth"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// postToken exchanges basic credentials for a bearer token carrying the
// user's authorities.
func (h *Handlers) postToken(c *gin.Context) {
	p := principalFrom(c)
	if p == nil || p.user == nil {
		c.Header("WWW-Authenticate", `Basic realm="entry-api"`)
		problem(c, http.StatusUnauthorized, "Basic authentication required")
		return
	}
	token, err := auth.GenerateToken(p.user, h.jwtSecret, h.tokenValidity)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokenValidity.Seconds()),
	})
}
