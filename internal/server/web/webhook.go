package web

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/categolj/entry-api-gemfire/internal/cryptox"
	"github.com/categolj/entry-api-gemfire/internal/server/services"
)

const signatureHeader = "X-Hub-Signature-256"

// postWebhook applies a GitHub push notification. The signature is verified
// over the raw body before any path is processed; a bad signature is a 400
// echoing the offending value.
func (h *Handlers) postWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		problem(c, http.StatusBadRequest, "Failed to read request body")
		return
	}
	signature := c.GetHeader(signatureHeader)
	if !cryptox.VerifySignature(h.webhookSecret, body, signature) {
		problem(c, http.StatusBadRequest, "Invalid signature: "+signature)
		return
	}
	var payload services.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		problem(c, http.StatusBadRequest, "Invalid payload: "+err.Error())
		return
	}
	results, err := h.webhook.Process(c.Request.Context(), c.Param("tenantId"), payload)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
