// Package web exposes the HTTP API: entry CRUD and search, categories and
// tags, webhook ingestion, AI summarize/edit, S3 upload presigning and token
// issuing. Every route group exists twice, unscoped for the default tenant
// and under /tenants/:tenantId for the others.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/categolj/entry-api-gemfire/internal/logging"
	"github.com/categolj/entry-api-gemfire/internal/server/auth"
	"github.com/categolj/entry-api-gemfire/internal/server/services"
)

// Options carries the handler dependencies.
type Options struct {
	Entries       *services.EntryService
	Webhook       *services.WebhookService
	AI            *services.AIService
	S3            *services.S3Service
	Users         *auth.UserStore
	WebhookSecret []byte
	JWTSecret     []byte
	TokenValidity time.Duration
	// Readiness reports whether the backing store is reachable. Nil means
	// always ready.
	Readiness func(ctx context.Context) error
	// Clock supplies authoring timestamps. Nil means time.Now.
	Clock func() time.Time
	Log   logging.Logger
}

// Handlers implements the HTTP API.
type Handlers struct {
	entries       *services.EntryService
	webhook       *services.WebhookService
	ai            *services.AIService
	s3            *services.S3Service
	users         *auth.UserStore
	webhookSecret []byte
	jwtSecret     []byte
	tokenValidity time.Duration
	readiness     func(ctx context.Context) error
	clock         func() time.Time
	log           logging.Logger
}

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(opts Options) *gin.Engine {
	h := &Handlers{
		entries:       opts.Entries,
		webhook:       opts.Webhook,
		ai:            opts.AI,
		s3:            opts.S3,
		users:         opts.Users,
		webhookSecret: opts.WebhookSecret,
		jwtSecret:     opts.JWTSecret,
		tokenValidity: opts.TokenValidity,
		readiness:     opts.Readiness,
		clock:         opts.Clock,
		log:           opts.Log,
	}
	if h.clock == nil {
		h.clock = time.Now
	}
	if h.tokenValidity <= 0 {
		h.tokenValidity = time.Hour
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), h.authenticate())

	r.GET("/livez", h.livez)
	r.GET("/readyz", h.readyz)
	r.POST("/token", h.postToken)

	// default tenant
	r.GET("/entries", h.getEntries)
	r.GET("/entries/:entryId", h.getEntry)
	r.POST("/entries", requirePrivilege(auth.PrivilegeEdit), h.postEntry)
	r.PUT("/entries/:entryId", requirePrivilege(auth.PrivilegeEdit), h.putEntry)
	r.PATCH("/entries/:entryId/summary", requirePrivilege(auth.PrivilegeEdit), h.patchEntrySummary)
	r.DELETE("/entries/:entryId", requirePrivilege(auth.PrivilegeDelete), h.deleteEntry)
	r.GET("/categories", h.getCategories)
	r.GET("/tags", h.getTags)
	r.POST("/webhook", h.postWebhook)

	// tenant-scoped twins
	t := r.Group("/tenants/:tenantId")
	t.GET("/entries", requirePrivilege(auth.PrivilegeList), h.getEntries)
	t.GET("/entries/:entryId", requirePrivilege(auth.PrivilegeGet), h.getEntry)
	t.POST("/entries", requirePrivilege(auth.PrivilegeEdit), h.postEntry)
	t.PUT("/entries/:entryId", requirePrivilege(auth.PrivilegeEdit), h.putEntry)
	t.PATCH("/entries/:entryId/summary", requirePrivilege(auth.PrivilegeEdit), h.patchEntrySummary)
	t.DELETE("/entries/:entryId", requirePrivilege(auth.PrivilegeDelete), h.deleteEntry)
	t.GET("/categories", requirePrivilege(auth.PrivilegeList), h.getCategories)
	t.GET("/tags", requirePrivilege(auth.PrivilegeList), h.getTags)
	t.POST("/webhook", h.postWebhook)
	t.POST("/summary", requirePrivilege(auth.PrivilegeEdit), h.postSummarize)
	t.POST("/edit", requirePrivilege(auth.PrivilegeEdit), h.postEdit)
	t.POST("/s3/presign", requirePrivilege(auth.PrivilegeEdit), h.postPresign)

	r.NoRoute(func(c *gin.Context) {
		problem(c, http.StatusNotFound, "Resource not found: "+c.Request.URL.Path)
	})
	return r
}

func (h *Handlers) livez(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *Handlers) readyz(c *gin.Context) {
	if h.readiness != nil {
		if err := h.readiness(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
