package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/categolj/entry-api-gemfire/internal/entry"
	"github.com/categolj/entry-api-gemfire/internal/pagination"
	"github.com/categolj/entry-api-gemfire/internal/server/repositories/entries"
)

const cacheControl = "max-age=3600"

// getEntries handles the list view: default listing, criteria search, or a
// batch lookup when entryIds is given.
func (h *Handlers) getEntries(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := c.Param("tenantId")

	if ids, ok := c.GetQueryArray("entryIds"); ok && len(ids) > 0 {
		keys := make([]entry.EntryKey, 0, len(ids))
		for _, raw := range ids {
			for _, id := range strings.Split(raw, ",") {
				entryID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
				if err != nil {
					problem(c, http.StatusBadRequest, fmt.Sprintf("Invalid entryId: %s", id))
					return
				}
				keys = append(keys, entry.NewEntryKey(entryID, tenantID))
			}
		}
		found, err := h.entries.FindAll(ctx, keys)
		if err != nil {
			h.internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, found)
		return
	}

	criteria := entry.SearchCriteria{
		Query:      c.Query("query"),
		Tag:        c.Query("tag"),
		Categories: c.QueryArray("categories"),
	}
	pageRequest, err := parsePageRequest(c)
	if err != nil {
		problem(c, http.StatusBadRequest, err.Error())
		return
	}

	var page pagination.CursorPage[entry.Entry]
	if criteria.IsDefault() && pageRequest.Cursor == nil && pageRequest.PageSize == pagination.DefaultPageSize {
		page, err = h.entries.FindLatest(ctx, tenantID)
	} else {
		page, err = h.entries.FindOrderByUpdated(ctx, tenantID, criteria, pageRequest)
	}
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func parsePageRequest(c *gin.Context) (pagination.CursorPageRequest[time.Time], error) {
	pageSize := pagination.DefaultPageSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return pagination.CursorPageRequest[time.Time]{}, fmt.Errorf("invalid size: %s", raw)
		}
		pageSize = n
	}
	var cursor *time.Time
	if raw := c.Query("cursor"); raw != "" {
		t, err := parseCursor(raw)
		if err != nil {
			return pagination.CursorPageRequest[time.Time]{}, err
		}
		cursor = &t
	}
	return pagination.NewCursorPageRequest(cursor, pageSize), nil
}

// parseCursor accepts an RFC 3339 timestamp or epoch milliseconds.
func parseCursor(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	if millis, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(millis).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid cursor: %s", raw)
}

// getEntry handles GET /entries/:entryId where :entryId is a numeric id,
// "<id>.md" for the markdown view, or "template.md". Routing through one
// parameter keeps the path tree free of static/param conflicts.
func (h *Handlers) getEntry(c *gin.Context) {
	raw := c.Param("entryId")
	if raw == "template.md" {
		c.Header("Cache-Control", cacheControl)
		c.Data(http.StatusOK, "text/markdown", []byte(templateMarkdown()))
		return
	}
	asMarkdown := strings.HasSuffix(raw, ".md")
	entryID, err := entry.ParseID(raw)
	if err != nil {
		problem(c, http.StatusNotFound, "Entry not found: "+raw)
		return
	}
	key := entry.NewEntryKey(entryID, c.Param("tenantId"))
	e, err := h.entries.FindByID(c.Request.Context(), key)
	if err != nil {
		h.entryError(c, key, err)
		return
	}
	if notModified(c, e) {
		return
	}
	c.Header("Cache-Control", cacheControl)
	if asMarkdown {
		c.Data(http.StatusOK, "text/markdown", []byte(e.ToMarkdown()))
		return
	}
	c.JSON(http.StatusOK, e)
}

// notModified answers 304 when the client's If-Modified-Since covers the
// entry's update time, and sets Last-Modified otherwise.
func notModified(c *gin.Context, e entry.Entry) bool {
	updated := e.Updated.Date
	if updated == nil {
		return false
	}
	lastModified := updated.Truncate(time.Second)
	if since := c.GetHeader("If-Modified-Since"); since != "" {
		if t, err := http.ParseTime(since); err == nil && !lastModified.After(t) {
			c.Status(http.StatusNotModified)
			return true
		}
	}
	c.Header("Last-Modified", lastModified.UTC().Format(http.TimeFormat))
	return false
}

// postEntry creates an entry from a markdown body under the next free id.
func (h *Handlers) postEntry(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := c.Param("tenantId")
	markdown, ok := h.readMarkdownBody(c)
	if !ok {
		return
	}
	entryID, err := h.entries.NextID(ctx, tenantID)
	if err != nil {
		h.internalError(c, err)
		return
	}
	key := entry.NewEntryKey(entryID, tenantID)
	author := h.requestAuthor(c)
	e, err := entry.ParseMarkdown(key, markdown, author, author)
	if err != nil {
		problem(c, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := h.entries.Save(ctx, e)
	if err != nil {
		h.internalError(c, err)
		return
	}
	location := "/entries/" + entry.FormatID(entryID)
	if !entry.IsDefaultTenant(tenantID) {
		location = "/tenants/" + tenantID + location
	}
	c.Header("Location", location)
	c.JSON(http.StatusCreated, saved)
}

// putEntry replaces an entry from a markdown body, keeping the original
// created author when the entry already exists.
func (h *Handlers) putEntry(c *gin.Context) {
	ctx := c.Request.Context()
	entryID, err := entry.ParseID(c.Param("entryId"))
	if err != nil {
		problem(c, http.StatusNotFound, "Entry not found: "+c.Param("entryId"))
		return
	}
	key := entry.NewEntryKey(entryID, c.Param("tenantId"))
	markdown, ok := h.readMarkdownBody(c)
	if !ok {
		return
	}
	updated := h.requestAuthor(c)
	created := updated
	if existing, err := h.entries.FindByID(ctx, key); err == nil {
		created = existing.Created
	}
	e, err := entry.ParseMarkdown(key, markdown, created, updated)
	if err != nil {
		problem(c, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := h.entries.Save(ctx, e)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

type summaryPatchRequest struct {
	Summary string `json:"summary"`
}

// patchEntrySummary replaces only the summary of an existing entry.
func (h *Handlers) patchEntrySummary(c *gin.Context) {
	ctx := c.Request.Context()
	entryID, err := entry.ParseID(c.Param("entryId"))
	if err != nil {
		problem(c, http.StatusNotFound, "Entry not found: "+c.Param("entryId"))
		return
	}
	key := entry.NewEntryKey(entryID, c.Param("tenantId"))
	var req summaryPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problem(c, http.StatusBadRequest, err.Error())
		return
	}
	e, err := h.entries.FindByID(ctx, key)
	if err != nil {
		h.entryError(c, key, err)
		return
	}
	if err := h.entries.UpdateSummary(ctx, key, req.Summary); err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, e.WithFrontMatter(e.FrontMatter.WithSummary(req.Summary)))
}

func (h *Handlers) deleteEntry(c *gin.Context) {
	entryID, err := entry.ParseID(c.Param("entryId"))
	if err != nil {
		problem(c, http.StatusNotFound, "Entry not found: "+c.Param("entryId"))
		return
	}
	key := entry.NewEntryKey(entryID, c.Param("tenantId"))
	if err := h.entries.DeleteByID(c.Request.Context(), key); err != nil {
		h.internalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) getCategories(c *gin.Context) {
	categories, err := h.entries.FindAllCategories(c.Request.Context(), c.Param("tenantId"))
	if err != nil {
		h.internalError(c, err)
		return
	}
	if categories == nil {
		categories = [][]entry.Category{}
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handlers) getTags(c *gin.Context) {
	tags, err := h.entries.FindAllTags(c.Request.Context(), c.Param("tenantId"))
	if err != nil {
		h.internalError(c, err)
		return
	}
	if tags == nil {
		tags = []entry.TagAndCount{}
	}
	c.JSON(http.StatusOK, tags)
}

func (h *Handlers) readMarkdownBody(c *gin.Context) (string, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		problem(c, http.StatusBadRequest, "Failed to read request body")
		return "", false
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		problem(c, http.StatusBadRequest, "Request body must not be empty")
		return "", false
	}
	return string(body), true
}

// requestAuthor names the authenticated user with the current time.
func (h *Handlers) requestAuthor(c *gin.Context) entry.Author {
	now := h.clock().Truncate(time.Second).UTC()
	name := "system"
	if p := principalFrom(c); p != nil {
		name = p.Username
	}
	return entry.Author{Name: name, Date: &now}
}

func (h *Handlers) entryError(c *gin.Context, key entry.EntryKey, err error) {
	if errors.Is(err, entries.ErrEntryNotFound) {
		problem(c, http.StatusNotFound, "Entry not found: "+key.String())
		return
	}
	h.internalError(c, err)
}

func (h *Handlers) internalError(c *gin.Context, err error) {
	h.log.Error(c.Request.Context(), "request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	problem(c, http.StatusInternalServerError, err.Error())
}
