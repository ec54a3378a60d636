package web

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/categolj/entry-api-gemfire/internal/server/auth"
)

const (
	requestIDHeader = "X-Request-Id"
	principalKey    = "web.principal"
)

// Principal is the authenticated caller, from basic auth or a bearer token.
type Principal struct {
	Username    string
	authorities []string
	user        *auth.User
}

// HasPrivilege reports whether the caller holds the privilege on the tenant,
// directly or through a wildcard grant.
func (p *Principal) HasPrivilege(tenantID string, privilege auth.Privilege) bool {
	if p == nil {
		return false
	}
	if p.user != nil {
		return p.user.HasPrivilege(tenantID, privilege)
	}
	return auth.HasAuthorities(p.authorities, tenantID, privilege)
}

func principalFrom(c *gin.Context) *Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*Principal)
	return p
}

// requestID assigns each request an id, echoed in the response header.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// authenticate resolves the Authorization header into a Principal. A missing
// header leaves the request anonymous; bad credentials are rejected here so
// that route rules can assume a verified principal.
func (h *Handlers) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		switch {
		case strings.HasPrefix(header, "Basic "):
			user, ok := h.basicUser(header)
			if !ok {
				problem(c, http.StatusUnauthorized, "Invalid credentials")
				return
			}
			c.Set(principalKey, &Principal{Username: user.Name, user: user})
		case strings.HasPrefix(header, "Bearer "):
			claims, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "), h.jwtSecret)
			if err != nil {
				problem(c, http.StatusUnauthorized, "Invalid token")
				return
			}
			c.Set(principalKey, &Principal{Username: claims.Username, authorities: claims.Authorities})
		default:
			problem(c, http.StatusUnauthorized, "Unsupported authorization scheme")
			return
		}
		c.Next()
	}
}

func (h *Handlers) basicUser(header string) (*auth.User, bool) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
	if err != nil {
		return nil, false
	}
	name, password, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil, false
	}
	return h.users.Authenticate(name, password)
}

// requirePrivilege guards a route. The tenant is taken from the path when
// present, otherwise the default tenant applies.
func requirePrivilege(privilege auth.Privilege) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principalFrom(c)
		if p == nil {
			c.Header("WWW-Authenticate", `Basic realm="entry-api"`)
			problem(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !p.HasPrivilege(c.Param("tenantId"), privilege) {
			problem(c, http.StatusForbidden, "Access denied")
			return
		}
		c.Next()
	}
}
