package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/foundry-fichas/internal/domain/entity"
)

// Actor headers set by the authenticating gateway
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
	HeaderSector   = "X-User-Sector"
)

const actorKey = "actor"

// actorMiddleware reads the caller identity from gateway headers and
// rejects the request with 401 when it is missing or malformed
func actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(strings.TrimSpace(c.GetHeader(HeaderUserID)), 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing or invalid " + HeaderUserID + " header",
			})
			return
		}

		privilege := entity.Privilege(strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderUserRole))))
		if !privilege.IsValid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing or invalid " + HeaderUserRole + " header",
			})
			return
		}

		c.Set(actorKey, entity.Actor{
			UserID:    id,
			Privilege: privilege,
			Sector:    strings.TrimSpace(c.GetHeader(HeaderSector)),
		})
		c.Next()
	}
}

// requirePrivilege lets the request through only for the listed privileges
func requirePrivilege(allowed ...entity.Privilege) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		for _, p := range allowed {
			if actor.Privilege == p {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, Response{
			Success: false,
			Error:   "insufficient privilege",
		})
	}
}

// actorFrom returns the actor stored by actorMiddleware
func actorFrom(c *gin.Context) entity.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(entity.Actor); ok {
			return actor
		}
	}
	return entity.Actor{}
}
