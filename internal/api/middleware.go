package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/record-tracker-api/internal/apperr"
	"github.com/record-tracker-api/internal/models"
	"github.com/record-tracker-api/internal/policy"
	"github.com/record-tracker-api/internal/service"
)

const callerKey = "caller"

// requireAuth resolves the bearer token to a caller and stores it on the context
func requireAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			abortWithError(c, apperr.Unauthorized("Not authorized, no token"))
			return
		}

		caller, err := auth.ResolveCaller(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

// requireAdmin rejects callers without the admin flag. Must run after requireAuth.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, _ := callerFrom(c)
		if err := policy.RequireAdmin(caller); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// callerFrom returns the authenticated caller, if any
func callerFrom(c *gin.Context) (models.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return models.Caller{}, false
	}
	caller, ok := v.(models.Caller)
	return caller, ok
}

func abortWithError(c *gin.Context, err error) {
	respondError(c, err)
	c.Abort()
}
