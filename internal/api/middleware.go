package api

import (
	"bhss/internal/auth"
	"bhss/internal/errors"
	"bhss/models"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// authenticate resolves the bearer token into the current user. The
// WebSocket endpoint may pass the token as ?token= instead, since browsers
// cannot set headers on the upgrade request.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" || c.FullPath() != "/ws" {
			var err error
			token, err = auth.BearerToken(c.GetHeader("Authorization"))
			if err != nil {
				respondError(c, "authenticate", err)
				return
			}
		}

		user, err := s.svc.Users.Authenticate(c.Request.Context(), token)
		if err != nil {
			respondError(c, "authenticate", err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// requireAdmin rejects non-admin users
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsAdmin() {
			respondError(c, "requireAdmin", errors.Forbidden("admin access required"))
			return
		}
		c.Next()
	}
}

// currentUser returns the authenticated user, or nil
func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
