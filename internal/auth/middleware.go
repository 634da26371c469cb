package auth

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/scribe-social/scribe/pkg/logging"
)

// LoginPath is where unauthenticated requests for protected routes are sent
const LoginPath = "/auth/login/"

// LoadUser resolves the session user once per request and exposes it via
// UserFrom. Anonymous requests pass through with no user set.
func (s *Sessions) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.CurrentUser(c)
		if err != nil {
			logging.WithComponent("auth").Warn("Failed to resolve session user", zap.Error(err))
		}
		if user != nil {
			c.Set(contextUserKey, user)
		}
		c.Next()
	}
}

// RequireLogin redirects anonymous requests to the login page, carrying the
// original URL in the next parameter so login can return the user there.
func (s *Sessions) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserFrom(c) == nil {
			next := url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusFound, LoginPath+"?next="+next)
			c.Abort()
			return
		}
		c.Next()
	}
}
