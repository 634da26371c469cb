package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"github.com/scribe-social/scribe/internal/db"
	"github.com/scribe-social/scribe/internal/models"
	"github.com/scribe-social/scribe/pkg/config"
)

const (
	sessionUserKey = "user_id"

	// contextUserKey is where LoadUser stashes the resolved user for the
	// rest of the handler chain.
	contextUserKey = "current_user"
)

// Sessions manages cookie-backed login sessions
type Sessions struct {
	store *sessions.CookieStore
	name  string
	users *db.UserRepository
}

// NewSessions creates a session manager backed by a signed cookie store
func NewSessions(cfg *config.AuthConfig, users *db.UserRepository) *Sessions {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
	}
	return &Sessions{
		store: store,
		name:  cfg.SessionName,
		users: users,
	}
}

// SignIn records the user in the request's session
func (s *Sessions) SignIn(c *gin.Context, userID int64) error {
	session, _ := s.store.Get(c.Request, s.name)
	session.Values[sessionUserKey] = userID
	return session.Save(c.Request, c.Writer)
}

// SignOut clears the request's session
func (s *Sessions) SignOut(c *gin.Context) error {
	session, _ := s.store.Get(c.Request, s.name)
	delete(session.Values, sessionUserKey)
	session.Options.MaxAge = -1
	return session.Save(c.Request, c.Writer)
}

// CurrentUser resolves the session to a user. Anonymous requests and stale
// sessions referencing a deleted account both come back as nil.
func (s *Sessions) CurrentUser(c *gin.Context) (*models.User, error) {
	session, err := s.store.Get(c.Request, s.name)
	if err != nil {
		// Undecodable cookie: treat as anonymous
		return nil, nil
	}
	id, ok := session.Values[sessionUserKey].(int64)
	if !ok {
		return nil, nil
	}
	return s.users.GetByID(c.Request.Context(), id)
}

// UserFrom returns the user that LoadUser resolved, or nil for anonymous
// requests.
func UserFrom(c *gin.Context) *models.User {
	if v, ok := c.Get(contextUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
