package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/scribe-social/scribe/internal/auth"
	"github.com/scribe-social/scribe/internal/db"
	"github.com/scribe-social/scribe/internal/models"
	"github.com/scribe-social/scribe/pkg/logging"
)

// AuthAPI serves signup, login, and logout
type AuthAPI struct {
	users    *db.UserRepository
	sessions *auth.Sessions
	logger   *zap.Logger
}

// NewAuthAPI creates the auth API
func NewAuthAPI(repo *db.Repository, sessions *auth.Sessions) *AuthAPI {
	return &AuthAPI{
		users:    db.NewUserRepository(repo),
		sessions: sessions,
		logger:   logging.WithComponent("auth-api"),
	}
}

// safeNext restricts the post-login destination to a local path so the next
// parameter cannot redirect off-site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

// LoginForm handles GET /auth/login/
func (a *AuthAPI) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Next": c.Query("next"),
	})
}

// Login handles POST /auth/login/
func (a *AuthAPI) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	next := c.PostForm("next")

	user, err := a.users.GetByUsername(c.Request.Context(), username)
	if err != nil {
		serverError(c, err)
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		c.HTML(http.StatusBadRequest, "login.html", gin.H{
			"Next":  next,
			"Error": "Invalid username or password.",
		})
		return
	}

	if err := a.sessions.SignIn(c, user.ID); err != nil {
		serverError(c, err)
		return
	}

	a.logger.Info("User logged in", zap.String("username", user.Username))
	c.Redirect(http.StatusFound, safeNext(next))
}

// SignupForm handles GET /auth/signup/
func (a *AuthAPI) SignupForm(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", gin.H{})
}

// Signup handles POST /auth/signup/
func (a *AuthAPI) Signup(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	renderError := func(msg string) {
		c.HTML(http.StatusBadRequest, "signup.html", gin.H{
			"Error":    msg,
			"Username": username,
			"Email":    email,
		})
	}

	if username == "" {
		renderError("Username must not be empty.")
		return
	}
	if len(password) < 8 {
		renderError("Password must be at least 8 characters.")
		return
	}

	existing, err := a.users.GetByUsername(c.Request.Context(), username)
	if err != nil {
		serverError(c, err)
		return
	}
	if existing != nil {
		renderError("That username is taken.")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		serverError(c, err)
		return
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := a.users.Create(c.Request.Context(), user); err != nil {
		serverError(c, err)
		return
	}

	if err := a.sessions.SignIn(c, user.ID); err != nil {
		serverError(c, err)
		return
	}

	a.logger.Info("User signed up", zap.String("username", user.Username))
	c.Redirect(http.StatusFound, "/")
}

// Logout handles GET /auth/logout/
func (a *AuthAPI) Logout(c *gin.Context) {
	if err := a.sessions.SignOut(c); err != nil {
		serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}
