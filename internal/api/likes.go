package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/scribe-social/scribe/internal/auth"
	"github.com/scribe-social/scribe/internal/db"
	"github.com/scribe-social/scribe/pkg/logging"
)

// LikesAPI serves the like toggle
type LikesAPI struct {
	users  *db.UserRepository
	posts  *db.PostRepository
	likes  *db.LikeRepository
	logger *zap.Logger
}

// NewLikesAPI creates the likes API
func NewLikesAPI(repo *db.Repository) *LikesAPI {
	return &LikesAPI{
		users:  db.NewUserRepository(repo),
		posts:  db.NewPostRepository(repo),
		likes:  db.NewLikeRepository(repo),
		logger: logging.WithComponent("likes-api"),
	}
}

// resolvePost scopes the post lookup to the author in the URL, same rule as
// the detail view.
func (l *LikesAPI) resolvePost(c *gin.Context) (int64, string, bool) {
	ctx := c.Request.Context()
	username := c.Param("username")

	author, err := l.users.GetByUsername(ctx, username)
	if err != nil {
		serverError(c, err)
		return 0, "", false
	}
	if author == nil {
		notFound(c)
		return 0, "", false
	}

	postID, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		notFound(c)
		return 0, "", false
	}

	post, err := l.posts.GetByAuthorAndID(ctx, author.ID, postID)
	if err != nil {
		serverError(c, err)
		return 0, "", false
	}
	if post == nil {
		notFound(c)
		return 0, "", false
	}
	return post.ID, username, true
}

// Like handles GET /:username/:post_id/like/. Liking twice leaves one row.
func (l *LikesAPI) Like(c *gin.Context) {
	postID, username, ok := l.resolvePost(c)
	if !ok {
		return
	}

	user := auth.UserFrom(c)
	if err := l.likes.Like(c.Request.Context(), user.ID, postID); err != nil {
		serverError(c, err)
		return
	}

	l.logger.Debug("Like toggled on",
		zap.String("user", user.Username),
		zap.Int64("post_id", postID))

	c.Redirect(http.StatusFound, postURL(username, postID))
}

// Dislike handles GET /:username/:post_id/dislike/. Removing an absent like
// is a no-op.
func (l *LikesAPI) Dislike(c *gin.Context) {
	postID, username, ok := l.resolvePost(c)
	if !ok {
		return
	}

	user := auth.UserFrom(c)
	if err := l.likes.Unlike(c.Request.Context(), user.ID, postID); err != nil {
		serverError(c, err)
		return
	}

	c.Redirect(http.StatusFound, postURL(username, postID))
}
