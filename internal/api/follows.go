package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/scribe-social/scribe/internal/auth"
	"github.com/scribe-social/scribe/internal/db"
	"github.com/scribe-social/scribe/internal/feed"
	"github.com/scribe-social/scribe/pkg/logging"
	"github.com/scribe-social/scribe/pkg/telemetry"
)

// FollowsAPI serves the follow toggle and the aggregated feed
type FollowsAPI struct {
	users   *db.UserRepository
	posts   *db.PostRepository
	follows *db.FollowRepository
	logger  *zap.Logger
}

// NewFollowsAPI creates the follows API
func NewFollowsAPI(repo *db.Repository) *FollowsAPI {
	return &FollowsAPI{
		users:   db.NewUserRepository(repo),
		posts:   db.NewPostRepository(repo),
		follows: db.NewFollowRepository(repo),
		logger:  logging.WithComponent("follows-api"),
	}
}

// resolveAuthor looks up the target author from the URL
func (f *FollowsAPI) resolveAuthor(c *gin.Context) (int64, string, bool) {
	username := c.Param("username")
	author, err := f.users.GetByUsername(c.Request.Context(), username)
	if err != nil {
		serverError(c, err)
		return 0, "", false
	}
	if author == nil {
		notFound(c)
		return 0, "", false
	}
	return author.ID, username, true
}

// Follow handles GET /:username/follow/. Following an author twice, or
// yourself, changes nothing and is not an error.
func (f *FollowsAPI) Follow(c *gin.Context) {
	authorID, username, ok := f.resolveAuthor(c)
	if !ok {
		return
	}

	user := auth.UserFrom(c)
	if err := f.follows.Follow(c.Request.Context(), user.ID, authorID); err != nil {
		serverError(c, err)
		return
	}

	f.logger.Debug("Follow toggled on",
		zap.String("user", user.Username),
		zap.String("author", username))

	c.Redirect(http.StatusFound, "/"+username+"/")
}

// Unfollow handles GET /:username/unfollow/. Unfollowing a non-followed
// author is a no-op.
func (f *FollowsAPI) Unfollow(c *gin.Context) {
	authorID, username, ok := f.resolveAuthor(c)
	if !ok {
		return
	}

	user := auth.UserFrom(c)
	if err := f.follows.Unfollow(c.Request.Context(), user.ID, authorID); err != nil {
		serverError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/"+username+"/")
}

// FeedIndex handles GET /follow/: the paginated posts of every author the
// user follows. Following nobody yields an empty page, not an error.
func (f *FollowsAPI) FeedIndex(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "follows.feed")
	defer span.End()

	user := auth.UserFrom(c)
	filter := db.PostFilter{FollowedBy: user.ID}

	count, err := f.posts.Count(ctx, filter)
	if err != nil {
		serverError(c, err)
		return
	}

	pagination := feed.Paginate(count, c.Query("page"))
	posts, err := f.posts.ListPage(ctx, filter, pagination.Offset(), pagination.PerPage)
	if err != nil {
		serverError(c, err)
		return
	}

	c.HTML(http.StatusOK, "follow.html", gin.H{
		"Result": &feed.ListResult{Posts: posts, Page: pagination},
		"User":   user,
	})
}
