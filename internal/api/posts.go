package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/scribe-social/scribe/internal/auth"
	"github.com/scribe-social/scribe/internal/cache"
	"github.com/scribe-social/scribe/internal/db"
	"github.com/scribe-social/scribe/internal/feed"
	"github.com/scribe-social/scribe/internal/media"
	"github.com/scribe-social/scribe/internal/models"
	"github.com/scribe-social/scribe/pkg/logging"
	"github.com/scribe-social/scribe/pkg/telemetry"
)

// PostsAPI serves the post listing, detail, and CRUD pages
type PostsAPI struct {
	users    *db.UserRepository
	groups   *db.GroupRepository
	posts    *db.PostRepository
	comments *db.CommentRepository
	follows  *db.FollowRepository
	likes    *db.LikeRepository
	media    *media.Store
	pages    *cache.PageCache
	logger   *zap.Logger
}

// NewPostsAPI creates the posts API
func NewPostsAPI(repo *db.Repository, mediaStore *media.Store, pages *cache.PageCache) *PostsAPI {
	return &PostsAPI{
		users:    db.NewUserRepository(repo),
		groups:   db.NewGroupRepository(repo),
		posts:    db.NewPostRepository(repo),
		comments: db.NewCommentRepository(repo),
		follows:  db.NewFollowRepository(repo),
		likes:    db.NewLikeRepository(repo),
		media:    mediaStore,
		pages:    pages,
		logger:   logging.WithComponent("posts-api"),
	}
}

func postURL(username string, postID int64) string {
	return fmt.Sprintf("/%s/%d/", username, postID)
}

// listPage runs a filtered, paginated post listing
func (p *PostsAPI) listPage(c *gin.Context, f db.PostFilter) (*feed.ListResult, error) {
	ctx := c.Request.Context()

	count, err := p.posts.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	pagination := feed.Paginate(count, c.Query("page"))
	posts, err := p.posts.ListPage(ctx, f, pagination.Offset(), pagination.PerPage)
	if err != nil {
		return nil, err
	}

	return &feed.ListResult{Posts: posts, Page: pagination}, nil
}

// Index handles GET /
func (p *PostsAPI) Index(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "posts.index")
	defer span.End()

	result, err := p.listPage(c, db.PostFilter{})
	if err != nil {
		serverError(c, err)
		return
	}

	// Tells the layout whether the feed tab is worth showing
	followsAnyone := false
	if user := auth.UserFrom(c); user != nil {
		followsAnyone, err = p.follows.FollowsAnyone(ctx, user.ID)
		if err != nil {
			serverError(c, err)
			return
		}
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Result":        result,
		"FollowsAnyone": followsAnyone,
		"User":          auth.UserFrom(c),
	})
}

// GroupPosts handles GET /group/:slug/
func (p *PostsAPI) GroupPosts(c *gin.Context) {
	ctx := c.Request.Context()

	group, err := p.groups.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		serverError(c, err)
		return
	}
	if group == nil {
		notFound(c)
		return
	}

	result, err := p.listPage(c, db.PostFilter{GroupID: group.ID})
	if err != nil {
		serverError(c, err)
		return
	}

	c.HTML(http.StatusOK, "group.html", gin.H{
		"Group":  group,
		"Result": result,
		"User":   auth.UserFrom(c),
	})
}

// Profile handles GET /:username/
func (p *PostsAPI) Profile(c *gin.Context) {
	ctx := c.Request.Context()

	author, err := p.users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		serverError(c, err)
		return
	}
	if author == nil {
		notFound(c)
		return
	}

	result, err := p.listPage(c, db.PostFilter{AuthorID: author.ID})
	if err != nil {
		serverError(c, err)
		return
	}

	followerCount, err := p.follows.CountFollowers(ctx, author.ID)
	if err != nil {
		serverError(c, err)
		return
	}
	followingCount, err := p.follows.CountFollowing(ctx, author.ID)
	if err != nil {
		serverError(c, err)
		return
	}

	following := false
	if user := auth.UserFrom(c); user != nil {
		following, err = p.follows.Following(ctx, user.ID, author.ID)
		if err != nil {
			serverError(c, err)
			return
		}
	}

	c.HTML(http.StatusOK, "profile.html", gin.H{
		"Author":         author,
		"Result":         result,
		"FollowerCount":  followerCount,
		"FollowingCount": followingCount,
		"Following":      following,
		"User":           auth.UserFrom(c),
	})
}

// resolvePost looks up a post scoped to the author in the URL. A post that
// exists under a different author is treated as absent.
func (p *PostsAPI) resolvePost(c *gin.Context) (*models.Post, bool) {
	ctx := c.Request.Context()

	author, err := p.users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		serverError(c, err)
		return nil, false
	}
	if author == nil {
		notFound(c)
		return nil, false
	}

	postID, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		notFound(c)
		return nil, false
	}

	post, err := p.posts.GetByAuthorAndID(ctx, author.ID, postID)
	if err != nil {
		serverError(c, err)
		return nil, false
	}
	if post == nil {
		notFound(c)
		return nil, false
	}
	return post, true
}

// Detail handles GET /:username/:post_id/
func (p *PostsAPI) Detail(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "posts.detail")
	defer span.End()

	post, ok := p.resolvePost(c)
	if !ok {
		return
	}

	// Count the view before rendering; at-least-once under concurrency is
	// acceptable here.
	if err := p.posts.IncrementVisits(ctx, post.ID); err != nil {
		serverError(c, err)
		return
	}
	post.Visits++

	p.renderDetail(c, post, "")
}

func (p *PostsAPI) renderDetail(c *gin.Context, post *models.Post, commentError string) {
	ctx := c.Request.Context()

	comments, err := p.comments.ListByPost(ctx, post.ID)
	if err != nil {
		serverError(c, err)
		return
	}

	likeCount, err := p.likes.CountForPost(ctx, post.ID)
	if err != nil {
		serverError(c, err)
		return
	}

	liked := false
	user := auth.UserFrom(c)
	if user != nil {
		liked, err = p.likes.LikedBy(ctx, user.ID, post.ID)
		if err != nil {
			serverError(c, err)
			return
		}
	}

	postCount := int64(0)
	if post.AuthorID.Valid {
		postCount, err = p.posts.CountByAuthor(ctx, post.AuthorID.Int64)
		if err != nil {
			serverError(c, err)
			return
		}
	}

	status := http.StatusOK
	if commentError != "" {
		status = http.StatusBadRequest
	}

	c.HTML(status, "post.html", gin.H{
		"Result": &feed.SingleResult{
			Post:      post,
			Comments:  comments,
			LikeCount: likeCount,
			Liked:     liked,
		},
		"AuthorPostCount": postCount,
		"CommentError":    commentError,
		"User":            user,
	})
}

// postForm carries a submitted post form back to the template on
// validation failure
type postForm struct {
	Text    string
	GroupID int64
	Errors  map[string]string
}

func (p *PostsAPI) renderPostForm(c *gin.Context, form *postForm, edit bool, post *models.Post) {
	groups, err := p.groups.List(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}

	status := http.StatusOK
	if len(form.Errors) > 0 {
		status = http.StatusBadRequest
	}

	c.HTML(status, "new_post.html", gin.H{
		"Form":   form,
		"Edit":   edit,
		"Post":   post,
		"Groups": groups,
		"User":   auth.UserFrom(c),
	})
}

// bindPostForm validates the submitted form and stores the image, if any.
// On failure it returns the form with field errors and nothing written.
func (p *PostsAPI) bindPostForm(c *gin.Context) (*postForm, string, bool) {
	form := &postForm{
		Text:   c.PostForm("text"),
		Errors: map[string]string{},
	}

	if groupParam := c.PostForm("group"); groupParam != "" {
		groupID, err := strconv.ParseInt(groupParam, 10, 64)
		if err != nil {
			form.Errors["group"] = "Unknown group."
		} else {
			group, err := p.groups.GetByID(c.Request.Context(), groupID)
			if err != nil {
				serverError(c, err)
				return nil, "", false
			}
			if group == nil {
				form.Errors["group"] = "Unknown group."
			} else {
				form.GroupID = group.ID
			}
		}
	}

	if strings.TrimSpace(form.Text) == "" {
		form.Errors["text"] = "Text must not be empty."
	}

	// Store the image only once the rest of the form is valid; a rejected
	// form never leaves a file behind.
	imageName := ""
	if fh, err := c.FormFile("image"); err == nil && fh != nil && len(form.Errors) == 0 {
		imageName, err = p.media.Save(fh)
		if errors.Is(err, media.ErrNotAnImage) || errors.Is(err, media.ErrTooLarge) {
			form.Errors["image"] = "Upload a valid image."
		} else if err != nil {
			serverError(c, err)
			return nil, "", false
		}
	}

	return form, imageName, true
}

// NewPost handles GET and POST /new/
func (p *PostsAPI) NewPost(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		p.renderPostForm(c, &postForm{Errors: map[string]string{}}, false, nil)
		return
	}

	form, imageName, ok := p.bindPostForm(c)
	if !ok {
		return
	}
	if len(form.Errors) > 0 {
		p.renderPostForm(c, form, false, nil)
		return
	}

	user := auth.UserFrom(c)
	post := &models.Post{
		Text:     form.Text,
		AuthorID: sql.NullInt64{Int64: user.ID, Valid: true},
		Image:    imageName,
	}
	if form.GroupID != 0 {
		post.GroupID = sql.NullInt64{Int64: form.GroupID, Valid: true}
	}

	if err := p.posts.Create(c.Request.Context(), post); err != nil {
		serverError(c, err)
		return
	}

	p.pages.Invalidate(c.Request.Context())
	p.logger.Info("Post created",
		zap.Int64("post_id", post.ID),
		zap.String("author", user.Username))

	c.Redirect(http.StatusFound, "/")
}

// EditPost handles GET and POST /:username/:post_id/edit/. A non-author is
// sent back to the read-only detail view rather than shown an error.
func (p *PostsAPI) EditPost(c *gin.Context) {
	post, ok := p.resolvePost(c)
	if !ok {
		return
	}

	user := auth.UserFrom(c)
	if !post.AuthorID.Valid || post.AuthorID.Int64 != user.ID {
		c.Redirect(http.StatusFound, postURL(c.Param("username"), post.ID))
		return
	}

	if c.Request.Method == http.MethodGet {
		form := &postForm{Text: post.Text, Errors: map[string]string{}}
		if post.GroupID.Valid {
			form.GroupID = post.GroupID.Int64
		}
		p.renderPostForm(c, form, true, post)
		return
	}

	form, imageName, ok := p.bindPostForm(c)
	if !ok {
		return
	}
	if len(form.Errors) > 0 {
		p.renderPostForm(c, form, true, post)
		return
	}

	post.Text = form.Text
	if form.GroupID != 0 {
		post.GroupID = sql.NullInt64{Int64: form.GroupID, Valid: true}
	} else {
		post.GroupID = sql.NullInt64{}
	}
	if imageName != "" {
		if err := p.media.Remove(post.Image); err != nil {
			p.logger.Warn("Failed to remove replaced image", zap.Error(err))
		}
		post.Image = imageName
	}

	if err := p.posts.Update(c.Request.Context(), post); err != nil {
		serverError(c, err)
		return
	}

	p.pages.Invalidate(c.Request.Context())

	c.Redirect(http.StatusFound, postURL(c.Param("username"), post.ID))
}

// DeletePost handles POST /:username/:post_id/delete/. Same soft policy as
// edit: a non-author is redirected to the detail view.
func (p *PostsAPI) DeletePost(c *gin.Context) {
	post, ok := p.resolvePost(c)
	if !ok {
		return
	}

	user := auth.UserFrom(c)
	if !post.AuthorID.Valid || post.AuthorID.Int64 != user.ID {
		c.Redirect(http.StatusFound, postURL(c.Param("username"), post.ID))
		return
	}

	if err := p.posts.Delete(c.Request.Context(), post.ID); err != nil {
		serverError(c, err)
		return
	}
	if err := p.media.Remove(post.Image); err != nil {
		p.logger.Warn("Failed to remove deleted post's image", zap.Error(err))
	}

	p.pages.Invalidate(c.Request.Context())
	p.logger.Info("Post deleted",
		zap.Int64("post_id", post.ID),
		zap.String("author", user.Username))

	c.Redirect(http.StatusFound, "/"+c.Param("username")+"/")
}

// AddComment handles POST /:username/:post_id/comment/
func (p *PostsAPI) AddComment(c *gin.Context) {
	post, ok := p.resolvePost(c)
	if !ok {
		return
	}

	text := c.PostForm("text")
	if strings.TrimSpace(text) == "" {
		p.renderDetail(c, post, "Comment text must not be empty.")
		return
	}

	user := auth.UserFrom(c)
	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: user.ID,
		Text:     text,
	}
	if err := p.comments.Create(c.Request.Context(), comment); err != nil {
		serverError(c, err)
		return
	}

	c.Redirect(http.StatusFound, postURL(c.Param("username"), post.ID))
}
