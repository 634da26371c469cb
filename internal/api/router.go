package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/scribe-social/scribe/internal/auth"
	"github.com/scribe-social/scribe/internal/cache"
	"github.com/scribe-social/scribe/internal/db"
	"github.com/scribe-social/scribe/internal/media"
	"github.com/scribe-social/scribe/pkg/logging"
)

// Router sets up the application routes
type Router struct {
	posts    *PostsAPI
	follows  *FollowsAPI
	likes    *LikesAPI
	auth     *AuthAPI
	sessions *auth.Sessions
	db       *db.DB
	cache    *cache.Cache
	pages    *cache.PageCache
	media    *media.Store
	logger   *zap.Logger
}

// NewRouter creates the router and its handler groups
func NewRouter(database *db.DB, redisCache *cache.Cache, pages *cache.PageCache, sessions *auth.Sessions, mediaStore *media.Store) *Router {
	repo := db.NewRepository(database.DB)
	return &Router{
		posts:    NewPostsAPI(repo, mediaStore, pages),
		follows:  NewFollowsAPI(repo),
		likes:    NewLikesAPI(repo),
		auth:     NewAuthAPI(repo, sessions),
		sessions: sessions,
		db:       database,
		cache:    redisCache,
		pages:    pages,
		media:    mediaStore,
		logger:   logging.WithComponent("router"),
	}
}

// SetupRoutes registers all routes on the engine
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(r.sessions.LoadUser())

	engine.GET("/health", r.healthHandler)
	engine.Static("/media", r.media.Dir())
	engine.NoRoute(notFound)

	requireLogin := r.sessions.RequireLogin()

	// Listings
	engine.GET("/", CachePage(r.pages), r.posts.Index)
	engine.GET("/group/:slug/", r.posts.GroupPosts)
	engine.GET("/follow/", requireLogin, r.follows.FeedIndex)

	// Post CRUD
	engine.GET("/new/", requireLogin, r.posts.NewPost)
	engine.POST("/new/", requireLogin, r.posts.NewPost)
	engine.GET("/:username/:post_id/edit/", requireLogin, r.posts.EditPost)
	engine.POST("/:username/:post_id/edit/", requireLogin, r.posts.EditPost)
	engine.POST("/:username/:post_id/delete/", requireLogin, r.posts.DeletePost)
	engine.POST("/:username/:post_id/comment/", requireLogin, r.posts.AddComment)

	// Toggles
	engine.GET("/:username/follow/", requireLogin, r.follows.Follow)
	engine.GET("/:username/unfollow/", requireLogin, r.follows.Unfollow)
	engine.GET("/:username/:post_id/like/", requireLogin, r.likes.Like)
	engine.GET("/:username/:post_id/dislike/", requireLogin, r.likes.Dislike)

	// Auth
	engine.GET(auth.LoginPath, r.auth.LoginForm)
	engine.POST(auth.LoginPath, r.auth.Login)
	engine.GET("/auth/signup/", r.auth.SignupForm)
	engine.POST("/auth/signup/", r.auth.Signup)
	engine.GET("/auth/logout/", r.auth.Logout)

	// Public pages, registered last so static segments win over :username
	engine.GET("/:username/", r.posts.Profile)
	engine.GET("/:username/:post_id/", r.posts.Detail)
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	if err := r.db.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"service": "scribe",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"service": "scribe",
	})
}
