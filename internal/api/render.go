package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/scribe-social/scribe/pkg/logging"
)

// notFound renders the custom 404 page. Absent entities and author/post
// ownership mismatches both land here, with no side effects.
func notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404.html", gin.H{
		"Path": c.Request.URL.Path,
	})
	c.Abort()
}

// serverError logs a storage or connectivity fault and renders the generic
// 500 page.
func serverError(c *gin.Context, err error) {
	logging.WithComponent("api").Error("Request failed",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.HTML(http.StatusInternalServerError, "500.html", gin.H{})
	c.Abort()
}
