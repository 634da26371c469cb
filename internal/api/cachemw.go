package api

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scribe-social/scribe/internal/auth"
	"github.com/scribe-social/scribe/internal/cache"
)

// cachedWriter tees the response body so a successful rendering can be
// stored after the handler runs.
type cachedWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *cachedWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *cachedWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CachePage serves and stores short-lived renderings of a page, keyed on
// route plus query string. Only anonymous requests participate: a logged-in
// view carries per-user state that must not be shared. Must run after
// LoadUser.
func CachePage(pages *cache.PageCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !pages.Enabled() || auth.UserFrom(c) != nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		if body, ok := pages.Get(ctx, path, query); ok {
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(body))
			c.Abort()
			return
		}

		w := &cachedWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if w.Status() == http.StatusOK {
			pages.Set(ctx, path, query, w.body.String())
		}
	}
}
