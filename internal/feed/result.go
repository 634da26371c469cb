package feed

import (
	"github.com/scribe-social/scribe/internal/models"
)

// ListResult is the outcome of a paginated listing query. The handler that
// ran the query picks this type explicitly; templates never probe a context
// object to guess which shape they were given.
type ListResult struct {
	Posts []*models.Post
	Page  Pagination
}

// SingleResult is the outcome of a single-post lookup, annotated with the
// detail-view aggregates.
type SingleResult struct {
	Post      *models.Post
	Comments  []*models.Comment
	LikeCount int64
	Liked     bool
}
