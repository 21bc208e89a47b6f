package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tnpportal/portal/metrics"
	"github.com/tnpportal/portal/middleware"
	"github.com/tnpportal/portal/models"
	"github.com/tnpportal/portal/services"
	"github.com/tnpportal/portal/utils"
)

// PostController exposes post listing and lifecycle operations over HTTP.
type PostController struct {
	posts   *services.PostService
	query   *services.QueryEngine
	metrics *metrics.Metrics
}

// NewPostController creates a new PostController instance. m may be nil.
func NewPostController(posts *services.PostService, query *services.QueryEngine, m *metrics.Metrics) *PostController {
	return &PostController{posts: posts, query: query, metrics: m}
}

// ListPosts returns paginated published posts filtered by category, search and tags.
func (p *PostController) ListPosts(ctx *gin.Context) {
	filter := services.PostFilter{
		Category: models.Category(ctx.Query("category")),
		Search:   ctx.Query("search"),
		Tags:     splitTags(ctx.Query("tags")),
	}
	p.list(ctx, filter, "server error while fetching posts")
}

// ListByCategory returns paginated posts of one category.
func (p *PostController) ListByCategory(ctx *gin.Context) {
	filter := services.PostFilter{Category: models.Category(ctx.Param("category"))}
	p.list(ctx, filter, "server error while fetching posts by category")
}

// Search returns paginated posts matching the query path segment.
func (p *PostController) Search(ctx *gin.Context) {
	filter := services.PostFilter{Search: ctx.Param("query")}
	p.list(ctx, filter, "server error while searching posts")
}

func (p *PostController) list(ctx *gin.Context, filter services.PostFilter, failure string) {
	page, limit := parsePagination(ctx.Query("page"), ctx.Query("limit"))
	result, err := p.query.ListPosts(ctx.Request.Context(), page, limit, filter)
	if err != nil {
		respondError(ctx, err, failure)
		return
	}
	utils.Success(ctx, http.StatusOK, "", result)
}

// FeaturedPosts returns the highlighted posts.
func (p *PostController) FeaturedPosts(ctx *gin.Context) {
	posts, err := p.query.Featured(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, "server error while fetching featured posts")
		return
	}
	utils.Success(ctx, http.StatusOK, "", posts)
}

// GetPost returns a single post with content and counts the view.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, err := p.posts.GetByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err, "server error while fetching post")
		return
	}
	p.metrics.RecordView(ctx.Request.Context())
	utils.Success(ctx, http.StatusOK, "", post)
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	identity, ok := middleware.CurrentIdentity(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "authentication required")
		return
	}

	var draft services.PostDraft
	if err := ctx.ShouldBindJSON(&draft); err != nil {
		respondBindError(ctx, err)
		return
	}

	post, err := p.posts.Create(ctx.Request.Context(), identity, draft)
	if err != nil {
		respondError(ctx, err, "server error while creating post")
		return
	}
	p.metrics.RecordWrite(ctx.Request.Context(), "create")
	utils.Success(ctx, http.StatusCreated, "post created successfully", post)
}

// UpdatePost applies a partial update for the author, a moderator or an admin.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	identity, ok := middleware.CurrentIdentity(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "authentication required")
		return
	}

	var patch services.PostPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		respondBindError(ctx, err)
		return
	}

	post, err := p.posts.Update(ctx.Request.Context(), identity, ctx.Param("id"), patch)
	if err != nil {
		respondError(ctx, err, "server error while updating post")
		return
	}
	p.metrics.RecordWrite(ctx.Request.Context(), "update")
	utils.Success(ctx, http.StatusOK, "post updated successfully", post)
}

// DeletePost permanently removes a post.
func (p *PostController) DeletePost(ctx *gin.Context) {
	identity, ok := middleware.CurrentIdentity(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := p.posts.Remove(ctx.Request.Context(), identity, ctx.Param("id")); err != nil {
		respondError(ctx, err, "server error while deleting post")
		return
	}
	p.metrics.RecordWrite(ctx.Request.Context(), "delete")
	utils.Success(ctx, http.StatusOK, "post deleted successfully", nil)
}

// LikePost adds a like and reports the new total.
func (p *PostController) LikePost(ctx *gin.Context) {
	identity, ok := middleware.CurrentIdentity(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "authentication required")
		return
	}

	likes, err := p.posts.Like(ctx.Request.Context(), identity, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err, "server error while liking post")
		return
	}
	p.metrics.RecordLike(ctx.Request.Context())
	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "post liked successfully",
		"likes":   likes,
	})
}

// respondError maps service errors onto status codes. Unclassified errors are
// logged and reported with the generic failure message only.
func respondError(ctx *gin.Context, err error, failure string) {
	var verr *services.ValidationError
	var authErr *services.AuthError
	switch {
	case errors.As(err, &verr):
		utils.FieldErrors(ctx, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.As(err, &authErr):
		utils.Error(ctx, http.StatusUnauthorized, authErr.Reason)
	case errors.Is(err, services.ErrUnauthenticated):
		utils.Error(ctx, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, services.ErrForbidden):
		utils.Error(ctx, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, "post not found")
	default:
		utils.Sugar.Errorw(failure, "error", err, "path", ctx.Request.URL.Path)
		utils.Error(ctx, http.StatusInternalServerError, failure)
	}
}

// respondBindError reports an undecodable body, or 413 when MaxBodySize cut it off.
func respondBindError(ctx *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		utils.Error(ctx, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
}

func parsePagination(pageStr, limitStr string) (int, int) {
	page := 1
	limit := services.DefaultPageSize
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
		limit = min(l, services.MaxPageSize)
	}
	return page, limit
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
