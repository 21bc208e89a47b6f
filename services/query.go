package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/tnpportal/portal/models"
	"github.com/tnpportal/portal/utils"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	FeaturedLimit   = 5

	listCachePrefix = "cache:posts:list:"
)

// PostFilter narrows a listing. Zero-valued fields impose no constraint;
// Tags match when a post carries any of them.
type PostFilter struct {
	Category models.Category
	Search   string
	Tags     []string
}

// PostStore is the persistence contract the query engine and lifecycle
// manager depend on. Implementations return ErrNotFound for missing ids.
type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, post *models.Post, fields []string) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (*models.Post, error)
	IncrementLikes(ctx context.Context, id string) (int64, error)
	List(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, int64, error)
	Featured(ctx context.Context, limit int) ([]models.Post, error)
}

// Pagination describes where a page sits in the full result set.
// An empty result has Pages == 0.
type Pagination struct {
	Current int   `json:"current"`
	Limit   int   `json:"limit"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

// PostPage is one page of a listing. Posts never carry content.
type PostPage struct {
	Posts      []models.Post `json:"posts"`
	Pagination Pagination    `json:"pagination"`
}

// Paginate computes page metadata for total matching records.
func Paginate(page, pageSize int, total int64) Pagination {
	page, pageSize = normalizePage(page, pageSize)
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Current: page,
		Limit:   pageSize,
		Pages:   pages,
		Total:   total,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// pageOffset returns the rows to skip, saturating at math.MaxInt so a huge
// page number lands past the end instead of wrapping around.
func pageOffset(page, pageSize int) int {
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// QueryEngine serves paginated, filtered post listings.
type QueryEngine struct {
	store PostStore
	cache *utils.Cache
}

// NewQueryEngine creates a QueryEngine. cache may be nil.
func NewQueryEngine(store PostStore, cache *utils.Cache) *QueryEngine {
	return &QueryEngine{store: store, cache: cache}
}

// ListPosts returns the requested page of published posts matching filter,
// most recently updated first.
func (q *QueryEngine) ListPosts(ctx context.Context, page, pageSize int, filter PostFilter) (*PostPage, error) {
	page, pageSize = normalizePage(page, pageSize)
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	// free-text results are not cached to avoid key explosion
	key := ""
	if filter.Search == "" {
		tags, err := json.Marshal(filter.Tags)
		if err != nil {
			return nil, err
		}
		key = fmt.Sprintf("%scat=%s:tags=%s:page=%d:size=%d", listCachePrefix, filter.Category, tags, page, pageSize)
		var cached PostPage
		if q.cache.GetJSON(ctx, key, &cached) {
			return &cached, nil
		}
	}

	posts, total, err := q.store.List(ctx, filter, pageOffset(page, pageSize), pageSize)
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	result := &PostPage{Posts: posts, Pagination: Paginate(page, pageSize, total)}
	if key != "" {
		q.cache.SetJSON(ctx, key, result)
	}
	return result, nil
}

// Featured returns up to FeaturedLimit featured, published posts.
func (q *QueryEngine) Featured(ctx context.Context) ([]models.Post, error) {
	key := listCachePrefix + "featured"
	var cached []models.Post
	if q.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}
	posts, err := q.store.Featured(ctx, FeaturedLimit)
	if err != nil {
		return nil, storeErr("list featured", err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	q.cache.SetJSON(ctx, key, posts)
	return posts, nil
}

// Invalidate drops every cached listing.
func (q *QueryEngine) Invalidate(ctx context.Context) {
	q.cache.InvalidateByPrefix(ctx, listCachePrefix)
}

func normalizeFilter(f PostFilter) (PostFilter, error) {
	out := PostFilter{
		Category: models.Category(strings.TrimSpace(string(f.Category))),
		Search:   strings.TrimSpace(f.Search),
		Tags:     normalizeTags(f.Tags),
	}
	if out.Category != "" && !out.Category.Valid() {
		return PostFilter{}, &ValidationError{Fields: map[string]string{"category": "unknown category"}}
	}
	return out, nil
}
