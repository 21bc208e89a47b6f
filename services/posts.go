package services

import (
	"context"
	"strings"
	"time"

	"github.com/tnpportal/portal/models"
	"github.com/tnpportal/portal/utils"
)

// PostDraft is the caller-supplied part of a new post.
type PostDraft struct {
	Title       string              `json:"title"`
	Content     string              `json:"content"`
	Excerpt     string              `json:"excerpt"`
	Category    models.Category     `json:"category"`
	Tags        []string            `json:"tags"`
	Featured    bool                `json:"featured"`
	ImageURL    string              `json:"image_url"`
	Attachments []models.Attachment `json:"attachments"`
}

// PostPatch is a partial update. Only fields that are Set are applied, so an
// explicit false, "" or empty list replaces the stored value.
type PostPatch struct {
	Title       models.Optional[string]              `json:"title"`
	Content     models.Optional[string]              `json:"content"`
	Excerpt     models.Optional[string]              `json:"excerpt"`
	Category    models.Optional[models.Category]     `json:"category"`
	Tags        models.Optional[[]string]            `json:"tags"`
	Featured    models.Optional[bool]                `json:"featured"`
	Published   models.Optional[bool]                `json:"published"`
	ImageURL    models.Optional[string]              `json:"image_url"`
	Attachments models.Optional[[]models.Attachment] `json:"attachments"`
}

// PostService manages the lifecycle of posts.
type PostService struct {
	store PostStore
	lists *QueryEngine
}

// NewPostService creates a PostService. Mutations invalidate lists' cache.
func NewPostService(store PostStore, lists *QueryEngine) *PostService {
	return &PostService{store: store, lists: lists}
}

// Create validates draft and persists it as a new post authored by identity.
func (s *PostService) Create(ctx context.Context, identity Identity, draft PostDraft) (*models.Post, error) {
	if err := requireActive(identity); err != nil {
		return nil, err
	}

	category := draft.Category
	if category == "" {
		category = models.CategoryGeneral
	}
	post := &models.Post{
		Title:       utils.Sanitize(strings.TrimSpace(draft.Title)),
		Content:     utils.Sanitize(draft.Content),
		Excerpt:     utils.Sanitize(strings.TrimSpace(draft.Excerpt)),
		Author:      identity.Name,
		AuthorID:    identity.ID,
		Category:    category,
		Tags:        normalizeTags(draft.Tags),
		Featured:    draft.Featured,
		Published:   true,
		ImageURL:    strings.TrimSpace(draft.ImageURL),
		Attachments: sanitizeAttachments(draft.Attachments),
	}
	if err := validatePost(post, post.Excerpt != ""); err != nil {
		return nil, err
	}
	if post.Excerpt == "" {
		post.Excerpt = DeriveExcerpt(post.Content)
	}
	post.ReadingTime = models.ReadingTime(post.Content)
	post.RefreshSearchText()

	if err := s.store.Create(ctx, post); err != nil {
		return nil, storeErr("create post", err)
	}
	s.invalidate(ctx)
	return post, nil
}

// GetByID returns the full post and records one view.
func (s *PostService) GetByID(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.store.IncrementViews(ctx, id)
	if err != nil {
		return nil, storeErr("view post", err)
	}
	return post, nil
}

// Update applies patch to the post when identity may mutate it.
// Either every supplied field is written or none is.
func (s *PostService) Update(ctx context.Context, identity Identity, id string, patch PostPatch) (*models.Post, error) {
	if err := requireActive(identity); err != nil {
		return nil, err
	}
	post, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find post", err)
	}
	if !CanMutate(identity, post) {
		return nil, ErrForbidden
	}

	fields := applyPatch(post, patch)
	if len(fields) == 0 {
		return post, nil
	}
	excerpt, excerptSet := patch.Excerpt.Get()
	if err := validatePost(post, excerptSet && strings.TrimSpace(excerpt) != ""); err != nil {
		return nil, err
	}
	// derive again only when content or excerpt was touched and nothing usable remains
	if post.Excerpt == "" && (patch.Content.Set || excerptSet) {
		post.Excerpt = DeriveExcerpt(post.Content)
		if !excerptSet {
			fields = append(fields, "excerpt")
		}
	}
	post.RefreshSearchText()
	post.UpdatedAt = time.Now()
	fields = append(fields, "search_text", "updated_at")

	if err := s.store.Update(ctx, post, fields); err != nil {
		return nil, storeErr("update post", err)
	}
	s.invalidate(ctx)

	updated, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("reload post", err)
	}
	return updated, nil
}

// Remove permanently deletes the post when identity may mutate it.
func (s *PostService) Remove(ctx context.Context, identity Identity, id string) error {
	if err := requireActive(identity); err != nil {
		return err
	}
	post, err := s.store.FindByID(ctx, id)
	if err != nil {
		return storeErr("find post", err)
	}
	if !CanMutate(identity, post) {
		return ErrForbidden
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return storeErr("delete post", err)
	}
	s.invalidate(ctx)
	return nil
}

// Like adds one like and returns the new total. Repeat likes by the same
// identity are counted; there is no per-user deduplication.
func (s *PostService) Like(ctx context.Context, identity Identity, id string) (int64, error) {
	if err := requireActive(identity); err != nil {
		return 0, err
	}
	likes, err := s.store.IncrementLikes(ctx, id)
	if err != nil {
		return 0, storeErr("like post", err)
	}
	return likes, nil
}

func (s *PostService) invalidate(ctx context.Context) {
	if s.lists != nil {
		s.lists.Invalidate(ctx)
	}
}

// applyPatch copies supplied fields onto post and returns their column names.
func applyPatch(post *models.Post, patch PostPatch) []string {
	var fields []string
	if v, ok := patch.Title.Get(); ok {
		post.Title = utils.Sanitize(strings.TrimSpace(v))
		fields = append(fields, "title")
	}
	if v, ok := patch.Content.Get(); ok {
		post.Content = utils.Sanitize(v)
		post.ReadingTime = models.ReadingTime(post.Content)
		fields = append(fields, "content", "reading_time")
	}
	if v, ok := patch.Excerpt.Get(); ok {
		post.Excerpt = utils.Sanitize(strings.TrimSpace(v))
		fields = append(fields, "excerpt")
	}
	if v, ok := patch.Category.Get(); ok {
		post.Category = models.Category(strings.TrimSpace(string(v)))
		fields = append(fields, "category")
	}
	if v, ok := patch.Tags.Get(); ok {
		post.Tags = normalizeTags(v)
		fields = append(fields, "tags")
	}
	if v, ok := patch.Featured.Get(); ok {
		post.Featured = v
		fields = append(fields, "featured")
	}
	if v, ok := patch.Published.Get(); ok {
		post.Published = v
		fields = append(fields, "published")
	}
	if v, ok := patch.ImageURL.Get(); ok {
		post.ImageURL = strings.TrimSpace(v)
		fields = append(fields, "image_url")
	}
	if v, ok := patch.Attachments.Get(); ok {
		post.Attachments = sanitizeAttachments(v)
		fields = append(fields, "attachments")
	}
	return fields
}

// sanitizeAttachments strips markup from the descriptive fields; URLs are
// checked for an http(s) scheme during validation.
func sanitizeAttachments(in []models.Attachment) []models.Attachment {
	out := make([]models.Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, models.Attachment{
			Name: utils.SanitizeText(strings.TrimSpace(a.Name)),
			URL:  strings.TrimSpace(a.URL),
			Size: a.Size,
			Type: utils.SanitizeText(strings.TrimSpace(a.Type)),
		})
	}
	return out
}
