package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tnpportal/portal/models"
	"github.com/tnpportal/portal/services"
)

// PostStore persists posts with gorm. Tags are kept twice: serialized on the
// post row for ordered reads and one row per tag in post_tags for filtering.
type PostStore struct {
	db *gorm.DB
}

// NewPostStore creates a PostStore on an open database handle.
func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db}
}

var _ services.PostStore = (*PostStore)(nil)

// Create inserts post and its tag index rows.
func (s *PostStore) Create(ctx context.Context, post *models.Post) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		return replaceTags(tx, post.ID, post.Tags)
	})
}

// FindByID loads the full post.
func (s *PostStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// Update writes only the named columns of post.
func (s *PostStore) Update(ctx context.Context, post *models.Post, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(post).Select(fields).Updates(post).Error; err != nil {
			return err
		}
		for _, f := range fields {
			if f == "tags" {
				return replaceTags(tx, post.ID, post.Tags)
			}
		}
		return nil
	})
}

// Delete removes the post and its tag rows.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return services.ErrNotFound
		}
		return nil
	})
}

// IncrementViews atomically adds one view and returns the updated post.
// updated_at is left alone so reads do not reorder listings.
func (s *PostStore) IncrementViews(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := incrementColumn(tx, id, "views"); err != nil {
			return err
		}
		return tx.First(&post, "id = ?", id).Error
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// IncrementLikes atomically adds one like and returns the new count.
func (s *PostStore) IncrementLikes(ctx context.Context, id string) (int64, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := incrementColumn(tx, id, "likes"); err != nil {
			return err
		}
		return tx.Select("id", "likes").First(&post, "id = ?", id).Error
	})
	if err != nil {
		return 0, notFound(err)
	}
	return post.Likes, nil
}

// List returns one page of published posts matching filter, without content,
// and the total number of matches.
func (s *PostStore) List(ctx context.Context, filter services.PostFilter, offset, limit int) ([]models.Post, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Post{}).Where("published = ?", true)
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		like := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		q = q.Where("LOWER(search_text) LIKE ? ESCAPE '!'", like)
	}
	if len(filter.Tags) > 0 {
		q = q.Where("id IN (?)", s.db.Model(&models.PostTag{}).Select("post_id").Where("tag IN ?", filter.Tags))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	posts := []models.Post{}
	if total == 0 || int64(offset) >= total {
		return posts, total, nil
	}
	err := q.Omit("content", "search_text").
		Order("updated_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Featured returns up to limit featured, published posts without content.
func (s *PostStore) Featured(ctx context.Context, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	err := s.db.WithContext(ctx).
		Where("featured = ? AND published = ?", true, true).
		Omit("content", "search_text").
		Order("updated_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func incrementColumn(tx *gorm.DB, id, column string) error {
	res := tx.Model(&models.Post{}).Where("id = ?", id).UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

func replaceTags(tx *gorm.DB, postID string, tags []string) error {
	if err := tx.Where("post_id = ?", postID).Delete(&models.PostTag{}).Error; err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(tags))
	rows := make([]models.PostTag, 0, len(tags))
	for _, t := range tags {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		rows = append(rows, models.PostTag{PostID: postID, Tag: t})
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

// escapeLike escapes LIKE wildcards using '!' so the same pattern works on
// MySQL, Postgres and SQLite.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	return err
}
