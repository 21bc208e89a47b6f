package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/tnpportal/portal/models"
	"github.com/tnpportal/portal/services"
)

// UserStore reads the users behind identities.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a UserStore on an open database handle.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

var _ services.UserFinder = (*UserStore)(nil)

// FindUser loads a user by id.
func (s *UserStore) FindUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// CreateUser inserts a user record.
func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// Models lists every table the store needs migrated.
func Models() []interface{} {
	return []interface{}{&models.Post{}, &models.PostTag{}, &models.User{}}
}
