package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts a new mirror
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return translate(r.db.WithContext(ctx).Create(models.UserModelFromDomain(user)).Error)
}

// Update saves an existing mirror
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	return translate(r.db.WithContext(ctx).Save(models.UserModelFromDomain(user)).Error)
}

// Delete removes a mirror; a missing row is not an error
func (r *GormUserRepository) Delete(ctx context.Context, id string) error {
	return translate(r.db.WithContext(ctx).Delete(&models.UserModel{}, "id = ?", id).Error)
}

// FindByID finds a user by provider id
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*identity.User, error) {
	var m models.UserModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

// FindByEmail finds a user by email, case-insensitively
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	var m models.UserModel
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

// FindByIDs returns the users among ids that exist
func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []string) ([]*identity.User, error) {
	if len(ids) == 0 {
		return []*identity.User{}, nil
	}
	var rows []models.UserModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return usersToDomain(rows), nil
}

// FindAll returns every mirrored user ordered by name
func (r *GormUserRepository) FindAll(ctx context.Context) ([]*identity.User, error) {
	var rows []models.UserModel
	if err := r.db.WithContext(ctx).
		Order("first_name ASC").Order("last_name ASC").Order("email ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return usersToDomain(rows), nil
}

// UpdateRole sets the mirrored global role; a missing user is not an error
func (r *GormUserRepository) UpdateRole(ctx context.Context, id string, role identity.Role) error {
	return r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"role": role, "updated_at": time.Now()}).Error
}

func usersToDomain(rows []models.UserModel) []*identity.User {
	users := make([]*identity.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].ToDomain())
	}
	return users
}
