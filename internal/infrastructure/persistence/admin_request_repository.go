package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAdminRequestRepository implements identity.AdminRequestRepository using GORM
type GormAdminRequestRepository struct {
	db *gorm.DB
}

// NewGormAdminRequestRepository creates a new GormAdminRequestRepository
func NewGormAdminRequestRepository(db *gorm.DB) *GormAdminRequestRepository {
	return &GormAdminRequestRepository{db: db}
}

// Create inserts a pending request. The partial unique indexes turn a
// concurrent duplicate into shared.ErrAlreadyExists.
func (r *GormAdminRequestRepository) Create(ctx context.Context, req *identity.AdminRequest) error {
	return translate(r.db.WithContext(ctx).Create(models.AdminRequestModelFromDomain(req)).Error)
}

func (r *GormAdminRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.AdminRequest, error) {
	var m models.AdminRequestModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

func (r *GormAdminRequestRepository) FindPendingDemotion(ctx context.Context, targetUserID, orgID string) (*identity.AdminRequest, error) {
	return r.findPending(ctx, r.db.Where("type = ? AND target_user_id = ? AND org_id = ?",
		identity.AdminRequestDemoteAdmin, targetUserID, orgID))
}

func (r *GormAdminRequestRepository) FindPendingOrgDeletion(ctx context.Context, orgID string) (*identity.AdminRequest, error) {
	return r.findPending(ctx, r.db.Where("type = ? AND org_id = ?", identity.AdminRequestDeleteOrg, orgID))
}

func (r *GormAdminRequestRepository) findPending(ctx context.Context, scope *gorm.DB) (*identity.AdminRequest, error) {
	var m models.AdminRequestModel
	if err := scope.WithContext(ctx).
		Where("status = ?", identity.AdminRequestPending).
		First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

// FindByOrg lists the requests of an organization, oldest first
func (r *GormAdminRequestRepository) FindByOrg(ctx context.Context, orgID string) ([]*identity.AdminRequest, error) {
	var rows []models.AdminRequestModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*identity.AdminRequest, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// Delete removes a request, returning shared.ErrNotFound when it was already gone
func (r *GormAdminRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.AdminRequestModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormAdminRequestRepository) DeleteByOrg(ctx context.Context, orgID string) error {
	return r.db.WithContext(ctx).Delete(&models.AdminRequestModel{}, "org_id = ?", orgID).Error
}
